// Package store persists training sessions.
//
// Every implementation enforces two guards at the storage boundary:
//   - Create refuses a session for a client that already has a non-terminal
//     one (models.ErrActiveSessionExists).
//   - Save is a compare-and-swap on Session.Version
//     (models.ErrVersionConflict). On success the caller's Version is bumped.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"speech-training-service/internal/models"
)

var errClosed = errors.New("store closed")

// Store is the durable session repository.
type Store interface {
	// Create persists a new session. Its Version must be 0.
	Create(ctx context.Context, s *models.Session) error

	// Save persists changes to an existing session.
	Save(ctx context.Context, s *models.Session) error

	// FindByID returns a copy of the session or models.ErrNotFound.
	FindByID(ctx context.Context, id string) (*models.Session, error)

	// FindActiveByClientID returns the client's non-terminal sessions.
	FindActiveByClientID(ctx context.Context, clientID string) ([]*models.Session, error)

	// ExistsActiveForClient reports whether the client has a non-terminal session.
	ExistsActiveForClient(ctx context.Context, clientID string) (bool, error)

	// FindByStatus returns every session currently in status.
	FindByStatus(ctx context.Context, status models.Status) ([]*models.Session, error)

	// Ping reports whether the store is usable.
	Ping(ctx context.Context) error

	Close() error
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}
