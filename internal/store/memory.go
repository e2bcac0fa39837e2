package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"speech-training-service/internal/models"
)

// MemoryStore keeps sessions in process memory. Sessions are cloned on the
// way in and out so callers never share state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	active   map[string]string // clientID -> sessionID
	closed   bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*models.Session),
		active:   make(map[string]string),
	}
}

// Create implements Store.
func (m *MemoryStore) Create(ctx context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errClosed
	}
	if _, exists := m.sessions[s.ID]; exists {
		return fmt.Errorf("create session %s: %w", s.ID, models.ErrVersionConflict)
	}
	if s.Version != 0 {
		return fmt.Errorf("create session %s: %w: version %d", s.ID, models.ErrVersionConflict, s.Version)
	}
	if !s.Status.IsTerminal() {
		if id, ok := m.active[s.ClientID]; ok {
			return fmt.Errorf("client %s (session %s): %w", s.ClientID, id, models.ErrActiveSessionExists)
		}
		m.active[s.ClientID] = s.ID
	}

	s.Version = 1
	m.sessions[s.ID] = s.Clone()
	return nil
}

// Save implements Store.
func (m *MemoryStore) Save(ctx context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errClosed
	}
	stored, ok := m.sessions[s.ID]
	if !ok {
		return fmt.Errorf("session %s: %w", s.ID, models.ErrNotFound)
	}
	if stored.Version != s.Version {
		return fmt.Errorf("session %s: %w: have %d, stored %d",
			s.ID, models.ErrVersionConflict, s.Version, stored.Version)
	}

	if s.Status.IsTerminal() {
		if m.active[s.ClientID] == s.ID {
			delete(m.active, s.ClientID)
		}
	}

	s.Version++
	m.sessions[s.ID] = s.Clone()
	return nil
}

// FindByID implements Store.
func (m *MemoryStore) FindByID(ctx context.Context, id string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, models.ErrNotFound)
	}
	return s.Clone(), nil
}

// FindActiveByClientID implements Store.
func (m *MemoryStore) FindActiveByClientID(ctx context.Context, clientID string) ([]*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.active[clientID]
	if !ok {
		return nil, nil
	}
	return []*models.Session{m.sessions[id].Clone()}, nil
}

// ExistsActiveForClient implements Store.
func (m *MemoryStore) ExistsActiveForClient(ctx context.Context, clientID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.active[clientID]
	return ok, nil
}

// FindByStatus implements Store. Results are ordered by start time.
func (m *MemoryStore) FindByStatus(ctx context.Context, status models.Status) ([]*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.Session
	for _, s := range m.sessions {
		if s.Status == status {
			out = append(out, s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

// Ping implements Store.
func (m *MemoryStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return errClosed
	}
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
