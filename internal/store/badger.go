package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/dgraph-io/badger/v3"

	"speech-training-service/internal/models"
)

const (
	sessionPrefix = "session/"
	activePrefix  = "active/"
)

func sessionKey(id string) []byte      { return []byte(sessionPrefix + id) }
func activeKey(clientID string) []byte { return []byte(activePrefix + clientID) }

// BadgerStore persists sessions as JSON in a Badger database. The
// active/<clientID> key indexes the client's non-terminal session.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a Badger database under path.
func NewBadgerStore(path string) (*BadgerStore, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return openBadger(badger.DefaultOptions(path))
}

// NewInMemoryBadgerStore opens a Badger database that lives only in memory.
func NewInMemoryBadgerStore() (*BadgerStore, error) {
	return openBadger(badger.DefaultOptions("").WithInMemory(true))
}

func openBadger(opts badger.Options) (*BadgerStore, error) {
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Create implements Store.
func (b *BadgerStore) Create(ctx context.Context, s *models.Session) error {
	if s.Version != 0 {
		return fmt.Errorf("create session %s: %w: version %d", s.ID, models.ErrVersionConflict, s.Version)
	}

	next := s.Clone()
	next.Version = 1
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(sessionKey(s.ID)); err == nil {
			return fmt.Errorf("create session %s: %w", s.ID, models.ErrVersionConflict)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if !s.Status.IsTerminal() {
			item, err := txn.Get(activeKey(s.ClientID))
			switch {
			case err == nil:
				existing, _ := item.ValueCopy(nil)
				return fmt.Errorf("client %s (session %s): %w", s.ClientID, existing, models.ErrActiveSessionExists)
			case !errors.Is(err, badger.ErrKeyNotFound):
				return err
			}
			if err := txn.Set(activeKey(s.ClientID), []byte(s.ID)); err != nil {
				return err
			}
		}
		return txn.Set(sessionKey(s.ID), data)
	})
	if err != nil {
		return mapConflict(err)
	}
	s.Version = 1
	return nil
}

// Save implements Store.
func (b *BadgerStore) Save(ctx context.Context, s *models.Session) error {
	next := s.Clone()
	next.Version = s.Version + 1
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		stored, err := getSession(txn, s.ID)
		if err != nil {
			return err
		}
		if stored.Version != s.Version {
			return fmt.Errorf("session %s: %w: have %d, stored %d",
				s.ID, models.ErrVersionConflict, s.Version, stored.Version)
		}

		if s.Status.IsTerminal() {
			item, err := txn.Get(activeKey(s.ClientID))
			if err == nil {
				owner, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				if string(owner) == s.ID {
					if err := txn.Delete(activeKey(s.ClientID)); err != nil {
						return err
					}
				}
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		return txn.Set(sessionKey(s.ID), data)
	})
	if err != nil {
		return mapConflict(err)
	}
	s.Version = next.Version
	return nil
}

// FindByID implements Store.
func (b *BadgerStore) FindByID(ctx context.Context, id string) (*models.Session, error) {
	var out *models.Session
	err := b.db.View(func(txn *badger.Txn) error {
		s, err := getSession(txn, id)
		out = s
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindActiveByClientID implements Store.
func (b *BadgerStore) FindActiveByClientID(ctx context.Context, clientID string) ([]*models.Session, error) {
	var out []*models.Session
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(activeKey(clientID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		s, err := getSession(txn, string(id))
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find active sessions: %w", err)
	}
	return out, nil
}

// ExistsActiveForClient implements Store.
func (b *BadgerStore) ExistsActiveForClient(ctx context.Context, clientID string) (bool, error) {
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(activeKey(clientID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to check active session: %w", err)
	}
	return found, nil
}

// FindByStatus implements Store. Results are ordered by start time.
func (b *BadgerStore) FindByStatus(ctx context.Context, status models.Status) ([]*models.Session, error) {
	var out []*models.Session
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(sessionPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var s models.Session
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &s)
			}); err != nil {
				return err
			}
			if s.Status == status {
				out = append(out, &s)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

// Ping implements Store.
func (b *BadgerStore) Ping(ctx context.Context) error {
	if b.db.IsClosed() {
		return errClosed
	}
	return nil
}

// Close implements Store.
func (b *BadgerStore) Close() error {
	return b.db.Close()
}

func getSession(txn *badger.Txn, id string) (*models.Session, error) {
	item, err := txn.Get(sessionKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("session %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var s models.Session
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &s)
	}); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &s, nil
}

// mapConflict turns Badger's optimistic transaction conflict into the
// store-level version conflict.
func mapConflict(err error) error {
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%w: %v", models.ErrVersionConflict, err)
	}
	return err
}
