package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"speech-training-service/internal/models"
)

func newSession(t *testing.T, id, clientID string, startedAt time.Time) *models.Session {
	t.Helper()
	words := []string{"a1", "a2", "a3", "b1", "b2", "b3", "c1", "c2", "c3"}
	s, err := models.NewSession(id, clientID, "specialist-1", "R", 7, words, startedAt)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

// forEachStore runs fn against every Store implementation.
func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) {
		s := NewMemoryStore()
		defer s.Close()
		fn(t, s)
	})
	t.Run("badger", func(t *testing.T) {
		s, err := NewInMemoryBadgerStore()
		if err != nil {
			t.Fatalf("NewInMemoryBadgerStore: %v", err)
		}
		defer s.Close()
		fn(t, s)
	})
}

func TestStore_CreateAndFind(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		s := newSession(t, "s-1", "c-1", time.Now())

		if err := st.Create(ctx, s); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if s.Version != 1 {
			t.Errorf("expected version 1 after create, got %d", s.Version)
		}

		got, err := st.FindByID(ctx, "s-1")
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got.ClientID != "c-1" || got.Version != 1 || len(got.Cycles) != 3 {
			t.Errorf("unexpected session: %+v", got)
		}

		if _, err := st.FindByID(ctx, "missing"); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestStore_ReturnsCopies(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		s := newSession(t, "s-1", "c-1", time.Now())
		if err := st.Create(ctx, s); err != nil {
			t.Fatalf("Create: %v", err)
		}

		s.TotalCorrect = 99
		got, _ := st.FindByID(ctx, "s-1")
		got.Cycles[0].Words[0] = "mutated"

		again, _ := st.FindByID(ctx, "s-1")
		if again.TotalCorrect != 0 || again.Cycles[0].Words[0] != "a1" {
			t.Errorf("store shares state with callers: %+v", again)
		}
	})
}

func TestStore_OneActivePerClient(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		first := newSession(t, "s-1", "c-1", time.Now())
		if err := st.Create(ctx, first); err != nil {
			t.Fatalf("Create: %v", err)
		}

		second := newSession(t, "s-2", "c-1", time.Now())
		if err := st.Create(ctx, second); !errors.Is(err, models.ErrActiveSessionExists) {
			t.Fatalf("expected ErrActiveSessionExists, got %v", err)
		}

		exists, err := st.ExistsActiveForClient(ctx, "c-1")
		if err != nil || !exists {
			t.Errorf("expected active session for c-1, got %v %v", exists, err)
		}
		active, err := st.FindActiveByClientID(ctx, "c-1")
		if err != nil || len(active) != 1 || active[0].ID != "s-1" {
			t.Errorf("expected s-1 active, got %v %v", active, err)
		}

		first.Status = models.StatusCancelled
		if err := st.Save(ctx, first); err != nil {
			t.Fatalf("Save: %v", err)
		}

		exists, _ = st.ExistsActiveForClient(ctx, "c-1")
		if exists {
			t.Error("terminal session should release the client")
		}
		if err := st.Create(ctx, second); err != nil {
			t.Errorf("Create after cancel: %v", err)
		}
	})
}

func TestStore_SaveVersionCheck(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		s := newSession(t, "s-1", "c-1", time.Now())
		if err := st.Create(ctx, s); err != nil {
			t.Fatalf("Create: %v", err)
		}

		a, _ := st.FindByID(ctx, "s-1")
		b, _ := st.FindByID(ctx, "s-1")

		a.Status = models.StatusAwaitingAudio
		if err := st.Save(ctx, a); err != nil {
			t.Fatalf("first save: %v", err)
		}
		if a.Version != 2 {
			t.Errorf("expected version 2, got %d", a.Version)
		}

		b.Status = models.StatusCancelled
		if err := st.Save(ctx, b); !errors.Is(err, models.ErrVersionConflict) {
			t.Errorf("expected ErrVersionConflict for stale write, got %v", err)
		}

		got, _ := st.FindByID(ctx, "s-1")
		if got.Status != models.StatusAwaitingAudio {
			t.Errorf("stale write applied: %v", got.Status)
		}
	})
}

func TestStore_SaveUnknownSession(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		s := newSession(t, "ghost", "c-1", time.Now())
		s.Version = 1
		if err := st.Save(context.Background(), s); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestStore_FindByStatus(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		base := time.Now()

		for i, id := range []string{"s-2", "s-1", "s-3"} {
			s := newSession(t, id, "client-"+id, base.Add(time.Duration(i)*time.Minute))
			if id != "s-3" {
				s.Status = models.StatusProcessing
			}
			if err := st.Create(ctx, s); err != nil {
				t.Fatalf("Create %s: %v", id, err)
			}
		}

		got, err := st.FindByStatus(ctx, models.StatusProcessing)
		if err != nil {
			t.Fatalf("FindByStatus: %v", err)
		}
		if len(got) != 2 || got[0].ID != "s-2" || got[1].ID != "s-1" {
			ids := make([]string, len(got))
			for i, s := range got {
				ids[i] = s.ID
			}
			t.Errorf("expected [s-2 s-1] by start time, got %v", ids)
		}
	})
}

func TestStore_ConcurrentCreateSingleWinner(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		const n = 10

		sessions := make([]*models.Session, n)
		for i := range sessions {
			sessions[i] = newSession(t, NewID(), "c-race", time.Now())
		}

		var wg sync.WaitGroup
		errs := make(chan error, n)
		for _, s := range sessions {
			wg.Add(1)
			go func(s *models.Session) {
				defer wg.Done()
				errs <- st.Create(ctx, s)
			}(s)
		}
		wg.Wait()
		close(errs)

		wins := 0
		for err := range errs {
			switch {
			case err == nil:
				wins++
			case errors.Is(err, models.ErrActiveSessionExists), errors.Is(err, models.ErrVersionConflict):
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}
		if wins != 1 {
			t.Errorf("expected exactly one winner, got %d", wins)
		}
	})
}

func TestStore_Ping(t *testing.T) {
	st := NewMemoryStore()
	if err := st.Ping(context.Background()); err != nil {
		t.Errorf("unexpected ping error: %v", err)
	}
	st.Close()
	if err := st.Ping(context.Background()); err == nil {
		t.Error("expected ping error after close")
	}
}

func TestNewID_Unique(t *testing.T) {
	if NewID() == NewID() {
		t.Error("expected distinct ids")
	}
}
