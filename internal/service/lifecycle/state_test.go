package lifecycle

import (
	"errors"
	"testing"
	"time"

	"speech-training-service/internal/models"
)

func newSession(t *testing.T) *models.Session {
	t.Helper()
	words := []string{"a1", "a2", "a3", "b1", "b2", "b3", "c1", "c2", "c3"}
	s, err := models.NewSession("s-1", "c-1", "sp-1", "R", 7, words, time.Now())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestCanTransition_Table(t *testing.T) {
	all := []models.Status{
		models.StatusStarted,
		models.StatusAwaitingAudio,
		models.StatusProcessing,
		models.StatusFinished,
		models.StatusCancelled,
	}
	allowed := map[[2]models.Status]bool{
		{models.StatusStarted, models.StatusAwaitingAudio}:    true,
		{models.StatusStarted, models.StatusCancelled}:        true,
		{models.StatusAwaitingAudio, models.StatusProcessing}: true,
		{models.StatusAwaitingAudio, models.StatusCancelled}:  true,
		{models.StatusProcessing, models.StatusAwaitingAudio}: true,
		{models.StatusProcessing, models.StatusFinished}:      true,
		{models.StatusProcessing, models.StatusCancelled}:     true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]models.Status{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTransition_RejectsWithoutMutation(t *testing.T) {
	s := newSession(t)

	err := Transition(s, models.StatusFinished)
	if !errors.Is(err, models.ErrStateConflict) {
		t.Errorf("expected ErrStateConflict, got %v", err)
	}
	if s.Status != models.StatusStarted {
		t.Errorf("expected status unchanged, got %v", s.Status)
	}
}

func TestTransition_FullCycle(t *testing.T) {
	s := newSession(t)

	steps := []models.Status{
		models.StatusAwaitingAudio,
		models.StatusProcessing,
		models.StatusAwaitingAudio,
		models.StatusProcessing,
		models.StatusFinished,
	}
	for _, to := range steps {
		if err := Transition(s, to); err != nil {
			t.Fatalf("transition to %s failed: %v", to, err)
		}
	}

	if err := Transition(s, models.StatusCancelled); !errors.Is(err, models.ErrStateConflict) {
		t.Errorf("cancel after finish: expected ErrStateConflict, got %v", err)
	}
}

func TestTransition_CancelFromAnyNonTerminal(t *testing.T) {
	for _, from := range []models.Status{models.StatusStarted, models.StatusAwaitingAudio, models.StatusProcessing} {
		s := newSession(t)
		s.Status = from
		if err := Transition(s, models.StatusCancelled); err != nil {
			t.Errorf("cancel from %s: unexpected error %v", from, err)
		}
	}
}

func TestRequire(t *testing.T) {
	s := newSession(t)

	if err := Require(s, models.StatusStarted); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := Require(s, models.StatusAwaitingAudio); !errors.Is(err, models.ErrStateConflict) {
		t.Errorf("expected ErrStateConflict, got %v", err)
	}
}

func TestAdvanceCycle_StopsAtLast(t *testing.T) {
	s := newSession(t)

	for i := 1; i <= s.TotalCycles; i++ {
		if err := AdvanceCycle(s); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
		if s.CurrentCycle != i {
			t.Errorf("expected cycle %d, got %d", i, s.CurrentCycle)
		}
	}

	if err := AdvanceCycle(s); !errors.Is(err, models.ErrStateConflict) {
		t.Errorf("expected ErrStateConflict past last cycle, got %v", err)
	}
	if s.CurrentCycle != s.TotalCycles {
		t.Errorf("cycle moved past total: %d", s.CurrentCycle)
	}
}
