// Package lifecycle provides the session status transition table and the
// monotonic message clock.
package lifecycle

import (
	"fmt"

	"speech-training-service/internal/models"
)

// Transition table:
//
//	STARTED ──→ AWAITING_AUDIO ──→ PROCESSING ──→ FINISHED
//	                   ↑                │
//	                   └────────────────┘  (next cycle, or revert on failure)
//
//	any non-terminal ──→ CANCELLED
//
// FINISHED and CANCELLED are terminal.
var transitions = map[models.Status][]models.Status{
	models.StatusStarted:       {models.StatusAwaitingAudio, models.StatusCancelled},
	models.StatusAwaitingAudio: {models.StatusProcessing, models.StatusCancelled},
	models.StatusProcessing:    {models.StatusAwaitingAudio, models.StatusFinished, models.StatusCancelled},
	models.StatusFinished:      nil,
	models.StatusCancelled:     nil,
}

// CanTransition reports whether from → to is a legal transition.
func CanTransition(from, to models.Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition moves the session to status to, or returns an error wrapping
// models.ErrStateConflict without touching the session.
func Transition(s *models.Session, to models.Status) error {
	if !CanTransition(s.Status, to) {
		return fmt.Errorf("%w: %s -> %s", models.ErrStateConflict, s.Status, to)
	}
	s.Status = to
	return nil
}

// Require returns an error wrapping models.ErrStateConflict unless the
// session is in the expected status.
func Require(s *models.Session, want models.Status) error {
	if s.Status != want {
		return fmt.Errorf("%w: session %s is %s, expected %s", models.ErrStateConflict, s.ID, s.Status, want)
	}
	return nil
}

// AdvanceCycle increments the current cycle. It refuses to move past the last
// cycle.
func AdvanceCycle(s *models.Session) error {
	if s.CurrentCycle >= s.TotalCycles {
		return fmt.Errorf("%w: session %s already at last cycle %d", models.ErrStateConflict, s.ID, s.CurrentCycle)
	}
	s.CurrentCycle++
	return nil
}
