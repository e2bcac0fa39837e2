// Package schema checks outbound messages against the message contract
// before they leave the process.
package schema

import (
	"errors"
	"fmt"

	"speech-training-service/internal/models"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("schema violation")

// Validator checks messages against the per-type payload rules.
type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// Validate returns an error wrapping ErrInvalid when msg breaks the contract:
// a known type, a session id, a timestamp, a cycle within range and the
// payload its type requires.
func (v *Validator) Validate(msg models.Message) error {
	if msg.SessionID == "" {
		return invalid(msg, "missing sessionId")
	}
	if msg.Timestamp <= 0 {
		return invalid(msg, "missing timestamp")
	}
	if msg.CurrentCycle < 0 || msg.CurrentCycle > msg.TotalCycles {
		return invalid(msg, fmt.Sprintf("cycle %d outside 0..%d", msg.CurrentCycle, msg.TotalCycles))
	}

	switch msg.Type {
	case models.MessageGreeting, models.MessageInstruction:
		if msg.Text == "" {
			return invalid(msg, "missing text")
		}
	case models.MessageWords, models.MessageAwaitingAudio:
		if len(msg.Words) == 0 {
			return invalid(msg, "missing words")
		}
	case models.MessageCycleFeedback:
		if msg.CycleResult == nil {
			return invalid(msg, "missing cycleResult")
		}
		if len(msg.CycleResult.Words) != msg.CycleResult.Total {
			return invalid(msg, "cycleResult words do not match total")
		}
	case models.MessageFinalSummary:
		if msg.Summary == nil {
			return invalid(msg, "missing summary")
		}
		if !msg.Terminal {
			return invalid(msg, "final summary must be terminal")
		}
	case models.MessageError:
		if msg.Text == "" {
			return invalid(msg, "missing text")
		}
	default:
		return invalid(msg, fmt.Sprintf("unknown type %q", msg.Type))
	}
	return nil
}

func invalid(msg models.Message, reason string) error {
	return fmt.Errorf("%w: %s message for session %s: %s", ErrInvalid, msg.Type, msg.SessionID, reason)
}
