package schema

import (
	"errors"
	"testing"

	"speech-training-service/internal/models"
)

func base(t models.MessageType) models.Message {
	return models.Message{
		Type:         t,
		SessionID:    "s-1",
		CurrentCycle: 1,
		TotalCycles:  3,
		Text:         "text",
		Timestamp:    1700000000000,
	}
}

func TestValidator_Validate(t *testing.T) {
	words := base(models.MessageWords)
	words.Words = []string{"rato"}

	feedback := base(models.MessageCycleFeedback)
	feedback.CycleResult = &models.CycleResult{Total: 1, Words: []models.WordResult{{Expected: "rato"}}}

	summary := base(models.MessageFinalSummary)
	summary.Summary = &models.Summary{}
	summary.Terminal = true

	noSession := base(models.MessageGreeting)
	noSession.SessionID = ""

	noTimestamp := base(models.MessageGreeting)
	noTimestamp.Timestamp = 0

	badCycle := base(models.MessageInstruction)
	badCycle.CurrentCycle = 4

	nonTerminalSummary := summary
	nonTerminalSummary.Terminal = false

	shortResult := base(models.MessageCycleFeedback)
	shortResult.CycleResult = &models.CycleResult{Total: 3}

	tests := []struct {
		name  string
		msg   models.Message
		valid bool
	}{
		{"greeting", base(models.MessageGreeting), true},
		{"words", words, true},
		{"cycle feedback", feedback, true},
		{"final summary", summary, true},
		{"error", base(models.MessageError), true},
		{"missing session", noSession, false},
		{"missing timestamp", noTimestamp, false},
		{"cycle out of range", badCycle, false},
		{"words without list", base(models.MessageAwaitingAudio), false},
		{"feedback without result", base(models.MessageCycleFeedback), false},
		{"feedback with missing words", shortResult, false},
		{"summary not terminal", nonTerminalSummary, false},
		{"unknown type", base("SHOUT"), false},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.msg)
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}
