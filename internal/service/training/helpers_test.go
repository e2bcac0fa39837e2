package training

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"speech-training-service/internal/models"
)

func TestKeyedMutex_SerializesPerKey(t *testing.T) {
	k := newKeyedMutex()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("session-1")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("expected 50, got %d", counter)
	}
	if k.size() != 0 {
		t.Errorf("expected entries to be released, got %d", k.size())
	}
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	k := newKeyedMutex()
	unlockA := k.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		k.Lock("b")()
		close(done)
	}()
	<-done

	if k.size() != 1 {
		t.Errorf("expected only key a to be held, got %d entries", k.size())
	}
}

func TestLimits_CheckAudio(t *testing.T) {
	l := Limits{MaxAudioBytes: 8}

	tests := []struct {
		name   string
		audio  []byte
		reason string
	}{
		{"empty", nil, "empty"},
		{"too large", make([]byte, 9), "too_large"},
		{"at limit", make([]byte, 8), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, err := l.checkAudio(tt.audio)
			if reason != tt.reason {
				t.Errorf("expected reason %q, got %q", tt.reason, reason)
			}
			if (tt.reason != "") != errors.Is(err, models.ErrValidation) {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}

func TestTier(t *testing.T) {
	tests := []struct {
		score float64
		want  int
	}{
		{100, 0}, {90, 0}, {89.9, 1}, {70, 1}, {69, 2}, {50, 2}, {49.9, 3}, {0, 3},
	}
	for _, tt := range tests {
		if got := tier(tt.score); got != tt.want {
			t.Errorf("tier(%v) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func TestCycleFeedback_IncludesCounts(t *testing.T) {
	r := &models.CycleResult{Correct: 1, Total: 3, Score: 40}
	got := cycleFeedback(r)
	if !strings.HasPrefix(got, "Não desanime!") || !strings.Contains(got, "1 de 3") {
		t.Errorf("unexpected feedback %q", got)
	}
}

func TestStrengthsAndImprovements(t *testing.T) {
	strengths, improvements := strengthsAndImprovements(95, "R")
	if len(improvements) != 0 {
		t.Errorf("expected no improvements for a top score, got %v", improvements)
	}
	if strengths[1] != "Boa pronúncia de fonema R" {
		t.Errorf("unexpected strength %q", strengths[1])
	}

	strengths, improvements = strengthsAndImprovements(10, "GERAL")
	if len(strengths) != 0 || len(improvements) != 2 {
		t.Errorf("unexpected lists %v / %v", strengths, improvements)
	}
	if improvements[0] != "Foque na articulação de pronúncia geral" {
		t.Errorf("unexpected improvement %q", improvements[0])
	}
}

func TestOverallFeedback_NamesFocus(t *testing.T) {
	if got := overallFeedback(75, "LH"); !strings.Contains(got, "o fonema LH") {
		t.Errorf("expected the phoneme to be named, got %q", got)
	}
}

func TestInstructionText(t *testing.T) {
	s := &models.Session{TotalCycles: 3, WordsPerCycle: 3}
	if got := instructionText(s, 1); !strings.Contains(got, "3 palavras") {
		t.Errorf("unexpected first instruction %q", got)
	}
	if got := instructionText(s, 2); got != cycleInstructions[1] {
		t.Errorf("unexpected middle instruction %q", got)
	}
	if got := instructionText(s, 3); got != cycleInstructions[2] {
		t.Errorf("unexpected last instruction %q", got)
	}
}
