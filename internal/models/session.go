// Package models defines the training session aggregate and the messages
// emitted to the presentation layer.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Fixed session shape.
const (
	DefaultTotalCycles   = 3
	DefaultWordsPerCycle = 3
	DefaultDifficulty    = "GERAL"
)

// Transcript speakers.
const (
	SpeakerSystem = "SISTEMA"
	SpeakerClient = "CLIENTE"
)

// Status is the lifecycle status of a training session.
type Status int

const (
	// StatusStarted - session created, no cycle issued yet (cycle 0).
	StatusStarted Status = iota
	// StatusAwaitingAudio - a cycle's words were issued, waiting for audio.
	StatusAwaitingAudio
	// StatusProcessing - audio submission in flight.
	StatusProcessing
	// StatusFinished - all cycles completed. Terminal.
	StatusFinished
	// StatusCancelled - explicitly cancelled. Terminal.
	StatusCancelled
)

var statusNames = map[Status]string{
	StatusStarted:       "STARTED",
	StatusAwaitingAudio: "AWAITING_AUDIO",
	StatusProcessing:    "PROCESSING",
	StatusFinished:      "FINISHED",
	StatusCancelled:     "CANCELLED",
}

// String returns the string representation of the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(s))
}

// IsTerminal returns true if the status is terminal (FINISHED or CANCELLED).
func (s Status) IsTerminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	if _, ok := statusNames[s]; !ok {
		return nil, fmt.Errorf("unknown status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(text []byte) error {
	st, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ParseStatus parses a status name.
func ParseStatus(name string) (Status, error) {
	for st, n := range statusNames {
		if n == name {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", name)
}

// WordResult is the verdict for one expected word.
type WordResult struct {
	Expected    string  `json:"expected"`
	Transcribed string  `json:"transcribed"`
	Correct     bool    `json:"correct"`
	Similarity  float64 `json:"similarity"`
	Feedback    string  `json:"feedback"`
}

// CycleResult is the aggregate outcome of one completed cycle.
type CycleResult struct {
	Cycle    int          `json:"cycle"`
	Total    int          `json:"total"`
	Correct  int          `json:"correct"`
	Score    float64      `json:"score"`
	Feedback string       `json:"feedback"`
	Words    []WordResult `json:"words"`
}

// Cycle is one fixed slot of a session: its word list and, once completed,
// its result.
type Cycle struct {
	Index  int          `json:"index"`
	Words  []string     `json:"words"`
	Result *CycleResult `json:"result,omitempty"`
}

// Summary is produced once, at finalization.
type Summary struct {
	TotalWords      int      `json:"totalWords"`
	TotalCorrect    int      `json:"totalCorrect"`
	OverallScore    float64  `json:"overallScore"`
	Feedback        string   `json:"feedback"`
	Strengths       []string `json:"strengths"`
	Improvements    []string `json:"improvements"`
	DurationMinutes int      `json:"durationMinutes"`
}

// TranscriptEntry is one line of the append-only conversation log.
type TranscriptEntry struct {
	Speaker string    `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// Session is the aggregate root of the training workflow.
type Session struct {
	ID           string `json:"id"`
	ClientID     string `json:"clientId"`
	SpecialistID string `json:"specialistId"`

	Difficulty    string `json:"difficulty"`
	Age           int    `json:"age"`
	TotalCycles   int    `json:"totalCycles"`
	WordsPerCycle int    `json:"wordsPerCycle"`

	Status         Status            `json:"status"`
	CurrentCycle   int               `json:"currentCycle"`
	Cycles         []Cycle           `json:"cycles"`
	TotalAttempted int               `json:"totalAttempted"`
	TotalCorrect   int               `json:"totalCorrect"`
	OverallScore   float64           `json:"overallScore"`
	Summary        *Summary          `json:"summary,omitempty"`
	Transcript     []TranscriptEntry `json:"transcript"`

	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`

	// Version is bumped by the store on every successful save.
	Version int64 `json:"version"`
}

// NewSession builds a session in STARTED status with its word lists
// partitioned, in order, into TotalCycles slots of WordsPerCycle words.
func NewSession(id, clientID, specialistID, difficulty string, age int, words []string, now time.Time) (*Session, error) {
	need := DefaultTotalCycles * DefaultWordsPerCycle
	if len(words) != need {
		return nil, fmt.Errorf("%w: expected %d words, got %d", ErrValidation, need, len(words))
	}

	cycles := make([]Cycle, DefaultTotalCycles)
	for i := range cycles {
		start := i * DefaultWordsPerCycle
		list := make([]string, DefaultWordsPerCycle)
		copy(list, words[start:start+DefaultWordsPerCycle])
		cycles[i] = Cycle{Index: i + 1, Words: list}
	}

	return &Session{
		ID:            id,
		ClientID:      clientID,
		SpecialistID:  specialistID,
		Difficulty:    difficulty,
		Age:           age,
		TotalCycles:   DefaultTotalCycles,
		WordsPerCycle: DefaultWordsPerCycle,
		Status:        StatusStarted,
		Cycles:        cycles,
		Transcript:    []TranscriptEntry{},
		StartedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// CycleWords returns the word list for cycle n (1-based), or nil when n is
// outside 1..TotalCycles.
func (s *Session) CycleWords(n int) []string {
	if n < 1 || n > len(s.Cycles) {
		return nil
	}
	out := make([]string, len(s.Cycles[n-1].Words))
	copy(out, s.Cycles[n-1].Words)
	return out
}

// CurrentWords returns the word list of the current cycle.
func (s *Session) CurrentWords() []string {
	return s.CycleWords(s.CurrentCycle)
}

// IsLastCycle reports whether the current cycle is the final one.
func (s *Session) IsLastCycle() bool {
	return s.CurrentCycle >= s.TotalCycles
}

// Append adds an entry to the transcript log.
func (s *Session) Append(speaker, text string, at time.Time) {
	s.Transcript = append(s.Transcript, TranscriptEntry{Speaker: speaker, Text: text, At: at})
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	data, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("models: clone session %s: %v", s.ID, err))
	}
	var out Session
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("models: clone session %s: %v", s.ID, err))
	}
	return &out
}

// CheckInvariants verifies the structural invariants of the aggregate.
func (s *Session) CheckInvariants() error {
	if s.CurrentCycle < 0 || s.CurrentCycle > s.TotalCycles {
		return fmt.Errorf("current cycle %d outside 0..%d", s.CurrentCycle, s.TotalCycles)
	}
	if len(s.Cycles) != s.TotalCycles {
		return fmt.Errorf("expected %d cycles, got %d", s.TotalCycles, len(s.Cycles))
	}
	attempted, correct := 0, 0
	for _, c := range s.Cycles {
		if len(c.Words) != s.WordsPerCycle {
			return fmt.Errorf("cycle %d has %d words, want %d", c.Index, len(c.Words), s.WordsPerCycle)
		}
		if c.Result != nil {
			attempted += c.Result.Total
			correct += c.Result.Correct
		}
	}
	if attempted != s.TotalAttempted || correct != s.TotalCorrect {
		return fmt.Errorf("totals %d/%d do not match cycle results %d/%d",
			s.TotalCorrect, s.TotalAttempted, correct, attempted)
	}
	return nil
}
