package scoring

import (
	"fmt"

	"speech-training-service/internal/models"
)

const (
	// DefaultThreshold is the minimum similarity for a transcribed token to
	// count as a correct match, and to be consumed.
	DefaultThreshold = 0.6

	// NotDetected is reported as the transcribed token when no token scored
	// above zero for an expected word.
	NotDetected = "(não detectada)"
)

// Alignment is the outcome of aligning one transcript against a word list.
type Alignment struct {
	Words   []models.WordResult
	Correct int
	// Score is the mean best similarity across expected words, 0-100.
	Score float64
}

// Option configures an Aligner.
type Option func(*Aligner)

// WithThreshold overrides the match threshold. Default: 0.6.
func WithThreshold(threshold float64) Option {
	return func(a *Aligner) {
		a.threshold = threshold
	}
}

// Aligner matches transcribed tokens to expected words. It is read-only after
// construction and safe for concurrent use.
type Aligner struct {
	threshold float64
}

// NewAligner returns an Aligner configured with the supplied options.
func NewAligner(opts ...Option) *Aligner {
	a := &Aligner{threshold: DefaultThreshold}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Threshold returns the configured match threshold.
func (a *Aligner) Threshold() float64 {
	return a.threshold
}

// Align scores expected against the tokens of transcript.
//
// Expected words are processed in order and each takes the best scoring token
// still unused; on ties the earliest token wins. A token is consumed only when
// its score reaches the threshold, and the same test decides correctness.
// The assignment is greedy, not a globally optimal matching: an earlier
// expected word can claim a token a later word would have scored higher on.
func (a *Aligner) Align(expected []string, transcript string) Alignment {
	tokens := Tokenize(transcript)
	used := make([]bool, len(tokens))

	out := Alignment{Words: make([]models.WordResult, 0, len(expected))}
	var sum float64

	for _, word := range expected {
		target := Normalize(word)

		best, bestIdx := 0.0, -1
		for i, tok := range tokens {
			if used[i] {
				continue
			}
			if s := Similarity(target, tok); s > best {
				best, bestIdx = s, i
			}
		}

		correct := best >= a.threshold
		if correct && bestIdx >= 0 {
			used[bestIdx] = true
		}

		heard := NotDetected
		if bestIdx >= 0 {
			heard = tokens[bestIdx]
		}

		pct := best * 100
		out.Words = append(out.Words, models.WordResult{
			Expected:    word,
			Transcribed: heard,
			Correct:     correct,
			Similarity:  pct,
			Feedback:    WordFeedback(pct, heard),
		})
		if correct {
			out.Correct++
		}
		sum += best
	}

	if len(expected) > 0 {
		out.Score = sum / float64(len(expected)) * 100
	}
	return out
}

// WordFeedback returns the learner-facing verdict for one word scored 0-100.
func WordFeedback(score float64, heard string) string {
	switch {
	case score >= 90:
		return "Perfeito!"
	case score >= 60:
		return "Muito bom!"
	default:
		return fmt.Sprintf("Tente falar mais devagar (ouvi: '%s')", heard)
	}
}
