// Package words supplies target words for training sessions.
package words

import (
	"context"
	"fmt"
	"strings"

	"speech-training-service/internal/models"
)

// Difficulty tags.
const (
	TagR     = "R"
	TagL     = "L"
	TagS     = "S"
	TagCH    = "CH"
	TagLH    = "LH"
	TagGeral = "GERAL"
)

var difficulties = []string{TagR, TagL, TagS, TagCH, TagLH, TagGeral}

// Supplier returns exactly count words for a learner of the given age and
// difficulty tag, or an error.
type Supplier interface {
	Generate(ctx context.Context, age int, tag string, count int) ([]string, error)
}

// ListDifficulties returns the supported difficulty tags.
func ListDifficulties() []string {
	return append([]string(nil), difficulties...)
}

// ParseDifficulty upper-cases tag and checks it is supported. Empty input
// maps to GERAL.
func ParseDifficulty(tag string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(tag))
	if t == "" {
		return TagGeral, nil
	}
	for _, d := range difficulties {
		if d == t {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown difficulty %q", models.ErrValidation, tag)
}

// Band names the age band used to pick vocabulary.
func Band(age int) string {
	switch {
	case age <= 6:
		return "infantil"
	case age <= 12:
		return "juvenil"
	default:
		return "adulto"
	}
}
