package words

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"speech-training-service/internal/models"
)

// FallbackSupplier tries primary and, on any failure other than invalid
// input, serves the request from secondary.
type FallbackSupplier struct {
	primary   Supplier
	secondary Supplier
	name      string
}

// NewFallbackSupplier wraps primary with secondary. name labels primary in logs.
func NewFallbackSupplier(name string, primary, secondary Supplier) *FallbackSupplier {
	return &FallbackSupplier{primary: primary, secondary: secondary, name: name}
}

// Generate implements Supplier.
func (f *FallbackSupplier) Generate(ctx context.Context, age int, tag string, count int) ([]string, error) {
	words, err := f.primary.Generate(ctx, age, tag, count)
	if err == nil {
		return words, nil
	}
	if errors.Is(err, models.ErrValidation) {
		return nil, err
	}

	log.Warn().
		Err(err).
		Str("supplier", f.name).
		Str("difficulty", tag).
		Int("age", age).
		Msg("Word supplier failed, using fallback")

	return f.secondary.Generate(ctx, age, tag, count)
}
