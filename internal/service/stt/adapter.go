// Package stt defines the interface for Speech-to-Text adapters.
package stt

import (
	"context"
	"errors"
	"fmt"

	"speech-training-service/internal/models"
)

// Adapter defines the interface for STT providers (Google, Deepgram, mock).
type Adapter interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Transcribe converts one recorded utterance into plain text. Hints are
	// optional words the provider may boost; an empty list is valid.
	// Failures wrap models.ErrExternalService.
	Transcribe(ctx context.Context, audio []byte, hints []string) (string, error)
}

// Wrap marks err as an external service failure of the named provider.
// Errors already carrying models.ErrExternalService are only annotated.
func Wrap(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, models.ErrExternalService) {
		return fmt.Errorf("%s: %w", provider, err)
	}
	return fmt.Errorf("%w: %s: %w", models.ErrExternalService, provider, err)
}
