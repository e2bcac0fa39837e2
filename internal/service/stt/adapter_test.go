package stt

import (
	"context"
	"errors"
	"testing"

	"speech-training-service/internal/models"
)

func TestWrap(t *testing.T) {
	if Wrap("google", nil) != nil {
		t.Error("Wrap(nil) should be nil")
	}

	err := Wrap("google", context.DeadlineExceeded)
	if !errors.Is(err, models.ErrExternalService) {
		t.Errorf("expected ErrExternalService, got %v", err)
	}

	again := Wrap("deepgram", err)
	if !errors.Is(again, models.ErrExternalService) {
		t.Errorf("expected ErrExternalService after rewrap, got %v", again)
	}
}

func TestWrap_KeepsCause(t *testing.T) {
	err := Wrap("google", context.DeadlineExceeded)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected cause to be preserved, got %v", err)
	}
}
