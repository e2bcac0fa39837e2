package training

import (
	"fmt"
	"time"

	"speech-training-service/internal/models"
)

// Limits bounds the work a single submission may cause.
type Limits struct {
	MaxAudioBytes        int64         // Max audio accepted per submission
	TranscriptionTimeout time.Duration // Deadline for one provider call
}

// DefaultLimits returns sensible default limits.
func DefaultLimits() Limits {
	return Limits{
		MaxAudioBytes:        10 * 1024 * 1024, // 10MB (~5 minutes at 16kHz 16-bit mono)
		TranscriptionTimeout: 30 * time.Second,
	}
}

// checkAudio rejects empty and oversized audio.
func (l Limits) checkAudio(audio []byte) (reason string, err error) {
	if len(audio) == 0 {
		return "empty", fmt.Errorf("%w: audio is empty", models.ErrValidation)
	}
	if l.MaxAudioBytes > 0 && int64(len(audio)) > l.MaxAudioBytes {
		return "too_large", fmt.Errorf("%w: audio is %d bytes, limit is %d",
			models.ErrValidation, len(audio), l.MaxAudioBytes)
	}
	return "", nil
}
