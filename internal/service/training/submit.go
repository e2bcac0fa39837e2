package training

import (
	"context"
	"errors"
	"fmt"
	"time"

	"speech-training-service/internal/models"
	"speech-training-service/internal/observability/logging"
	"speech-training-service/internal/observability/metrics"
	"speech-training-service/internal/service/lifecycle"
)

// SubmitAudio scores one recorded attempt at the current cycle's words.
//
// A session not in AWAITING_AUDIO yields models.ErrStateConflict and is left
// untouched, as is a session given empty or oversized audio
// (models.ErrValidation). A transcription failure reverts the session to
// AWAITING_AUDIO with cycle and totals unchanged and returns a single ERROR
// message, so the caller can retry the same cycle.
func (svc *Service) SubmitAudio(ctx context.Context, sessionID string, audio []byte) (*Outcome, error) {
	s, expected, err := svc.beginProcessing(ctx, sessionID, audio)
	if err != nil {
		return nil, err
	}

	l := logging.WithProvider(s.ID, svc.stt.Name())
	hints := s.CurrentWords()
	cycle := s.CurrentCycle

	transcript, terr := svc.transcribe(ctx, audio, hints)
	if terr != nil {
		l.Warn().Err(terr).Int("cycle", cycle).Msg("Transcription failed, reverting to AWAITING_AUDIO")
		return svc.failProcessing(ctx, sessionID, expected, terr)
	}

	l.Debug().Int("cycle", cycle).Str("transcript", transcript).Msg("Transcript received")

	out, err := svc.completeCycle(ctx, sessionID, expected, transcript)
	if err != nil {
		if !errors.Is(err, models.ErrStateConflict) {
			svc.revertProcessing(ctx, sessionID, expected, "persist")
		}
		return nil, err
	}
	return out, nil
}

// beginProcessing moves the session to PROCESSING and returns it together
// with the version the second phase must find.
func (svc *Service) beginProcessing(ctx context.Context, sessionID string, audio []byte) (*models.Session, int64, error) {
	unlock := svc.sessionLocks.Lock(sessionID)
	defer unlock()

	s, err := svc.store.FindByID(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	if err := lifecycle.Require(s, models.StatusAwaitingAudio); err != nil {
		return nil, 0, err
	}
	if reason, err := svc.limits.checkAudio(audio); err != nil {
		svc.metrics.RecordAudioRejected(reason)
		return nil, 0, err
	}

	if err := lifecycle.Transition(s, models.StatusProcessing); err != nil {
		return nil, 0, err
	}
	s.Append(models.SpeakerClient, textAudioReceived, svc.clock.Now())
	if err := svc.save(ctx, s); err != nil {
		if errors.Is(err, models.ErrVersionConflict) {
			return nil, 0, fmt.Errorf("%w: %w", models.ErrStateConflict, err)
		}
		return nil, 0, fmt.Errorf("save session: %w", err)
	}
	svc.metrics.RecordAudioReceived(len(audio))
	return s, s.Version, nil
}

func (svc *Service) transcribe(ctx context.Context, audio []byte, hints []string) (string, error) {
	if svc.limits.TranscriptionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, svc.limits.TranscriptionTimeout)
		defer cancel()
	}

	start := time.Now()
	text, err := svc.stt.Transcribe(ctx, audio, hints)
	svc.metrics.RecordSTT(svc.stt.Name(), time.Since(start).Seconds())
	if err != nil {
		kind := "provider"
		if errors.Is(err, context.DeadlineExceeded) {
			kind = "timeout"
		}
		svc.metrics.RecordSTTError(svc.stt.Name(), kind)
		if !errors.Is(err, models.ErrExternalService) {
			err = fmt.Errorf("%w: %s: %w", models.ErrExternalService, svc.stt.Name(), err)
		}
		return "", err
	}
	return text, nil
}

// failProcessing reverts a session after a provider failure and builds the
// ERROR reply.
func (svc *Service) failProcessing(ctx context.Context, sessionID string, expected int64, cause error) (*Outcome, error) {
	unlock := svc.sessionLocks.Lock(sessionID)
	defer unlock()

	s, err := svc.loadProcessing(ctx, sessionID, expected)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Transition(s, models.StatusAwaitingAudio); err != nil {
		return nil, err
	}
	text := "Erro ao processar áudio. Por favor, tente enviar novamente."
	s.Append(models.SpeakerSystem, text, svc.clock.Now())
	if err := svc.save(ctx, s); err != nil {
		return nil, fmt.Errorf("revert session after transcription failure: %w", err)
	}
	svc.metrics.RecordSessionReverted("transcription")

	b := svc.messages(s)
	b.errorMessage(text, cause)
	msgs := b.list()
	svc.publish(ctx, s, msgs, nil)
	return &Outcome{SessionID: s.ID, Status: s.Status, Messages: msgs}, nil
}

// completeCycle applies the transcript to the session: it scores the cycle,
// updates totals and either issues the next cycle or finalizes.
func (svc *Service) completeCycle(ctx context.Context, sessionID string, expected int64, transcript string) (*Outcome, error) {
	unlock := svc.sessionLocks.Lock(sessionID)
	defer unlock()

	s, err := svc.loadProcessing(ctx, sessionID, expected)
	if err != nil {
		return nil, err
	}
	l := logging.WithClient(s.ClientID, s.ID)

	result := svc.scoreCycle(s, transcript)
	s.Cycles[s.CurrentCycle-1].Result = result
	s.TotalAttempted += result.Total
	s.TotalCorrect += result.Correct

	now := svc.clock.Now()
	b := svc.messages(s)
	b.cycleFeedback(result)
	s.Append(models.SpeakerSystem, result.Feedback, now)

	if s.IsLastCycle() {
		if err := svc.finalize(s, b); err != nil {
			return nil, err
		}
	} else {
		if err := lifecycle.Transition(s, models.StatusAwaitingAudio); err != nil {
			return nil, err
		}
		if err := lifecycle.AdvanceCycle(s); err != nil {
			return nil, err
		}
		b.instruction(textNextRound)
		b.issueCycle()
		s.Append(models.SpeakerSystem, instructionText(s, s.CurrentCycle), now)
		s.Append(models.SpeakerSystem, wordsLogText(s.CurrentWords()), now)
	}

	if err := svc.save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	svc.recordCycle(result)
	if s.Status == models.StatusFinished {
		svc.metrics.RecordSessionFinished(s.EndedAt.Sub(s.StartedAt).Seconds())
	}

	l.Info().
		Int("cycle", result.Cycle).
		Int("correct", result.Correct).
		Int("total", result.Total).
		Float64("score", result.Score).
		Str("status", s.Status.String()).
		Msg("Cycle scored")

	msgs := b.list()
	svc.publish(ctx, s, msgs, result)
	return &Outcome{SessionID: s.ID, Status: s.Status, Messages: msgs}, nil
}

func (svc *Service) scoreCycle(s *models.Session, transcript string) *models.CycleResult {
	expected := s.CurrentWords()
	a := svc.aligner.Align(expected, transcript)
	r := &models.CycleResult{
		Cycle:   s.CurrentCycle,
		Total:   len(expected),
		Correct: a.Correct,
		Score:   a.Score,
		Words:   a.Words,
	}
	r.Feedback = cycleFeedback(r)
	return r
}

// finalize closes a session whose last cycle was just scored.
func (svc *Service) finalize(s *models.Session, b *messageBuilder) error {
	if err := lifecycle.Transition(s, models.StatusFinished); err != nil {
		return err
	}
	end := svc.clock.Now()
	s.EndedAt = &end

	if s.TotalAttempted > 0 {
		s.OverallScore = float64(s.TotalCorrect) / float64(s.TotalAttempted) * 100
	}
	strengths, improvements := strengthsAndImprovements(s.OverallScore, s.Difficulty)
	s.Summary = &models.Summary{
		TotalWords:      s.TotalAttempted,
		TotalCorrect:    s.TotalCorrect,
		OverallScore:    s.OverallScore,
		Feedback:        overallFeedback(s.OverallScore, s.Difficulty),
		Strengths:       strengths,
		Improvements:    improvements,
		DurationMinutes: int(end.Sub(s.StartedAt).Minutes()),
	}

	b.finalSummary()
	s.Append(models.SpeakerSystem, finalText(s.Summary), end)
	return nil
}

// loadProcessing reloads a session for the second phase of a submission and
// checks nothing else touched it since the first phase.
func (svc *Service) loadProcessing(ctx context.Context, sessionID string, expected int64) (*models.Session, error) {
	s, err := svc.store.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Status != models.StatusProcessing || s.Version != expected {
		return nil, fmt.Errorf("%w: session %s changed while processing audio (now %s)",
			models.ErrStateConflict, sessionID, s.Status)
	}
	return s, nil
}

// revertProcessing is the best-effort return of a PROCESSING session to
// AWAITING_AUDIO after an unexpected failure.
func (svc *Service) revertProcessing(ctx context.Context, sessionID string, expected int64, reason string) {
	unlock := svc.sessionLocks.Lock(sessionID)
	defer unlock()

	l := logging.WithSession(sessionID)
	s, err := svc.loadProcessing(ctx, sessionID, expected)
	if err != nil {
		l.Warn().Err(err).Msg("Skipping revert of session")
		return
	}
	if err := lifecycle.Transition(s, models.StatusAwaitingAudio); err != nil {
		return
	}
	if err := svc.save(ctx, s); err != nil {
		l.Error().Err(err).Msg("Failed to revert session to AWAITING_AUDIO")
		return
	}
	svc.metrics.RecordSessionReverted(reason)
	l.Warn().Str("reason", reason).Msg("Session reverted to AWAITING_AUDIO")
}

func (svc *Service) recordCycle(r *models.CycleResult) {
	outcomes := make([]metrics.WordOutcome, len(r.Words))
	for i, w := range r.Words {
		outcomes[i] = metrics.WordOutcome{Correct: w.Correct, Similarity: w.Similarity}
	}
	svc.metrics.RecordCycle(r.Score, outcomes)
}
