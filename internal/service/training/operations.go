package training

import (
	"context"
	"fmt"
	"strings"
	"time"

	"speech-training-service/internal/models"
	"speech-training-service/internal/observability/logging"
	"speech-training-service/internal/service/lifecycle"
)

const textReconciled = "Processamento interrompido. Envie o áudio novamente."

// Get returns a copy of the persisted session.
func (svc *Service) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	return svc.store.FindByID(ctx, sessionID)
}

// Resume rebuilds the message set for where the session currently is. It
// never mutates the session.
func (svc *Service) Resume(ctx context.Context, sessionID string) (*Outcome, error) {
	s, err := svc.store.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &Outcome{SessionID: s.ID, Status: s.Status, Messages: svc.resumeMessages(s)}, nil
}

func (svc *Service) resumeMessages(s *models.Session) []models.Message {
	b := svc.messages(s)
	switch s.Status {
	case models.StatusAwaitingAudio:
		b.instruction(textResume)
		b.words()
		b.awaitingAudio()
	case models.StatusProcessing:
		b.instruction(textStillWorking)
		b.words()
	case models.StatusFinished:
		if s.Summary != nil {
			b.finalSummary()
		} else {
			b.instruction(fmt.Sprintf("Sessão finalizada! Pontuação: %.0f%%", s.OverallScore))
		}
	case models.StatusCancelled:
		b.instruction(textCancelled)
	default:
		b.instruction("Status: " + s.Status.String())
	}
	return b.list()
}

// State returns a single snapshot message for the session. It never mutates
// the session.
func (svc *Service) State(ctx context.Context, sessionID string) (models.Message, error) {
	s, err := svc.store.FindByID(ctx, sessionID)
	if err != nil {
		return models.Message{}, err
	}

	b := svc.messages(s)
	switch s.Status {
	case models.StatusAwaitingAudio:
		b.awaitingAudio()
	case models.StatusFinished:
		m := b.add(models.MessageFinalSummary, fmt.Sprintf("Sessão finalizada! Pontuação: %.0f%%", s.OverallScore))
		m.Summary = s.Summary
	default:
		b.instruction("Status: " + s.Status.String())
	}
	return b.list()[0], nil
}

// Cancel moves a non-terminal session to CANCELLED and returns the closing
// message. An in-flight submission on the same session will find the session
// changed and discard its result.
func (svc *Service) Cancel(ctx context.Context, sessionID string) (models.Message, error) {
	unlock := svc.sessionLocks.Lock(sessionID)
	defer unlock()

	s, err := svc.store.FindByID(ctx, sessionID)
	if err != nil {
		return models.Message{}, err
	}
	from := s.Status
	if err := lifecycle.Transition(s, models.StatusCancelled); err != nil {
		return models.Message{}, err
	}
	end := svc.clock.Now()
	s.EndedAt = &end
	s.Append(models.SpeakerSystem, textCancelledLog, end)

	if err := svc.save(ctx, s); err != nil {
		return models.Message{}, fmt.Errorf("save session: %w", err)
	}
	svc.metrics.RecordSessionCancelled()

	l := logging.WithClient(s.ClientID, s.ID)
	l.Info().
		Str("from", from.String()).
		Int("cycle", s.CurrentCycle).
		Msg("Training session cancelled")

	b := svc.messages(s)
	b.instruction(textCancelled)
	msgs := b.list()
	svc.publish(ctx, s, msgs, nil)
	return msgs[0], nil
}

// Reconcile recovers sessions left mid-operation by a crash. PROCESSING
// sessions not updated for olderThan go back to AWAITING_AUDIO with cycle
// and totals unchanged; STARTED sessions that never got their first cycle
// are advanced to it. olderThan should exceed the transcription timeout so a
// live submission is not reverted under its feet. Returns the number of
// sessions recovered.
func (svc *Service) Reconcile(ctx context.Context, olderThan time.Duration) (int, error) {
	l := logging.WithComponent("reconciler")
	cutoff := svc.clock.Now().Add(-olderThan)

	recovered := 0
	for _, status := range []models.Status{models.StatusProcessing, models.StatusStarted} {
		stale, err := svc.store.FindByStatus(ctx, status)
		if err != nil {
			return recovered, fmt.Errorf("find %s sessions: %w", status, err)
		}
		for _, s := range stale {
			if !s.UpdatedAt.Before(cutoff) {
				continue
			}
			ok, err := svc.recoverSession(ctx, s.ID, status, cutoff)
			if err != nil {
				l.Warn().Err(err).Str("sessionId", s.ID).Msg("Failed to recover stale session")
				continue
			}
			if ok {
				recovered++
			}
		}
	}

	if recovered > 0 {
		l.Info().Int("recovered", recovered).Dur("olderThan", olderThan).Msg("Recovered stale sessions")
	}
	return recovered, nil
}

func (svc *Service) recoverSession(ctx context.Context, sessionID string, status models.Status, cutoff time.Time) (bool, error) {
	unlock := svc.sessionLocks.Lock(sessionID)
	defer unlock()

	s, err := svc.store.FindByID(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if s.Status != status || !s.UpdatedAt.Before(cutoff) {
		return false, nil
	}

	now := svc.clock.Now()
	switch status {
	case models.StatusProcessing:
		if err := lifecycle.Transition(s, models.StatusAwaitingAudio); err != nil {
			return false, err
		}
		s.Append(models.SpeakerSystem, textReconciled, now)
	case models.StatusStarted:
		if err := lifecycle.AdvanceCycle(s); err != nil {
			return false, err
		}
		if err := lifecycle.Transition(s, models.StatusAwaitingAudio); err != nil {
			return false, err
		}
		s.Append(models.SpeakerSystem, instructionText(s, s.CurrentCycle), now)
		s.Append(models.SpeakerSystem, wordsLogText(s.CurrentWords()), now)
	}

	if err := svc.save(ctx, s); err != nil {
		return false, fmt.Errorf("save session: %w", err)
	}
	svc.metrics.RecordSessionReverted("stale_" + strings.ToLower(status.String()))
	l := logging.WithSession(s.ID)
	l.Info().
		Str("from", status.String()).
		Int("cycle", s.CurrentCycle).
		Msg("Stale session moved to AWAITING_AUDIO")
	return true, nil
}

// Analysis is the verdict for a single spoken word.
type Analysis struct {
	Word       models.WordResult `json:"word"`
	Transcript string            `json:"transcript"`
	Provider   string            `json:"provider"`
}

// Analyze scores one recorded word outside of any session, with the same
// threshold and feedback as a cycle. Provider failures are returned as
// models.ErrExternalService.
func (svc *Service) Analyze(ctx context.Context, expectedWord string, audio []byte) (*Analysis, error) {
	word := strings.TrimSpace(expectedWord)
	if word == "" {
		return nil, fmt.Errorf("%w: expected word is required", models.ErrValidation)
	}
	if reason, err := svc.limits.checkAudio(audio); err != nil {
		svc.metrics.RecordAudioRejected(reason)
		return nil, err
	}

	transcript, err := svc.transcribe(ctx, audio, []string{word})
	if err != nil {
		return nil, err
	}
	a := svc.aligner.Align([]string{word}, transcript)

	l := logging.WithComponent("analyzer")
	l.Debug().
		Str("expected", word).
		Str("transcript", transcript).
		Float64("similarity", a.Words[0].Similarity).
		Msg("Word analyzed")

	return &Analysis{Word: a.Words[0], Transcript: transcript, Provider: svc.stt.Name()}, nil
}
