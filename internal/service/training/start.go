package training

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"speech-training-service/internal/models"
	"speech-training-service/internal/observability/logging"
	"speech-training-service/internal/service/lifecycle"
	"speech-training-service/internal/service/words"
)

// Age bounds accepted at start.
const (
	MinAge = 1
	MaxAge = 120
)

// StartRequest configures a new session. Empty Difficulty means GERAL; zero
// Age means the client's registered age.
type StartRequest struct {
	ClientID     string
	SpecialistID string
	Difficulty   string
	Age          int
}

// Outcome is the result of an operation that emits messages.
type Outcome struct {
	SessionID string
	Status    models.Status
	// Resumed is set when Start returned an existing active session.
	Resumed  bool
	Messages []models.Message
}

// Start creates a session for the client, or returns the state of the
// client's existing active session.
func (svc *Service) Start(ctx context.Context, req StartRequest) (*Outcome, error) {
	clientID := strings.TrimSpace(req.ClientID)
	specialistID := strings.TrimSpace(req.SpecialistID)
	if clientID == "" {
		return nil, fmt.Errorf("%w: clientId is required", models.ErrValidation)
	}
	if specialistID == "" {
		return nil, fmt.Errorf("%w: specialistId is required", models.ErrValidation)
	}
	difficulty, err := words.ParseDifficulty(req.Difficulty)
	if err != nil {
		return nil, err
	}

	client, err := svc.directory.Client(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if _, err := svc.directory.Specialist(ctx, specialistID); err != nil {
		return nil, err
	}

	age := req.Age
	if age == 0 {
		age = client.Age
	}
	if age < MinAge || age > MaxAge {
		return nil, fmt.Errorf("%w: age must be between %d and %d, got %d", models.ErrValidation, MinAge, MaxAge, age)
	}

	unlock := svc.clientLocks.Lock(clientID)
	defer unlock()

	if out, ok, err := svc.resumeActive(ctx, clientID); err != nil || ok {
		return out, err
	}

	need := models.DefaultTotalCycles * models.DefaultWordsPerCycle
	list, err := svc.supplier.Generate(ctx, age, difficulty, need)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: word supplier: %w", models.ErrExternalService, err)
	}

	s, err := models.NewSession(svc.newID(), clientID, specialistID, difficulty, age, list, svc.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: word supplier: %w", models.ErrExternalService, err)
	}

	l := logging.WithClient(clientID, s.ID)

	err = svc.store.Create(ctx, s)
	if errors.Is(err, models.ErrActiveSessionExists) {
		// Another process won the race for this client.
		if out, ok, rerr := svc.resumeActive(ctx, clientID); rerr != nil || ok {
			return out, rerr
		}
		// Its session ended before it could be resumed, so the client is free.
		err = svc.store.Create(ctx, s)
	}
	if err != nil {
		if errors.Is(err, models.ErrActiveSessionExists) {
			return nil, fmt.Errorf("%w: %w", models.ErrStateConflict, err)
		}
		return nil, fmt.Errorf("create session: %w", err)
	}
	svc.metrics.RecordSessionStarted()

	if err := lifecycle.AdvanceCycle(s); err != nil {
		return nil, err
	}
	if err := lifecycle.Transition(s, models.StatusAwaitingAudio); err != nil {
		return nil, err
	}

	b := svc.messages(s)
	b.greeting(client.Name)
	b.issueCycle()
	msgs := b.list()

	now := svc.clock.Now()
	s.Append(models.SpeakerSystem, msgs[0].Text, now)
	s.Append(models.SpeakerSystem, msgs[1].Text, now)
	s.Append(models.SpeakerSystem, wordsLogText(s.CurrentWords()), now)

	if err := svc.save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	l.Info().
		Str("difficulty", difficulty).
		Int("age", age).
		Strs("words", list).
		Msg("Training session started")

	svc.publish(ctx, s, msgs, nil)
	return &Outcome{SessionID: s.ID, Status: s.Status, Messages: msgs}, nil
}

// resumeActive returns the resume messages of the client's active session,
// if there is one.
func (svc *Service) resumeActive(ctx context.Context, clientID string) (*Outcome, bool, error) {
	active, err := svc.store.FindActiveByClientID(ctx, clientID)
	if err != nil {
		return nil, false, fmt.Errorf("find active session: %w", err)
	}
	if len(active) == 0 {
		return nil, false, nil
	}

	s := active[0]
	l := logging.WithClient(clientID, s.ID)
	l.Info().
		Str("status", s.Status.String()).
		Int("cycle", s.CurrentCycle).
		Msg("Client already has an active session, resuming")
	svc.metrics.RecordSessionResumed()

	return &Outcome{
		SessionID: s.ID,
		Status:    s.Status,
		Resumed:   true,
		Messages:  svc.resumeMessages(s),
	}, true, nil
}
