// Package training runs the pronunciation-training session workflow: word
// assignment, audio scoring per cycle, progression, resumption, cancellation
// and the final summary.
//
// Every public operation is one read-compute-write unit against the store.
// Operations on the same session are serialized in process by a keyed mutex
// and across processes by the store's version check. The transcription call
// runs outside the session lock so a cancel is never blocked behind it; the
// result is only applied if the session is still the one that was sent to
// the provider.
package training

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"speech-training-service/internal/directory"
	"speech-training-service/internal/events"
	"speech-training-service/internal/models"
	"speech-training-service/internal/observability/metrics"
	"speech-training-service/internal/service/lifecycle"
	"speech-training-service/internal/service/scoring"
	"speech-training-service/internal/service/stt"
	"speech-training-service/internal/service/words"
	"speech-training-service/internal/store"
)

// Publisher receives everything a session emits. *events.Publisher
// satisfies it.
type Publisher interface {
	PublishMessages(ctx context.Context, msgs []models.Message) error
	PublishCycleResult(ctx context.Context, event events.CycleResultEvent) error
	PublishSummary(ctx context.Context, event events.SummaryEvent) error
}

const publishTimeout = 5 * time.Second

// Service is the session orchestrator.
type Service struct {
	store     store.Store
	directory directory.Directory
	supplier  words.Supplier
	stt       stt.Adapter
	publisher Publisher
	aligner   *scoring.Aligner
	clock     *lifecycle.Clock
	metrics   *metrics.Metrics
	limits    Limits
	newID     func() string

	sessionLocks *keyedMutex
	clientLocks  *keyedMutex
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the event publisher. Default: a disabled Kafka publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithLimits overrides the audio and transcription limits.
func WithLimits(l Limits) Option {
	return func(s *Service) { s.limits = l }
}

// WithClock sets the time source for timestamps.
func WithClock(c *lifecycle.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithAligner sets the word aligner.
func WithAligner(a *scoring.Aligner) Option {
	return func(s *Service) { s.aligner = a }
}

// WithIDGenerator sets the session id generator.
func WithIDGenerator(f func() string) Option {
	return func(s *Service) { s.newID = f }
}

// NewService creates a session orchestrator.
func NewService(st store.Store, dir directory.Directory, supplier words.Supplier, adapter stt.Adapter, opts ...Option) *Service {
	s := &Service{
		store:        st,
		directory:    dir,
		supplier:     supplier,
		stt:          adapter,
		aligner:      scoring.NewAligner(),
		clock:        lifecycle.NewClock(),
		metrics:      metrics.DefaultMetrics,
		limits:       DefaultLimits(),
		newID:        store.NewID,
		sessionLocks: newKeyedMutex(),
		clientLocks:  newKeyedMutex(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.publisher == nil {
		s.publisher = events.New(nil)
	}
	return s
}

// Ready reports whether the store and directory are reachable.
func (svc *Service) Ready(ctx context.Context) error {
	if err := svc.store.Ping(ctx); err != nil {
		return err
	}
	return svc.directory.Ping(ctx)
}

// MatchThreshold returns the similarity a word needs to count as correct.
func (svc *Service) MatchThreshold() float64 {
	return svc.aligner.Threshold()
}

// Provider returns the name of the transcription provider.
func (svc *Service) Provider() string {
	return svc.stt.Name()
}

// publish hands msgs and results to the publisher. Failures are logged and
// counted by the publisher and never fail the operation.
func (svc *Service) publish(ctx context.Context, s *models.Session, msgs []models.Message, cycle *models.CycleResult) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	logErr := func(err error, what string) {
		if err != nil {
			log.Warn().Err(err).Str("sessionId", s.ID).Msgf("Failed to publish %s", what)
		}
	}

	logErr(svc.publisher.PublishMessages(ctx, msgs), "messages")
	if cycle != nil {
		logErr(svc.publisher.PublishCycleResult(ctx, events.CycleResultEvent{
			SessionID:    s.ID,
			ClientID:     s.ClientID,
			SpecialistID: s.SpecialistID,
			Difficulty:   s.Difficulty,
			Result:       cycle,
			Timestamp:    svc.clock.Next(),
		}), "cycle result")
	}
	if s.Status == models.StatusFinished && s.Summary != nil {
		logErr(svc.publisher.PublishSummary(ctx, events.SummaryEvent{
			SessionID:    s.ID,
			ClientID:     s.ClientID,
			SpecialistID: s.SpecialistID,
			Difficulty:   s.Difficulty,
			Summary:      s.Summary,
			Timestamp:    svc.clock.Next(),
		}), "summary")
	}
}

// save stamps UpdatedAt and persists s.
func (svc *Service) save(ctx context.Context, s *models.Session) error {
	s.UpdatedAt = svc.clock.Now()
	return svc.store.Save(ctx, s)
}
