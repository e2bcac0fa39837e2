// Package app assembles the training service from configuration and owns
// the process logger.
package app

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"speech-training-service/internal/config"
	"speech-training-service/internal/directory"
	"speech-training-service/internal/events"
	"speech-training-service/internal/observability/logging"
	"speech-training-service/internal/service/stt"
	"speech-training-service/internal/service/training"
	"speech-training-service/internal/service/words"
	"speech-training-service/internal/store"
)

const serviceName = "speech-training-service"

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config

	Store     store.Store
	Directory directory.Directory
	Words     words.Supplier
	STT       stt.Adapter
	Publisher *events.Publisher
	Training  *training.Service

	closers []closer
}

type closer struct {
	name string
	fn   func() error
}

// New constructs a new Application from the provided configuration.
func New(cfg *config.Config) *Application {
	a := &Application{
		Cfg: cfg,
	}
	a.setupLogger()

	appLogger := a.Logger.With().
		Str("method", "New").
		Logger()

	appLogger.Info().Msg("Speech training service application created")
	return a
}

// setupLogger configures zerolog for the service. ZEROLOG_LOG_LEVEL wins
// over the configured level; ENV=dev switches to console output.
func (a *Application) setupLogger() {
	level := a.Cfg.Observability.LogLevel
	if envLevel := os.Getenv("ZEROLOG_LOG_LEVEL"); envLevel != "" {
		level = strings.ToLower(envLevel)
	}
	format := a.Cfg.Observability.LogFormat
	if a.Cfg.Service.Env == "dev" {
		format = "console"
	}

	logging.Init(logging.Config{
		Level:      level,
		Format:     format,
		TimeFormat: time.RFC3339,
	})

	a.Logger = log.Logger.With().
		Str("service", serviceName).
		Str("component", "application").
		Logger()

	a.Logger.Info().
		Str("logLevel", zerolog.GlobalLevel().String()).
		Str("environment", a.Cfg.Service.Env).
		Msg("Logger setup completed")
}

// Start builds every component the service needs. On failure the
// components already built are closed.
func (a *Application) Start(ctx context.Context) error {
	startLogger := a.Logger.With().
		Str("method", "Start").
		Logger()

	a.StartupTime = time.Now().UTC()
	startLogger.Info().
		Time("startupTime", a.StartupTime).
		Msg("Speech training service starting")

	if err := a.build(ctx); err != nil {
		a.Shutdown()
		return err
	}

	startLogger.Info().
		Str("store", a.Cfg.Store.Driver).
		Str("directory", a.Cfg.Directory.Driver).
		Str("words", a.Cfg.Words.Provider).
		Str("stt", a.STT.Name()).
		Bool("kafka", a.Cfg.Kafka.Enabled).
		Msg("Components ready")
	return nil
}

func (a *Application) build(ctx context.Context) error {
	st, err := newStore(a.Cfg.Store)
	if err != nil {
		return err
	}
	a.Store = st
	a.onClose("store", st.Close)

	dir, closeDir, err := newDirectory(ctx, a.Cfg.Directory)
	if err != nil {
		return err
	}
	a.Directory = dir
	if closeDir != nil {
		a.onClose("directory", closeDir)
	}

	a.Words, err = newSupplier(a.Cfg.Words)
	if err != nil {
		return err
	}

	adapter, closeSTT, err := newSTT(ctx, a.Cfg.STT)
	if err != nil {
		return err
	}
	a.STT = adapter
	if closeSTT != nil {
		a.onClose("stt", closeSTT)
	}

	a.Publisher = events.New(&events.Config{
		Enabled:       a.Cfg.Kafka.Enabled,
		Brokers:       a.Cfg.Kafka.Brokers,
		TopicMessages: a.Cfg.Kafka.TopicMessages,
		TopicResults:  a.Cfg.Kafka.TopicResults,
		Principal:     a.Cfg.Kafka.Principal,
	})
	a.onClose("publisher", a.Publisher.Close)

	a.Training = training.NewService(a.Store, a.Directory, a.Words, a.STT,
		training.WithPublisher(a.Publisher),
		training.WithLimits(training.Limits{
			MaxAudioBytes:        a.Cfg.Training.MaxAudioBytes,
			TranscriptionTimeout: a.Cfg.STT.Timeout,
		}),
		training.WithAligner(newAligner(a.Cfg.Training)),
	)
	return nil
}

func (a *Application) onClose(name string, fn func() error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// Shutdown performs a best-effort cleanup before process exit, closing
// components in reverse build order.
func (a *Application) Shutdown() {
	shutdownLogger := a.Logger.With().
		Str("method", "Shutdown").
		Logger()

	shutdownLogger.Info().Msg("Speech training service shutting down")

	failed := 0
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(); err != nil {
			shutdownLogger.Warn().Err(err).Str("resource", c.name).Msg("Close failed")
			failed++
		}
	}
	a.closers = nil

	if failed == 0 {
		shutdownLogger.Info().Msg("All resources closed")
	}
}
