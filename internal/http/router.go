package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"speech-training-service/internal/app"
	"speech-training-service/internal/models"
	"speech-training-service/internal/observability/metrics"
	"speech-training-service/internal/service/training"
	"speech-training-service/internal/service/words"
)

// Trainer is the session workflow the handlers drive. *training.Service
// satisfies it.
type Trainer interface {
	Start(ctx context.Context, req training.StartRequest) (*training.Outcome, error)
	SubmitAudio(ctx context.Context, sessionID string, audio []byte) (*training.Outcome, error)
	Resume(ctx context.Context, sessionID string) (*training.Outcome, error)
	State(ctx context.Context, sessionID string) (models.Message, error)
	Cancel(ctx context.Context, sessionID string) (models.Message, error)
	Analyze(ctx context.Context, expectedWord string, audio []byte) (*training.Analysis, error)
	Ready(ctx context.Context) error
}

// handler holds the dependencies of every route.
type handler struct {
	trainer       Trainer
	words         words.Supplier
	maxAudioBytes int64
	metrics       *metrics.Metrics
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(application *app.Application) http.Handler {
	return newRouter(&handler{
		trainer:       application.Training,
		words:         application.Words,
		maxAudioBytes: application.Cfg.Training.MaxAudioBytes,
		metrics:       metrics.DefaultMetrics,
	})
}

func newRouter(h *handler) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.observe)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", h.readiness)

	// API routes
	r.Route("/v1", func(r chi.Router) {
		r.Post("/sessions", h.startSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", h.sessionState)
			r.Get("/resume", h.resumeSession)
			r.Post("/audio", h.submitAudio)
			r.Post("/cancel", h.cancelSession)
			r.Get("/ws", h.liveSession)
		})

		r.Get("/words", h.listWords)
		r.Get("/difficulties", h.listDifficulties)
		r.Post("/pronunciation/analyze", h.analyze)
	})

	return r
}

func (h *handler) readiness(w http.ResponseWriter, r *http.Request) {
	if err := h.trainer.Ready(r.Context()); err != nil {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
