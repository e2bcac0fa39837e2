package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	grpcapi "speech-training-service/internal/api/grpc"
	"speech-training-service/internal/app"
	"speech-training-service/internal/config"
	httpapi "speech-training-service/internal/http"
	"speech-training-service/internal/observability"
	"speech-training-service/internal/service/training"
)

const (
	shutdownTimeout   = 15 * time.Second
	readinessInterval = 10 * time.Second
)

// runServe runs the HTTP API, the gRPC health server, the metrics server
// and the stale session sweep until ctx is cancelled or one of them fails.
func runServe(ctx context.Context, cfg *config.Config) error {
	a := app.New(cfg)
	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer a.Shutdown()

	lis, err := net.Listen("tcp", ":"+cfg.Service.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Service.HTTPPort,
		Handler:           httpapi.NewRouter(a),
		ReadHeaderTimeout: 10 * time.Second,
	}
	grpcServer := grpcapi.New(a.Training.Ready)
	obsServer := observability.NewServer(cfg.Service.MetricsAddr, a.Training.Ready)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", httpServer.Addr).Msg("HTTP API started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("grpc: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := obsServer.Serve(); err != nil {
			return fmt.Errorf("observability: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		grpcServer.WatchReadiness(gctx, readinessInterval)
		return nil
	})
	g.Go(func() error {
		sweepStaleSessions(gctx, a.Training, cfg.Training)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		grpcServer.Stop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("HTTP shutdown incomplete")
		}
		if err := obsServer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Observability shutdown incomplete")
		}
		return nil
	})

	return g.Wait()
}

// sweepStaleSessions recovers stale sessions once at startup and then every
// ReconcileInterval until ctx is done.
func sweepStaleSessions(ctx context.Context, svc *training.Service, cfg config.TrainingConfig) {
	sweep := func() {
		if _, err := svc.Reconcile(ctx, cfg.StaleProcessing); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("Stale session sweep failed")
		}
	}

	sweep()
	if cfg.ReconcileInterval <= 0 {
		return
	}

	ticker := time.NewTicker(cfg.ReconcileInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
