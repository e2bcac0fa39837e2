// Package grpcapi serves gRPC health checking and reflection for the
// training service.
package grpcapi

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"speech-training-service/internal/observability"
)

// ServiceName is the health-check name of the training service.
const ServiceName = "speech.training.TrainingService"

// Server wraps a gRPC server whose health status follows the readiness of
// the training service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	ready  observability.ReadyFunc
}

// New creates the gRPC server with health and reflection registered.
func New(ready observability.ReadyFunc) *Server {
	g := grpc.NewServer(
		grpc.ChainUnaryInterceptor(observability.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(observability.StreamServerInterceptor()),
	)

	// Register gRPC health check service
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(g, hs)

	// Enable gRPC reflection for debugging tools like grpcurl
	reflection.Register(g)

	s := &Server{grpc: g, health: hs, ready: ready}
	s.setServing(grpc_health_v1.HealthCheckResponse_SERVING)
	return s
}

func (s *Server) setServing(st grpc_health_v1.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// CheckReadiness updates the health status from one readiness probe.
func (s *Server) CheckReadiness(ctx context.Context) {
	if s.ready == nil {
		return
	}
	if err := s.ready(ctx); err != nil {
		log.Warn().Err(err).Msg("Training service not ready, reporting NOT_SERVING")
		s.setServing(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		return
	}
	s.setServing(grpc_health_v1.HealthCheckResponse_SERVING)
}

// WatchReadiness probes readiness every interval until ctx is done.
func (s *Server) WatchReadiness(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, interval)
			s.CheckReadiness(probeCtx)
			cancel()
		}
	}
}

// Serve blocks serving lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	log.Info().Str("addr", lis.Addr().String()).Msg("gRPC server started")
	return s.grpc.Serve(lis)
}

// Stop reports NOT_SERVING and drains in-flight calls.
func (s *Server) Stop() {
	log.Info().Msg("Shutting down gRPC server")
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
