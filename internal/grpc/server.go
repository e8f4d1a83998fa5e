package grpcserver

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"brickDelivery/internal/auth"
	"brickDelivery/internal/logger"
)

// Health probes stay reachable without a token. Everything else, reflection
// included, needs a Bearer JWT.
const (
	healthCheckMethod = "/grpc.health.v1.Health/Check"
	healthWatchMethod = "/grpc.health.v1.Health/Watch"
)

// OrderStoreService is the health service name that tracks the order store.
const OrderStoreService = "brickdelivery.OrderStore"

// Probe reports whether a dependency is reachable.
type Probe func(ctx context.Context) error

// Server is the gRPC listener. It exposes grpc.health.v1 with one status for
// the process and one for the order store.
type Server struct {
	srv    *grpc.Server
	health *health.Server
	probe  Probe
	every  time.Duration
	log    logger.Logger
	stop   chan struct{}
}

// NewServer builds the server. A nil probe leaves the order store SERVING.
func NewServer(secret string, probe Probe, every time.Duration, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	if every <= 0 {
		every = 15 * time.Second
	}
	srv := grpc.NewServer(
		grpc.UnaryInterceptor(auth.NewUnaryAuthInterceptor(secret, healthCheckMethod)),
		grpc.StreamInterceptor(auth.NewStreamAuthInterceptor(secret, healthWatchMethod)),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)
	hs.SetServingStatus(OrderStoreService, healthpb.HealthCheckResponse_SERVING)
	return &Server{srv: srv, health: hs, probe: probe, every: every, log: log, stop: make(chan struct{})}
}

// Serve accepts connections on lis until Shutdown.
func (s *Server) Serve(lis net.Listener) error {
	go s.watch()
	return s.srv.Serve(lis)
}

// Check runs the probe once and updates the order store status.
func (s *Server) Check(ctx context.Context) {
	if s.probe == nil {
		return
	}
	st := healthpb.HealthCheckResponse_SERVING
	if err := s.probe(ctx); err != nil {
		s.log.Warn("order store probe failed", "err", err)
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(OrderStoreService, st)
}

func (s *Server) watch() {
	t := time.NewTicker(s.every)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			s.Check(ctx)
			cancel()
		}
	}
}

// Shutdown flips every status to NOT_SERVING and drains in-flight calls.
// It force-stops when ctx expires first.
func (s *Server) Shutdown(ctx context.Context) error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	s.health.Shutdown()
	done := make(chan struct{})
	go func() { s.srv.GracefulStop(); close(done) }()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.srv.Stop()
		return ctx.Err()
	}
}

// StartGRPC listens on addr and serves in the background.
func StartGRPC(addr, secret string, probe Probe, log logger.Logger) (*Server, error) {
	if addr == "" {
		addr = ":50051"
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := NewServer(secret, probe, 0, log)
	go func() {
		if err := s.Serve(lis); err != nil {
			s.log.Error("grpc serve stopped", "err", err)
		}
	}()
	return s, nil
}
