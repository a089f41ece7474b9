package server

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// ServiceName is the name reported to grpc.health.v1 clients alongside the
// empty (whole server) name.
const ServiceName = "messagely"

const defaultHealthInterval = 10 * time.Second

// HealthServer exposes grpc.health.v1 for orchestrators. Its status follows
// the database ping.
type HealthServer struct {
	grpcServer *grpc.Server
	health     *health.Server
	db         *gorm.DB
	interval   time.Duration
}

func NewHealthServer(db *gorm.DB) *HealthServer {
	hs := health.NewServer()
	srv := grpc.NewServer(grpc.UnaryInterceptor(unaryLoggingInterceptor))
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return &HealthServer{
		grpcServer: srv,
		health:     hs,
		db:         db,
		interval:   defaultHealthInterval,
	}
}

// Serve blocks until the listener fails or Stop is called. The status is
// refreshed until ctx is done.
func (s *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	s.refresh(ctx)
	go s.watch(ctx)

	logrus.WithField("addr", lis.Addr().String()).Info("gRPC health server listening")
	return s.grpcServer.Serve(lis)
}

func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

func (s *HealthServer) watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *HealthServer) refresh(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := pingDatabase(pingCtx, s.db); err != nil {
		logrus.WithError(err).Warn("Database ping failed, reporting NOT_SERVING")
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

func unaryLoggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	logrus.WithFields(logrus.Fields{
		"method":   info.FullMethod,
		"code":     status.Code(err).String(),
		"duration": time.Since(start),
	}).Debug("gRPC call completed")
	return resp, err
}
