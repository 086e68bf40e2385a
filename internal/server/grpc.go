// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"fmt"
	"net"

	"github.com/AccelByte/extend-game-escrow/pkg/common"
	"github.com/AccelByte/extend-game-escrow/pkg/handler"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// GRPCServer manages the gRPC server lifecycle.
type GRPCServer struct {
	server   *grpc.Server
	health   *health.Server
	port     int
	listener net.Listener
	escrow   handler.EscrowServer
}

// NewGRPCServer creates a new gRPC server instance serving the escrow service.
func NewGRPCServer(port int, escrow handler.EscrowServer) *GRPCServer {
	return &GRPCServer{
		port:   port,
		escrow: escrow,
	}
}

// Setup configures the gRPC server with interceptors and registers handlers.
//
// ============================================================
// This method sets up:
// 1. Interceptors (logging, tracing)
// 2. The escrow service
// 3. Server features (reflection, health checks)
// ============================================================
func (s *GRPCServer) Setup() error {
	unaryInterceptors := []grpc.UnaryServerInterceptor{
		logging.UnaryServerInterceptor(common.InterceptorLogger(logrus.StandardLogger())),
	}
	streamInterceptors := []grpc.StreamServerInterceptor{
		logging.StreamServerInterceptor(common.InterceptorLogger(logrus.StandardLogger())),
	}

	// Create server with OpenTelemetry instrumentation
	s.server = grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(unaryInterceptors...),
		grpc.ChainStreamInterceptor(streamInterceptors...),
	)

	handler.RegisterEscrowServer(s.server, s.escrow)
	logrus.Infof("registered service %s", handler.ServiceName)

	// ============================================================
	// Enable gRPC server features
	// ============================================================
	// - Reflection: allows tools like grpcurl to inspect services
	// - Health check: for Kubernetes liveness/readiness probes
	// ============================================================
	reflection.Register(s.server)
	s.health = health.NewServer()
	grpc_health_v1.RegisterHealthServer(s.server, s.health)

	logrus.Infof("gRPC reflection and health check enabled")

	return nil
}

// Health returns the health server so its status can follow dependencies.
func (s *GRPCServer) Health() *health.Server {
	return s.health
}

// Start begins listening and serving gRPC requests.
func (s *GRPCServer) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}
	s.listener = lis

	go func() {
		logrus.Infof("gRPC server listening on port %d", s.port)
		if err := s.server.Serve(lis); err != nil {
			logrus.Fatalf("gRPC server failed: %v", err)
		}
	}()

	return nil
}

// Addr returns the listening address once started.
func (s *GRPCServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown gracefully stops the gRPC server.
func (s *GRPCServer) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down gRPC server...")
	s.health.Shutdown()
	s.server.GracefulStop()
	logrus.Info("gRPC server stopped")
	return nil
}
