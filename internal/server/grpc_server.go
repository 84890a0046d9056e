package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/oggyb/songmatch/internal/config"
)

// NewGRPCServer builds a gRPC server with the JSON codec, request logging,
// health and reflection, and registers all provided services.
func NewGRPCServer(log *slog.Logger, registrars ...Registrar) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.ForceServerCodec(Codec{}),
		grpc.ChainUnaryInterceptor(loggingInterceptor(log)),
	)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	for _, r := range registrars {
		r.Register(grpcServer)
		hs.SetServingStatus(r.ServiceName(), healthpb.HealthCheckResponse_SERVING)
	}
	healthpb.RegisterHealthServer(grpcServer, hs)

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)

	return grpcServer
}

// StartGRPCServer boots a gRPC server and serves until ctx is done, then
// stops gracefully.
func StartGRPCServer(ctx context.Context, cfg *config.Config, log *slog.Logger, registrars ...Registrar) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	grpcServer := NewGRPCServer(log, registrars...)

	go func() {
		<-ctx.Done()
		grpcServer.GracefulStop()
	}()

	return grpcServer.Serve(lis)
}

func loggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		log.Debug("grpc call", "method", info.FullMethod, "code", code.String(), "duration", time.Since(start))
		if err != nil {
			log.Warn("grpc call failed", "method", info.FullMethod, "code", code.String(), "err", err)
		}
		return resp, err
	}
}
