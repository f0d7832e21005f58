package server

import (
	"chat-store/infrastructure/grpc/api"
	"chat-store/services"
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

// New builds a gRPC server exposing the message service and the standard
// health service, reported SERVING for both the server and the message service.
func New(log *slog.Logger, chatService services.IChatService, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             30 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.ChainUnaryInterceptor(loggingInterceptor(log)),
	}, opts...)
	s := grpc.NewServer(opts...)

	api.RegisterMessageServiceServer(s, NewMessageServer(log, chatService))

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, healthServer)
	return s
}

func loggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			log.Warn("gRPC call failed", "method", info.FullMethod, "latency", time.Since(start), "error", err)
		} else {
			log.Debug("gRPC call", "method", info.FullMethod, "latency", time.Since(start))
		}
		return resp, err
	}
}
