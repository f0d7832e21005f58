package workers

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"

	"google.golang.org/grpc"
)

// GRPCServer serves on a fresh listener each run, so a restart after an
// accept failure binds again.
type GRPCServer struct {
	log    *slog.Logger
	server *grpc.Server
	listen func() (net.Listener, error)
}

func NewGRPCServer(log *slog.Logger, server *grpc.Server, listen func() (net.Listener, error)) *GRPCServer {
	return &GRPCServer{log: log, server: server, listen: listen}
}

// TCPListener listens on address.
func TCPListener(address string) func() (net.Listener, error) {
	return func() (net.Listener, error) {
		return net.Listen("tcp", address)
	}
}

func (w *GRPCServer) Run(ctx context.Context) error {
	listener, err := w.listen()
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		w.log.Info("Starting gRPC server", "address", listener.Addr().String())
		errChan <- w.server.Serve(listener)
	}()

	select {
	case err = <-errChan:
		if stderrors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	case <-ctx.Done():
		w.server.GracefulStop()
		return nil
	}
}
