package workers

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"
)

// HTTPServer serves the REST surface until its context is done,
// then drains in-flight requests within shutdownTimeout.
type HTTPServer struct {
	log             *slog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

func NewHTTPServer(log *slog.Logger, server *http.Server, shutdownTimeout time.Duration) *HTTPServer {
	return &HTTPServer{log: log, server: server, shutdownTimeout: shutdownTimeout}
}

func (w *HTTPServer) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		w.log.Info("Starting HTTP server", "address", w.server.Addr)
		errChan <- w.server.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()
		if err := w.server.Shutdown(shutdownCtx); err != nil {
			w.log.Error("HTTP shutdown failed", "error", err)
		}
		return nil
	}
}
