package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpAdapter "github.com/aretw0/tessera/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 5 * time.Second

// Serve runs the HTTP API until ctx is cancelled, then shuts down gracefully
// and persists open sessions.
func Serve(ctx context.Context, rt *Runtime, addr string) error {
	opts := []httpAdapter.Option{httpAdapter.WithLogger(rt.logger)}
	if rt.Metrics != nil {
		opts = append(opts, httpAdapter.WithGatherer(rt.Metrics))
	} else {
		opts = append(opts, httpAdapter.WithGatherer(prometheus.NewRegistry()))
	}
	handler, err := httpAdapter.NewHandler(rt.Engine, opts...)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	rt.Start()
	serverErrors := make(chan error, 1)
	go func() {
		rt.logger.Info("Tessera server listening", "address", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		rt.logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			rt.logger.Error("graceful shutdown did not complete", "err", err)
			_ = srv.Close()
		}
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(serveErr, rt.Close(closeCtx))
}
