package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ericogr/pokeduel/internal/constants"
	"github.com/ericogr/pokeduel/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests.
func serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Server started", logging.Fields{constants.LogFieldAddr: addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info("Server shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
