package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/aqi-predictor/internal/infra/config"
	"github.com/yanqian/aqi-predictor/internal/infra/formsession"
)

// App encapsulates the HTTP server lifecycle and background form eviction.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	server   *http.Server
	registry *formsession.Registry
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, registry *formsession.Registry) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, registry: registry}
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	evictCtx, stopEvict := context.WithCancel(ctx)
	defer stopEvict()
	go a.registry.Run(evictCtx)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
