package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	s3blob "bdexports/internal/blob/s3"
	"bdexports/internal/config"
	"bdexports/internal/infrastructure"
	"bdexports/internal/pipeline"
	"bdexports/internal/store"
	"bdexports/internal/store/sqlite"
	httptransport "bdexports/internal/transport/http"
)

// OpenStore opens the store selected by cfg.Driver. "none" yields a NopStore.
func OpenStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "", "none":
		return &store.NopStore{}, nil
	case "sqlite":
		s, err := sqlite.New(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// StoreEnabled reports whether cfg selects a real store.
func StoreEnabled(cfg config.StoreConfig) bool {
	return cfg.Driver != "" && cfg.Driver != "none"
}

// OpenPublisher returns the S3 publisher, or nil when no bucket is configured.
func OpenPublisher(ctx context.Context, cfg config.PublishConfig, logger *slog.Logger) (pipeline.Publisher, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	p, err := s3blob.New(ctx, s3blob.FromConfig(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create publisher: %w", err)
	}
	return p, nil
}

// Application is the web server and everything it owns.
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	Telemetry *infrastructure.Telemetry
	Store     store.Store
	Router    http.Handler
	Server    *http.Server
}

// NewApplication opens the store and builds the router. A nil tel is
// initialised from cfg.Telemetry.
func NewApplication(cfg *config.Config, logger *slog.Logger, tel *infrastructure.Telemetry) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if tel == nil {
		var err error
		if tel, err = infrastructure.InitializeTelemetry(cfg.Telemetry, os.Stderr, logger); err != nil {
			return nil, err
		}
	}

	st, err := OpenStore(cfg.Store)
	if err != nil {
		_ = tel.Shutdown(context.Background())
		return nil, err
	}

	rc := httptransport.RouterConfig{
		StoreDriver: cfg.Store.Driver,
		Metrics:     tel.MetricsHandler(),
		Tracer:      tel.Tracer,
		Logger:      logger,
	}
	if StoreEnabled(cfg.Store) {
		rc.Store = st
	}

	a := &Application{
		Config:    cfg,
		Logger:    logger,
		Telemetry: tel,
		Store:     st,
		Router:    httptransport.NewRouter(rc),
	}
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return a, nil
}

// Start serves in the background. A listener failure calls cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.String("store", a.Config.Store.Driver))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()
}

// Stop drains the server and releases the store and telemetry.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}
	if err := a.Telemetry.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run serves until interrupted.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	a.Start(ctx, cancel)

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
	}
	return a.Stop(context.Background())
}
