package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"bdexports/internal/config"
	"bdexports/internal/infrastructure"
)

// Runtime is what every command sets up before doing its work.
type Runtime struct {
	Config    *config.Config
	Paths     *config.Paths
	Logger    *slog.Logger
	Telemetry *infrastructure.Telemetry
}

// Bootstrap loads the configuration (configFile overrides the usual search),
// resolves the data layout under baseDir or the configured base directory,
// fills unset paths from it and starts logging and telemetry.
func Bootstrap(configFile, baseDir string) (*Runtime, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFrom(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if baseDir != "" {
		cfg.Pipeline.BaseDir = baseDir
	}
	paths, err := config.GetPaths(cfg.Pipeline.BaseDir)
	if err != nil {
		return nil, err
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, err
	}
	paths.ApplyDefaults(cfg)
	if cfg.Logging.FilePath != "" && !filepath.IsAbs(cfg.Logging.FilePath) {
		cfg.Logging.FilePath = filepath.Join(paths.BaseDir, cfg.Logging.FilePath)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	paths.LogPathResolution(logger)

	tel, err := infrastructure.InitializeTelemetry(cfg.Telemetry, os.Stderr, logger)
	if err != nil {
		return nil, err
	}

	return &Runtime{Config: cfg, Paths: paths, Logger: logger, Telemetry: tel}, nil
}

// Metrics returns the pipeline instruments on the runtime's meter.
func (r *Runtime) Metrics() (*infrastructure.PipelineMetrics, error) {
	return infrastructure.NewPipelineMetrics(r.Telemetry.Meter)
}

// Close flushes telemetry and the log file.
func (r *Runtime) Close(ctx context.Context) {
	if err := r.Telemetry.Shutdown(ctx); err != nil {
		r.Logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
	}
	_ = infrastructure.CloseLogFile()
}
