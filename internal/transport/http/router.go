package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	apierrors "bdexports/internal/errors"
	mw "bdexports/internal/middleware"
)

// RouterConfig wires the API router.
type RouterConfig struct {
	Store        DataStore
	StoreDriver  string
	Metrics      http.Handler
	Tracer       trace.Tracer
	RateLimit    float64
	RateBurst    int
	IncludeStack bool
	Logger       *slog.Logger
}

// NewRouter builds the API router.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	errorHandler := apierrors.NewErrorHandler(logger, cfg.IncludeStack)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.StructuredLogger(logger))
	r.Use(errorHandler.Recoverer)
	r.Use(mw.SecurityHeaders)
	if cfg.Tracer != nil {
		r.Use(mw.Tracing(cfg.Tracer))
	}
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	health := NewHealthHandler(cfg.StoreDriver)
	r.Get("/healthz", health.HealthCheck)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	api := NewDataHandler(cfg.Store, logger, errorHandler).Routes()
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter := mw.NewRateLimiter(cfg.RateLimit, burst, errorHandler)
		r.With(limiter.Handler).Mount("/api/v1", api)
	} else {
		r.Mount("/api/v1", api)
	}
	return r
}
