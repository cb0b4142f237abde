package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	apierrors "bdexports/internal/errors"
	"bdexports/internal/shared/testutil"
)

type query struct {
	HSCode string `json:"hs_code" validate:"omitempty,hscode"`
	From   string `json:"from" validate:"omitempty,yearmonth"`
	Limit  int    `json:"limit" validate:"gte=0,lte=100"`
}

func TestValidator_Struct(t *testing.T) {
	v := NewValidator()

	require.NoError(t, v.Struct(query{HSCode: "61", From: "2023-08", Limit: 10}))
	require.NoError(t, v.Struct(query{}))

	err := v.Struct(query{HSCode: "6A", From: "August-2023", Limit: 101})
	var apiErr *apierrors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	fields := map[string]string{}
	for _, fe := range apiErr.Details.([]apierrors.ValidationError) {
		fields[fe.Field] = fe.Message
	}
	assert.Equal(t, "hs_code must be a two-digit HS code", fields["hs_code"])
	assert.Equal(t, "from must be a month in YYYY-MM form", fields["from"])
	assert.Equal(t, "limit must be less than or equal to 100", fields["limit"])
}

func TestRateLimiter(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	rl := NewRateLimiter(0.001, 1, apierrors.NewErrorHandler(logger, false))
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
}

func TestStructuredLogger(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	r := chi.NewRouter()
	r.Use(chimw.RequestID, StructuredLogger(logger), SecurityHeaders)
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	entry := testutil.AssertLogged(t, logs, slog.LevelInfo, "request completed")
	assert.EqualValues(t, http.StatusTeapot, entry.Attrs["status"])
	assert.NotEmpty(t, entry.Attrs["request_id"])
}

func TestTracing_NamesSpanAfterRoute(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(recorder))

	r := chi.NewRouter()
	r.Use(Tracing(tp.Tracer("test")))
	r.Get("/hs/{code}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/hs/61", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /hs/{code}", spans[0].Name())
}
