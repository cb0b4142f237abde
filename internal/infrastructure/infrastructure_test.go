package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bdexports/internal/config"
)

func TestNewLogger_StampsRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	ctx := WithRunID(context.Background(), "run-42")
	logger.InfoContext(ctx, "file parsed", slog.String("file", "a.xlsx"))
	logger.DebugContext(ctx, "filtered out")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run-42", entry["run_id"])
	assert.Equal(t, "a.xlsx", entry["file"])
	assert.Equal(t, "file parsed", entry["msg"])
}

func TestInitializeLogger_FileOutput(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)

	path := filepath.Join(t.TempDir(), "logs", "bdx.log")
	logger, err := InitializeLogger(config.LoggingConfig{Level: "debug", Output: "file", FilePath: path})
	require.NoError(t, err)

	logger.Debug("hello")
	assert.FileExists(t, path)
	assert.Same(t, logger, GetLogger())
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("chatty"))
}

func TestEnsureRunID(t *testing.T) {
	ctx, id := EnsureRunID(context.Background())
	assert.NotEmpty(t, id)
	assert.Equal(t, id, RunID(ctx))

	again, same := EnsureRunID(ctx)
	assert.Equal(t, id, same)
	assert.Equal(t, ctx, again)
}

func TestPipelineMetrics_Exported(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tel, err := InitializeTelemetry(config.TelemetryConfig{
		ServiceName:    "bdexports-test",
		Environment:    "test",
		MetricsEnabled: true,
	}, nil, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	m, err := NewPipelineMetrics(tel.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	m.FileProcessed(ctx)
	m.FileFailed(ctx, "unrecognised filename")
	m.ReconstructionDone(ctx, 10, 2, 1)
	m.RunFinished(ctx, 1500*time.Millisecond, "success")

	rec := httptest.NewRecorder()
	tel.MetricsHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	assert.Contains(t, body, "bdexports_deltas_clamped_total")
	assert.Contains(t, body, "bdexports_files_failed_total")
	assert.Contains(t, body, "bdexports_run_duration_seconds")
}

func TestNewPipelineMetrics_NilMeter(t *testing.T) {
	m, err := NewPipelineMetrics(nil)
	require.NoError(t, err)
	m.FileProcessed(context.Background())
}
