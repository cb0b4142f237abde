package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bdexports/internal/config"
	"bdexports/internal/infrastructure"
	"bdexports/internal/shared/testutil"
	"bdexports/internal/store"
)

func TestOpenStore(t *testing.T) {
	s, err := OpenStore(config.StoreConfig{Driver: "none"})
	require.NoError(t, err)
	assert.IsType(t, &store.NopStore{}, s)

	s, err = OpenStore(config.StoreConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "exports.db")})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = OpenStore(config.StoreConfig{Driver: "postgres"})
	assert.Error(t, err)
}

func TestOpenPublisher_DisabledWithoutBucket(t *testing.T) {
	p, err := OpenPublisher(context.Background(), config.PublishConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestNewApplication(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	cfg := config.Default()

	a, err := NewApplication(cfg, logger, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Stop(context.Background()) })

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/countries", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestBootstrap(t *testing.T) {
	base := t.TempDir()
	cfgFile := filepath.Join(base, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("pipeline:\n  workers: 3\n"), 0o644))
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	rt, err := Bootstrap(cfgFile, base)
	require.NoError(t, err)
	defer rt.Close(context.Background())

	abs, err := filepath.Abs(base)
	require.NoError(t, err)
	assert.Equal(t, 3, rt.Config.Pipeline.Workers)
	assert.Equal(t, filepath.Join(abs, "data", "product_wise"), rt.Config.Pipeline.InputDir)
	assert.Equal(t, filepath.Join(abs, "data", config.MonthlyCSVName), rt.Config.Pipeline.OutputCSV)
	assert.DirExists(t, rt.Paths.RawDir)

	m, err := rt.Metrics()
	require.NoError(t, err)
	assert.NotNil(t, m)
}
