package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bdexports/internal/downloader"
	"bdexports/internal/infrastructure"
)

type links []string

func (l links) Links(context.Context) ([]string, error) { return l, nil }

func TestRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("workbook"))
	}))
	defer srv.Close()

	base := t.TempDir()
	cfgFile := filepath.Join(base, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("download:\n  rate_per_sec: 100\n"), 0o644))
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	var out bytes.Buffer
	err := run(context.Background(), []string{"-base", base, "-config", cfgFile}, &out,
		links{srv.URL + "/a.xlsx", srv.URL + "/b.xls"})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "downloaded 2, failed 0")
	assert.FileExists(t, filepath.Join(base, "data", "raw", "a.xlsx"))
	assert.FileExists(t, filepath.Join(base, "data", "raw", "b.xls"))
}

func TestRun_NoLinks(t *testing.T) {
	base := t.TempDir()
	cfgFile := filepath.Join(base, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("{}\n"), 0o644))
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	err := run(context.Background(), []string{"-base", base, "-config", cfgFile}, &bytes.Buffer{}, links{})
	assert.ErrorIs(t, err, downloader.ErrNoLinks)
}
