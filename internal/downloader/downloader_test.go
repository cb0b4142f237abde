package downloader

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bdexports/internal/config"
	"bdexports/internal/infrastructure"
	"bdexports/internal/shared/testutil"
)

type staticSource struct {
	links []string
	err   error
}

func (s staticSource) Links(context.Context) ([]string, error) { return s.links, s.err }

func TestNormalizeLink(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{"//cdn.example.org/a.xlsx", "https://cdn.example.org/a.xlsx"},
		{"/files/a.xls", "https://epb.gov.bd/files/a.xls"},
		{"http://other.org/b.xlsx", "http://other.org/b.xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLink(tt.href, "https://epb.gov.bd/"))
		})
	}
}

func TestExcelLinks(t *testing.T) {
	hrefs := []string{"/a.XLSX", "/b.pdf", "#", "//h/c.xls", "/d.xlsx?x=1"}
	assert.Equal(t, []string{"https://site/a.XLSX", "https://h/c.xls"}, ExcelLinks(hrefs, "https://site"))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "a.xlsx", FileName("https://h/files/a.xlsx?download=1"))
	assert.Equal(t, "July June.xlsx", FileName("https://h/files/July%20June.xlsx"))
}

func TestDownloader_Run(t *testing.T) {
	var (
		mu     sync.Mutex
		agents []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		agents = append(agents, r.UserAgent())
		mu.Unlock()
		if r.URL.Path == "/missing.xlsx" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("content of " + r.URL.Path))
	}))
	defer srv.Close()

	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "report.xlsx"), []byte("old"), 0o644))

	logger, logs := testutil.NewTestLogger(t)
	d, err := New(Options{OutputDir: out, UserAgent: "bdexports-test", Concurrency: 3}, logger)
	require.NoError(t, err)

	res, err := d.Run(context.Background(), staticSource{links: []string{
		srv.URL + "/a/report.xlsx",
		srv.URL + "/b/report.xlsx",
		srv.URL + "/missing.xlsx",
		srv.URL + "/other.xls",
	}})
	require.NoError(t, err)

	assert.Equal(t, 4, res.Links)
	assert.Equal(t, []string{"other.xls", "report_1.xlsx", "report_2.xlsx"}, res.Downloaded)
	assert.Contains(t, res.Failed, srv.URL+"/missing.xlsx")

	old, err := os.ReadFile(filepath.Join(out, "report.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(old))

	first, err := os.ReadFile(filepath.Join(out, "report_1.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "content of /a/report.xlsx", string(first))
	assert.NoFileExists(t, filepath.Join(out, "missing.xlsx"))

	for _, ua := range agents {
		assert.Equal(t, "bdexports-test", ua)
	}
	testutil.AssertLogged(t, logs, slog.LevelWarn, "Download failed")
}

func TestDownloader_NoLinks(t *testing.T) {
	d, err := New(Options{OutputDir: t.TempDir()}, nil)
	require.NoError(t, err)

	_, err = d.Run(context.Background(), staticSource{})
	assert.ErrorIs(t, err, ErrNoLinks)
}

func TestDownloader_SourceError(t *testing.T) {
	d, err := New(Options{OutputDir: t.TempDir()}, nil)
	require.NoError(t, err)

	boom := errors.New("page did not load")
	_, err = d.Run(context.Background(), staticSource{err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestNew_RequiresOutputDir(t *testing.T) {
	_, err := New(Options{}, nil)
	assert.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	d, err := New(Options{OutputDir: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.NotNil(t, d.metrics)
	assert.Equal(t, 1, d.opts.Concurrency)
	assert.Equal(t, config.DefaultUserAgent, d.opts.UserAgent)

	m, err := infrastructure.NewPipelineMetrics(nil)
	require.NoError(t, err)
	d, err = New(Options{OutputDir: t.TempDir()}, nil, WithMetrics(m))
	require.NoError(t, err)
	assert.Same(t, m, d.metrics)
}
