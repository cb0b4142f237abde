// Package downloader fetches the agency's export workbooks: a LinkSource
// discovers the workbook URLs and a Downloader saves them concurrently under a
// request rate limit.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"bdexports/internal/config"
	"bdexports/internal/infrastructure"
)

// ErrNoLinks is returned when the page carries no workbook links.
var ErrNoLinks = errors.New("no Excel links found on the export page")

// Options configures a Downloader.
type Options struct {
	OutputDir   string
	UserAgent   string
	Timeout     time.Duration
	Concurrency int
	RatePerSec  float64
}

// OptionsFromConfig maps the download section of the configuration.
func OptionsFromConfig(cfg config.DownloadConfig) Options {
	return Options{
		OutputDir:   cfg.OutputDir,
		UserAgent:   cfg.UserAgent,
		Timeout:     cfg.Timeout,
		Concurrency: cfg.Concurrency,
		RatePerSec:  cfg.RatePerSec,
	}
}

// Result summarises one download run.
type Result struct {
	Links      int               `json:"links"`
	Downloaded []string          `json:"downloaded"`
	Failed     map[string]string `json:"failed,omitempty"`
}

// Downloader saves workbooks into an output directory.
type Downloader struct {
	opts    Options
	client  *http.Client
	limiter *rate.Limiter
	metrics *infrastructure.PipelineMetrics
	logger  *slog.Logger
}

// Option customises a Downloader.
type Option func(*Downloader)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Downloader) { d.client = c }
}

func WithMetrics(m *infrastructure.PipelineMetrics) Option {
	return func(d *Downloader) { d.metrics = m }
}

// New creates a Downloader.
func New(opts Options, logger *slog.Logger, options ...Option) (*Downloader, error) {
	if opts.OutputDir == "" {
		return nil, errors.New("output directory is required")
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultDownloadTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = config.DefaultUserAgent
	}
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}

	d := &Downloader{
		opts:    opts,
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger.With(slog.String("component", "downloader")),
	}
	for _, o := range options {
		o(d)
	}
	if d.metrics == nil {
		m, err := infrastructure.NewPipelineMetrics(nil)
		if err != nil {
			return nil, err
		}
		d.metrics = m
	}
	return d, nil
}

// Run collects links from src and downloads each of them. Individual download
// failures are recorded in the result; only an empty link list, a link source
// error or cancellation fail the run.
func (d *Downloader) Run(ctx context.Context, src LinkSource) (*Result, error) {
	links, err := src.Links(ctx)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, ErrNoLinks
	}
	if err := os.MkdirAll(d.opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	dests := d.destinations(links)
	res := &Result{Links: len(links)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Concurrency)
	for i, link := range links {
		g.Go(func() error {
			if err := d.limiter.Wait(gctx); err != nil {
				return err
			}
			err := d.fetch(gctx, link, dests[i])

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				d.logger.Warn("Download failed", slog.String("url", link), slog.String("error", err.Error()))
				d.metrics.Download(gctx, "failed")
				if res.Failed == nil {
					res.Failed = make(map[string]string)
				}
				res.Failed[link] = err.Error()
				return nil
			}
			d.metrics.Download(gctx, "ok")
			res.Downloaded = append(res.Downloaded, filepath.Base(dests[i]))
			return nil
		})
	}
	err = g.Wait()
	sort.Strings(res.Downloaded)
	if err != nil {
		return res, err
	}

	d.logger.Info("Downloads complete",
		slog.Int("links", res.Links),
		slog.Int("downloaded", len(res.Downloaded)),
		slog.Int("failed", len(res.Failed)))
	return res, nil
}

// destinations assigns every link a free file name, appending _1, _2, ...
// when the name already exists on disk or was given to an earlier link.
func (d *Downloader) destinations(links []string) []string {
	taken := make(map[string]bool, len(links))
	out := make([]string, len(links))
	for i, link := range links {
		name := FileName(link)
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)

		candidate := filepath.Join(d.opts.OutputDir, name)
		for n := 1; taken[candidate] || fileExists(candidate); n++ {
			candidate = filepath.Join(d.opts.OutputDir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		}
		taken[candidate] = true
		out[i] = candidate
	}
	return out
}

func (d *Downloader) fetch(ctx context.Context, link, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", d.opts.UserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	tmp := dest + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create file %s: %w", tmp, err)
	}
	written, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write file %s: %w", dest, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return err
	}

	d.logger.Info("File downloaded",
		slog.String("file", filepath.Base(dest)),
		slog.Int64("size_bytes", written))
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
