// Command scraper downloads every export workbook linked from the agency's
// export data page.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"bdexports/internal/app"
	"bdexports/internal/downloader"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, nil); err != nil {
		fmt.Fprintf(os.Stderr, "scraper: %v\n", err)
		os.Exit(1)
	}
}

// run downloads into the configured raw directory. A nil source renders the
// configured page in Chrome.
func run(ctx context.Context, args []string, stdout io.Writer, src downloader.LinkSource) error {
	fs := flag.NewFlagSet("scraper", flag.ContinueOnError)
	configFile := fs.String("config", "", "path to a YAML config file")
	baseDir := fs.String("base", "", "base directory holding data/ and logs/")
	outDir := fs.String("out", "", "directory to save workbooks (defaults to data/raw)")
	pageURL := fs.String("page", "", "export page to scan")
	headless := fs.Bool("headless", true, "run the browser headless")
	concurrency := fs.Int("concurrency", 0, "parallel downloads")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := app.Bootstrap(*configFile, *baseDir)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	cfg := rt.Config.Download
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	if *pageURL != "" {
		cfg.PageURL = *pageURL
	}
	if *concurrency > 0 {
		cfg.Concurrency = *concurrency
	}
	cfg.Headless = cfg.Headless && *headless

	if src == nil {
		src = &downloader.BrowserSource{
			PageURL:  cfg.PageURL,
			BaseURL:  cfg.BaseURL,
			Headless: cfg.Headless,
			Timeout:  cfg.PageTimeout,
			Logger:   rt.Logger,
		}
	}

	metrics, err := rt.Metrics()
	if err != nil {
		return err
	}
	d, err := downloader.New(downloader.OptionsFromConfig(cfg), rt.Logger, downloader.WithMetrics(metrics))
	if err != nil {
		return err
	}

	res, err := d.Run(ctx, src)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Found %d workbook link(s); downloaded %d, failed %d into %s\n",
		res.Links, len(res.Downloaded), len(res.Failed), cfg.OutputDir)
	for link, reason := range res.Failed {
		fmt.Fprintf(stdout, "  failed %s: %s\n", link, reason)
	}
	return nil
}
