// Command processor turns the cumulative export workbooks in the input
// directory into the monthly export dataset.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bdexports/internal/app"
	"bdexports/internal/pipeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "processor: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("processor", flag.ContinueOnError)
	configFile := fs.String("config", "", "path to a YAML config file")
	baseDir := fs.String("base", "", "base directory holding data/ and logs/")
	inDir := fs.String("in", "", "directory of renamed 2-digit workbooks (defaults to data/product_wise)")
	sheet := fs.String("sheet", "", "sheet holding the HS/country table")
	out := fs.String("out", "", "monthly CSV to write (defaults to data/monthly_export_data.csv)")
	workers := fs.Int("workers", 0, "workbooks parsed in parallel")
	noStore := fs.Bool("no-store", false, "do not mirror the result into the configured store")
	noPublish := fs.Bool("no-publish", false, "do not upload the result to the configured bucket")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := app.Bootstrap(*configFile, *baseDir)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	opts := pipeline.OptionsFromConfig(rt.Config.Pipeline)
	if *inDir != "" {
		opts.InputDir = *inDir
	}
	if *sheet != "" {
		opts.SheetName = *sheet
	}
	if *out != "" {
		opts.OutputCSV = *out
	}
	if *workers > 0 {
		opts.Workers = *workers
	}

	metrics, err := rt.Metrics()
	if err != nil {
		return err
	}
	options := []pipeline.Option{pipeline.WithMetrics(metrics), pipeline.WithTracer(rt.Telemetry.Tracer)}

	if !*noStore && app.StoreEnabled(rt.Config.Store) {
		st, err := app.OpenStore(rt.Config.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		options = append(options, pipeline.WithStore(st))
	}
	if !*noPublish {
		pub, err := app.OpenPublisher(ctx, rt.Config.Publish, rt.Logger)
		if err != nil {
			return err
		}
		if pub != nil {
			options = append(options, pipeline.WithPublisher(pub))
		}
	}

	orch, err := pipeline.New(opts, rt.Logger, options...)
	if err != nil {
		return err
	}

	res, err := orch.Run(ctx)
	if res != nil {
		printSummary(stdout, res, opts)
	}
	if errors.Is(err, pipeline.ErrNoValidFiles) {
		fmt.Fprintf(stdout, "No valid Excel files were parsed. See %s for details.\n", opts.FailedList)
	}
	if err != nil {
		rt.Logger.Error("Processing failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

func printSummary(w io.Writer, res *pipeline.Result, opts pipeline.Options) {
	fmt.Fprintf(w, "Processed %d file(s), failed %d, in %s\n",
		len(res.Manifest.Processed), len(res.Manifest.Failed), res.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Wrote %d monthly record(s) to %s\n", len(res.Records), opts.OutputCSV)
	if d := res.Diagnostics; d.Clamped > 0 || d.Duplicates > 0 {
		fmt.Fprintf(w, "Warning: %d negative flow(s) clamped to zero, %d duplicate period(s)\n", d.Clamped, d.Duplicates)
	}
	for _, f := range res.Manifest.Failed {
		fmt.Fprintf(w, "  skipped %s\n", f)
	}
}
