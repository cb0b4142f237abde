// Package pipeline runs the monthly reconstruction over a directory of
// cumulative export workbooks.
//
// Every workbook is resolved to a period from its file name, then parsed.
// Per-file failures are recorded in the failed manifest and never stop the
// run. The surviving observations are differenced into monthly flows and
// written as one CSV, optionally mirrored into a store and published.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"bdexports/internal/config"
	"bdexports/internal/exporter"
	"bdexports/internal/files"
	"bdexports/internal/infrastructure"
	"bdexports/internal/period"
	"bdexports/internal/reconstruct"
	"bdexports/internal/workbook"
	"bdexports/pkg/contracts/domain"
)

// Options configures a run.
type Options struct {
	InputDir      string
	SheetName     string
	OutputCSV     string
	ProcessedList string // empty disables the processed manifest
	FailedList    string // empty disables the failed manifest
	Workers       int
}

// OptionsFromConfig maps the pipeline section of the configuration.
func OptionsFromConfig(cfg config.PipelineConfig) Options {
	return Options{
		InputDir:      cfg.InputDir,
		SheetName:     cfg.SheetName,
		OutputCSV:     cfg.OutputCSV,
		ProcessedList: cfg.ProcessedList,
		FailedList:    cfg.FailedList,
		Workers:       cfg.Workers,
	}
}

// MonthlyStore receives the full monthly table after a successful run.
type MonthlyStore interface {
	ReplaceMonthly(ctx context.Context, records []domain.MonthlyRecord) error
}

// Publisher uploads the run's output files.
type Publisher interface {
	PublishRun(ctx context.Context, runID string, paths []string) error
}

// Result is the outcome of a successful run.
type Result struct {
	RunID       string
	Records     []domain.MonthlyRecord
	Manifest    domain.Manifest
	Diagnostics reconstruct.Diagnostics
	Elapsed     time.Duration
}

// Orchestrator wires the parser, resolver and reconstructor together.
type Orchestrator struct {
	opts      Options
	parser    *workbook.Parser
	exporter  *exporter.MonthlyExporter
	logger    *slog.Logger
	metrics   *infrastructure.PipelineMetrics
	tracer    trace.Tracer
	store     MonthlyStore
	publisher Publisher
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics records run metrics on m.
func WithMetrics(m *infrastructure.PipelineMetrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// WithStore mirrors the monthly table into s after each successful run.
func WithStore(s MonthlyStore) Option {
	return func(o *Orchestrator) { o.store = s }
}

// WithPublisher uploads the CSV and manifests after each successful run.
func WithPublisher(p Publisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

// New creates an orchestrator. Zero Workers means sequential processing and
// an empty SheetName means the "2 Digit" sheet.
func New(opts Options, logger *slog.Logger, options ...Option) (*Orchestrator, error) {
	if opts.InputDir == "" {
		return nil, fmt.Errorf("input directory is required")
	}
	if opts.OutputCSV == "" {
		return nil, fmt.Errorf("output CSV path is required")
	}
	if opts.SheetName == "" {
		opts.SheetName = workbook.DefaultSheet
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	o := &Orchestrator{
		opts:     opts,
		parser:   workbook.NewParser(logger),
		exporter: exporter.NewMonthlyExporter(logger),
		logger:   logger.With(slog.String("component", "pipeline")),
		tracer:   otel.Tracer(infrastructure.InstrumentationName),
	}
	for _, opt := range options {
		opt(o)
	}
	if o.metrics == nil {
		m, err := infrastructure.NewPipelineMetrics(nil)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// fileOutcome is the result of processing one workbook.
type fileOutcome struct {
	name         string
	observations []domain.TaggedObservation
	err          error
}

// Run processes the input directory once.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	ctx, runID := infrastructure.EnsureRunID(ctx)
	ctx, span := o.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.String("input.dir", o.opts.InputDir),
	))
	defer span.End()

	res, err := o.run(ctx, runID)
	outcome := "success"
	if err != nil {
		outcome = "failed"
		infrastructure.RecordError(ctx, err)
	}
	o.metrics.RunFinished(ctx, time.Since(started), outcome)
	if res != nil {
		res.Elapsed = time.Since(started)
	}
	return res, err
}

func (o *Orchestrator) run(ctx context.Context, runID string) (*Result, error) {
	found, err := files.FindWorkbooks(o.opts.InputDir)
	if err != nil {
		return nil, &StageError{Stage: StageDiscover, Err: err}
	}
	o.logger.InfoContext(ctx, "Pipeline run started",
		slog.String("input_dir", o.opts.InputDir),
		slog.Int("files", len(found)),
		slog.Int("workers", o.opts.Workers))

	outcomes := make([]fileOutcome, len(found))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Workers)
	for i, f := range found {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = o.processFile(gctx, f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	manifest := domain.Manifest{RunID: runID, Processed: []string{}, Failed: []domain.FileFailure{}}
	var observations []domain.TaggedObservation
	for _, out := range outcomes {
		if out.err != nil {
			manifest.Failed = append(manifest.Failed, domain.FileFailure{Name: out.name, Reason: out.err.Error()})
			continue
		}
		manifest.Processed = append(manifest.Processed, out.name)
		observations = append(observations, out.observations...)
	}

	if err := o.exporter.WriteManifest(o.opts.ProcessedList, o.opts.FailedList, manifest); err != nil {
		return nil, &StageError{Stage: StageManifest, Err: err}
	}

	if len(manifest.Processed) == 0 {
		o.logger.ErrorContext(ctx, "No workbook could be parsed",
			slog.Int("failed", len(manifest.Failed)),
			slog.String("failed_list", o.opts.FailedList))
		return nil, ErrNoValidFiles
	}

	records, diag := reconstruct.Reconstruct(observations)
	o.metrics.ReconstructionDone(ctx, diag.Records, diag.Clamped, diag.Duplicates)
	if diag.Clamped > 0 || diag.Duplicates > 0 {
		o.logger.WarnContext(ctx, "Cumulative series were not monotonic",
			slog.Int("clamped", diag.Clamped),
			slog.Int("duplicate_periods", diag.Duplicates),
			slog.Int("groups", diag.Groups))
	}

	if err := o.exporter.WriteMonthly(o.opts.OutputCSV, records); err != nil {
		return nil, &StageError{Stage: StageWrite, Err: err}
	}

	res := &Result{RunID: runID, Records: records, Manifest: manifest, Diagnostics: diag}
	o.logger.InfoContext(ctx, "Pipeline run complete",
		slog.Int("processed", len(manifest.Processed)),
		slog.Int("failed", len(manifest.Failed)),
		slog.Int("records", len(records)),
		slog.String("output", o.opts.OutputCSV))

	if o.store != nil {
		if err := o.store.ReplaceMonthly(ctx, records); err != nil {
			return res, &StageError{Stage: StageStore, Err: err}
		}
	}
	if o.publisher != nil {
		if err := o.publisher.PublishRun(ctx, runID, o.artifacts()); err != nil {
			return res, &StageError{Stage: StagePublish, Err: err}
		}
	}
	return res, nil
}

// processFile resolves and parses one workbook. It never returns a run-level error.
func (o *Orchestrator) processFile(ctx context.Context, f files.FileInfo) fileOutcome {
	ctx, span := o.tracer.Start(ctx, "pipeline.file", trace.WithAttributes(attribute.String("file.name", f.Name)))
	defer span.End()

	out := fileOutcome{name: f.Name}
	tag, ok := period.Resolve(f.Name)
	if !ok {
		out.err = errUnrecognised
		o.fail(ctx, f.Name, out.err)
		return out
	}

	raw, err := o.parser.Parse(f.Path, o.opts.SheetName)
	if err != nil {
		out.err = err
		o.fail(ctx, f.Name, err)
		return out
	}

	out.observations = make([]domain.TaggedObservation, len(raw))
	for i, r := range raw {
		out.observations[i] = domain.TaggedObservation{RawObservation: r, PeriodTag: tag, SourceFile: f.Name}
	}
	o.metrics.FileProcessed(ctx)
	o.logger.InfoContext(ctx, "Workbook processed",
		slog.String("file", f.Name),
		slog.Int("fiscal_year", tag.FiscalYear),
		slog.String("month", tag.Label()),
		slog.Int("observations", len(raw)))
	return out
}

func (o *Orchestrator) fail(ctx context.Context, name string, err error) {
	o.metrics.FileFailed(ctx, failureKind(err))
	infrastructure.RecordError(ctx, err)
	o.logger.WarnContext(ctx, "Workbook skipped",
		slog.String("file", name),
		slog.String("reason", err.Error()))
}

func (o *Orchestrator) artifacts() []string {
	paths := []string{o.opts.OutputCSV}
	for _, p := range []string{o.opts.ProcessedList, o.opts.FailedList} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
