package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bdexports/internal/exporter"
	"bdexports/internal/shared/testutil"
	"bdexports/pkg/contracts/domain"
)

type fixture struct {
	dir     string
	input   string
	opts    Options
	logger  *slog.Logger
	handler *testutil.BufferedSlogHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "product_wise")
	require.NoError(t, os.MkdirAll(input, 0o755))
	logger, handler := testutil.NewTestLogger(t)
	return &fixture{
		dir:   dir,
		input: input,
		opts: Options{
			InputDir:      input,
			OutputCSV:     filepath.Join(dir, "monthly_export_data.csv"),
			ProcessedList: filepath.Join(dir, "processed_files.txt"),
			FailedList:    filepath.Join(dir, "failed_files.txt"),
		},
		logger:  logger,
		handler: handler,
	}
}

func (f *fixture) report(t *testing.T, name string, sections map[string]map[string]float64, order ...string) {
	t.Helper()
	testutil.WriteWorkbook(t, f.input, name, testutil.TwoDigitSheet(sections, order...))
}

func (f *fixture) run(t *testing.T, options ...Option) (*Result, error) {
	t.Helper()
	o, err := New(f.opts, f.logger, options...)
	require.NoError(t, err)
	return o.Run(context.Background())
}

func (f *fixture) lines(t *testing.T, path string) []string {
	t.Helper()
	lines, err := exporter.ReadLines(path)
	require.NoError(t, err)
	return lines
}

func (f *fixture) seedMixed(t *testing.T) {
	f.report(t, "Product_wise_export_2Digit_Jul_Aug_2023_2024.xlsx", map[string]map[string]float64{
		"61": {"Germany": 1000, "Japan": 300},
	}, "61")
	f.report(t, "Product_wise_export_2Digit_Jul_Sep_2023_2024.xlsx", map[string]map[string]float64{
		"61": {"Germany": 2500, "Japan": 250},
		"62": {"Germany": 80},
	}, "61", "62")
	f.report(t, "random_report.xlsx", map[string]map[string]float64{"61": {"Germany": 1}}, "61")
	testutil.WriteWorkbook(t, f.input, "Product_wise_export_2Digit_Jul_Oct_2023_2024.xlsx",
		testutil.Sheet{Name: "4 Digit", Rows: [][]interface{}{{"6101: Overcoats"}}})
	testutil.WriteGarbage(t, f.input, "Product_wise_export_2Digit_Jul_Nov_2023_2024.xlsx")
	testutil.WriteGarbage(t, f.input, "readme.txt")
}

func TestRun_MixedInputs(t *testing.T) {
	f := newFixture(t)
	f.seedMixed(t)

	res, err := f.run(t)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Product_wise_export_2Digit_Jul_Aug_2023_2024.xlsx",
		"Product_wise_export_2Digit_Jul_Sep_2023_2024.xlsx",
	}, res.Manifest.Processed)
	require.Len(t, res.Manifest.Failed, 3)
	assert.Equal(t, "Product_wise_export_2Digit_Jul_Nov_2023_2024.xlsx", res.Manifest.Failed[0].Name)
	assert.Contains(t, res.Manifest.Failed[0].Reason, "failed to read workbook")
	assert.Equal(t, domain.FileFailure{
		Name:   "Product_wise_export_2Digit_Jul_Oct_2023_2024.xlsx",
		Reason: `sheet "2 Digit" not found`,
	}, res.Manifest.Failed[1])
	assert.Equal(t, domain.FileFailure{Name: "random_report.xlsx", Reason: "unrecognised filename"}, res.Manifest.Failed[2])

	records, err := exporter.ReadMonthly(f.opts.OutputCSV)
	require.NoError(t, err)
	var got []string
	for _, r := range records {
		got = append(got, r.HSCode+"|"+r.Country+"|"+r.Month+"|"+formatFloat(r.USD))
	}
	assert.Equal(t, []string{
		"61|Germany|August-2023|1000.00",
		"61|Germany|September-2023|1500.00",
		"61|Japan|August-2023|300.00",
		"61|Japan|September-2023|0.00",
		"62|Germany|September-2023|80.00",
	}, got)

	assert.Equal(t, 1, res.Diagnostics.Clamped)
	testutil.AssertLogged(t, f.handler, slog.LevelWarn, "not monotonic")

	assert.Equal(t, res.Manifest.Processed, f.lines(t, f.opts.ProcessedList))
	assert.Equal(t, []string{
		res.Manifest.Failed[0].String(),
		`Product_wise_export_2Digit_Jul_Oct_2023_2024.xlsx (sheet "2 Digit" not found)`,
		"random_report.xlsx (unrecognised filename)",
	}, f.lines(t, f.opts.FailedList))
}

func TestRun_AllFilesFail(t *testing.T) {
	f := newFixture(t)
	f.report(t, "no_period_here.xlsx", map[string]map[string]float64{"61": {"Germany": 1}}, "61")
	testutil.WriteGarbage(t, f.input, "Product_wise_export_2Digit_Jul_Aug_2023_2024.xlsx")

	res, err := f.run(t)
	require.ErrorIs(t, err, ErrNoValidFiles)
	assert.Nil(t, res)

	assert.NoFileExists(t, f.opts.OutputCSV)
	assert.Len(t, f.lines(t, f.opts.FailedList), 2)
	assert.FileExists(t, f.opts.ProcessedList)
	testutil.AssertLogged(t, f.handler, slog.LevelError, "No workbook could be parsed")
}

func TestRun_EmptyDirectory(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t)
	assert.ErrorIs(t, err, ErrNoValidFiles)
}

func TestRun_MissingDirectory(t *testing.T) {
	f := newFixture(t)
	f.opts.InputDir = filepath.Join(f.dir, "missing")

	_, err := f.run(t)
	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageDiscover, stageErr.Stage)
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	f := newFixture(t)
	f.seedMixed(t)

	sequential, err := f.run(t)
	require.NoError(t, err)

	f.opts.Workers = 4
	parallel, err := f.run(t)
	require.NoError(t, err)

	assert.Equal(t, sequential.Records, parallel.Records)
	assert.Equal(t, sequential.Manifest.Processed, parallel.Manifest.Processed)
	assert.Equal(t, sequential.Manifest.Failed, parallel.Manifest.Failed)
}

func TestRun_CancelledContext(t *testing.T) {
	f := newFixture(t)
	f.seedMixed(t)

	o, err := New(f.opts, f.logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = o.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, f.opts.OutputCSV)
}

type recordingStore struct {
	records []domain.MonthlyRecord
	err     error
}

func (s *recordingStore) ReplaceMonthly(_ context.Context, records []domain.MonthlyRecord) error {
	s.records = records
	return s.err
}

type recordingPublisher struct {
	runID string
	paths []string
}

func (p *recordingPublisher) PublishRun(_ context.Context, runID string, paths []string) error {
	p.runID, p.paths = runID, paths
	return nil
}

func TestRun_StoreAndPublish(t *testing.T) {
	f := newFixture(t)
	f.seedMixed(t)

	st := &recordingStore{}
	pub := &recordingPublisher{}
	res, err := f.run(t, WithStore(st), WithPublisher(pub))
	require.NoError(t, err)

	assert.Equal(t, res.Records, st.records)
	assert.Equal(t, res.RunID, pub.runID)
	assert.Equal(t, []string{f.opts.OutputCSV, f.opts.ProcessedList, f.opts.FailedList}, pub.paths)
}

func TestRun_StoreFailureKeepsOutputs(t *testing.T) {
	f := newFixture(t)
	f.seedMixed(t)

	res, err := f.run(t, WithStore(&recordingStore{err: errors.New("disk full")}))
	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageStore, stageErr.Stage)
	require.NotNil(t, res)
	assert.FileExists(t, f.opts.OutputCSV)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{OutputCSV: "x.csv"}, nil)
	assert.Error(t, err)
	_, err = New(Options{InputDir: "in"}, nil)
	assert.Error(t, err)

	o, err := New(Options{InputDir: "in", OutputCSV: "x.csv"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "2 Digit", o.opts.SheetName)
	assert.Equal(t, 1, o.opts.Workers)
}

func TestFailureKind(t *testing.T) {
	assert.Equal(t, "unrecognised_filename", failureKind(errUnrecognised))
	assert.Equal(t, "other", failureKind(errors.New("boom")))
	assert.Equal(t, "none", failureKind(nil))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
