package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths is the on-disk data layout shared by every command.
//
//	<base>/
//	  data/
//	    raw/                  downloaded workbooks
//	    product_2digit/       workbooks that carry a "2 Digit" sheet
//	    product_wise/         renamed workbooks, pipeline input
//	    product_wise_source/  originals archived by the renamer
//	    failed_files/         quarantined copies of failed inputs
//	    monthly_export_data.csv
//	  logs/
type Paths struct {
	BaseDir      string
	DataDir      string
	RawDir       string
	TwoDigitDir  string
	ProductDir   string
	ArchiveDir   string
	FailedDir    string
	LogsDir      string
	MonthlyCSV   string
	CleanedCSV   string
	Countries    string
	Verification string
	Processed    string
	Failed       string
}

// GetPaths resolves the layout below base. An empty base means the working directory.
func GetPaths(base string) (*Paths, error) {
	if base == "" {
		base = "."
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory %q: %w", base, err)
	}

	data := filepath.Join(abs, "data")
	return &Paths{
		BaseDir:      abs,
		DataDir:      data,
		RawDir:       filepath.Join(data, "raw"),
		TwoDigitDir:  filepath.Join(data, "product_2digit"),
		ProductDir:   filepath.Join(data, "product_wise"),
		ArchiveDir:   filepath.Join(data, "product_wise_source"),
		FailedDir:    filepath.Join(data, "failed_files"),
		LogsDir:      filepath.Join(abs, "logs"),
		MonthlyCSV:   filepath.Join(data, MonthlyCSVName),
		CleanedCSV:   filepath.Join(data, CleanedCSVName),
		Countries:    filepath.Join(data, CountriesFileName),
		Verification: filepath.Join(data, VerificationName),
		Processed:    filepath.Join(data, ProcessedListName),
		Failed:       filepath.Join(data, FailedListName),
	}, nil
}

// EnsureDirectories creates the data and log directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.RawDir, p.ProductDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ApplyDefaults fills empty pipeline, download and cleaning paths from the layout.
func (p *Paths) ApplyDefaults(cfg *Config) {
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&cfg.Pipeline.InputDir, p.ProductDir)
	fill(&cfg.Pipeline.OutputCSV, p.MonthlyCSV)
	fill(&cfg.Pipeline.ProcessedList, p.Processed)
	fill(&cfg.Pipeline.FailedList, p.Failed)
	fill(&cfg.Download.OutputDir, p.RawDir)
	fill(&cfg.Cleaning.InputCSV, p.MonthlyCSV)
	fill(&cfg.Cleaning.OutputCSV, p.CleanedCSV)
	fill(&cfg.Cleaning.CountriesFile, p.Countries)
	fill(&cfg.Cleaning.ReportCSV, p.Verification)
}

// LogPathResolution logs the resolved layout at debug level.
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Debug("Resolved data layout",
		slog.String("base_dir", p.BaseDir),
		slog.String("input_dir", p.ProductDir),
		slog.String("monthly_csv", p.MonthlyCSV),
		slog.String("logs_dir", p.LogsDir))
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
