package cleaning

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"bdexports/internal/exporter"
	"bdexports/pkg/contracts/domain"
)

// Cleaner runs the cleaning steps against CSV files on disk.
type Cleaner struct {
	monthly *exporter.MonthlyExporter
	csv     *exporter.CSVWriter
	logger  *slog.Logger
}

// NewCleaner creates a file-backed cleaner.
func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{
		monthly: exporter.NewMonthlyExporter(logger),
		csv:     exporter.NewCSVWriter(logger),
		logger:  logger.With(slog.String("component", "cleaner")),
	}
}

// CleanFile reads the monthly dataset at in and writes the cleaned dataset to out.
func (c *Cleaner) CleanFile(in, out string) ([]domain.MonthlyRecord, Stats, error) {
	records, err := exporter.ReadMonthly(in)
	if err != nil {
		return nil, Stats{}, err
	}

	cleaned, stats := Clean(records)
	if err := c.monthly.WriteMonthly(out, cleaned); err != nil {
		return nil, stats, fmt.Errorf("failed to write cleaned dataset: %w", err)
	}

	c.logger.Info("Countries cleaned",
		slog.String("input", in),
		slog.String("output", out),
		slog.Int("rows_in", stats.Input),
		slog.Int("rows_out", stats.Output),
		slog.Int("junk_dropped", stats.Junk),
		slog.Int("renamed", stats.Renamed))
	return cleaned, stats, nil
}

// WriteCountries writes the sorted distinct countries of records, one per line.
func (c *Cleaner) WriteCountries(path string, records []domain.MonthlyRecord) ([]string, error) {
	countries := UniqueCountries(records)
	if err := c.csv.WriteLines(path, countries); err != nil {
		return nil, fmt.Errorf("failed to write country list: %w", err)
	}
	return countries, nil
}

// VerifyFiles compares the zero rows of the cleaned dataset with the original
// dataset and writes the report CSV.
func (c *Cleaner) VerifyFiles(originalPath, cleanedPath, reportPath string) ([]Verification, error) {
	original, err := exporter.ReadMonthly(originalPath)
	if err != nil {
		return nil, err
	}
	cleaned, err := exporter.ReadMonthly(cleanedPath)
	if err != nil {
		return nil, err
	}

	results := VerifyZeroRows(original, cleaned)
	rows := make([][]string, len(results))
	unverified := 0
	for i, v := range results {
		verified := "Yes"
		if !v.Verified {
			verified = "No"
			unverified++
		}
		rows[i] = []string{
			v.HSCode,
			v.Country,
			v.Month,
			strconv.FormatFloat(v.USD, 'f', 2, 64),
			strconv.FormatFloat(v.OriginalSum, 'f', 2, 64),
			verified,
		}
	}
	if err := c.csv.WriteCSV(reportPath, VerificationHeader, rows); err != nil {
		return nil, fmt.Errorf("failed to write verification report: %w", err)
	}

	level := slog.LevelInfo
	if unverified > 0 {
		level = slog.LevelWarn
	}
	c.logger.Log(context.Background(), level, "Zero rows verified",
		slog.Int("zero_rows", len(results)),
		slog.Int("unverified", unverified),
		slog.String("report", reportPath))
	return results, nil
}
