package exporter

import (
	"fmt"
	"log/slog"
	"strings"

	"bdexports/pkg/contracts/domain"
)

// MonthlyExporter reads and writes the long-format monthly dataset.
type MonthlyExporter struct {
	csvWriter *CSVWriter
}

// NewMonthlyExporter creates a monthly dataset exporter.
func NewMonthlyExporter(logger *slog.Logger) *MonthlyExporter {
	return &MonthlyExporter{csvWriter: NewCSVWriter(logger)}
}

// WriteMonthly writes records in the given order under the hs_code,country,month,USD header.
func (e *MonthlyExporter) WriteMonthly(path string, records []domain.MonthlyRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.HSCode, r.Country, r.Month, formatUSD(r.USD)})
	}
	return e.csvWriter.WriteCSV(path, domain.MonthlyCSVHeader, rows)
}

// WriteManifest writes the processed list (one filename per line) and the
// failed list ("name (reason)" per line). Empty paths are skipped.
func (e *MonthlyExporter) WriteManifest(processedPath, failedPath string, m domain.Manifest) error {
	if processedPath != "" {
		if err := e.csvWriter.WriteLines(processedPath, m.Processed); err != nil {
			return fmt.Errorf("failed to write processed list: %w", err)
		}
	}
	if failedPath != "" {
		lines := make([]string, len(m.Failed))
		for i, f := range m.Failed {
			lines[i] = f.String()
		}
		if err := e.csvWriter.WriteLines(failedPath, lines); err != nil {
			return fmt.Errorf("failed to write failed list: %w", err)
		}
	}
	return nil
}

// ReadMonthly loads a monthly dataset. Columns are located by header name,
// so extra columns and any column order are accepted.
func ReadMonthly(path string) ([]domain.MonthlyRecord, error) {
	header, rows, err := ReadCSV(path)
	if err != nil {
		return nil, err
	}

	idx := columnIndex(header)
	cols := make([]int, len(domain.MonthlyCSVHeader))
	for i, name := range domain.MonthlyCSVHeader {
		c, ok := idx[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, name)
		}
		cols[i] = c
	}

	records := make([]domain.MonthlyRecord, 0, len(rows))
	for n, row := range rows {
		line := n + 2
		if len(row) <= maxIndex(cols) {
			return nil, fmt.Errorf("%s:%d: short row", path, line)
		}
		usd, err := parseUSD(row[cols[3]])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: invalid USD %q", path, line, row[cols[3]])
		}
		month := strings.TrimSpace(row[cols[2]])
		period, err := domain.ParseMonthLabel(month)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		records = append(records, domain.MonthlyRecord{
			HSCode:  strings.TrimSpace(row[cols[0]]),
			Country: row[cols[1]],
			Month:   month,
			USD:     usd,
			Period:  period,
		})
	}
	return records, nil
}

func maxIndex(cols []int) int {
	m := 0
	for _, c := range cols {
		if c > m {
			m = c
		}
	}
	return m
}
