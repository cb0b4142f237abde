package exporter

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes whole CSV files atomically: rows go to a temp file in
// the destination directory which is renamed over the target on success.
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteCSV replaces filePath with headers followed by records.
func (w *CSVWriter) WriteCSV(filePath string, headers []string, records [][]string) error {
	w.logger.Debug("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(records)))

	return writeAtomic(filePath, func(out io.Writer) error {
		cw := csv.NewWriter(out)
		if len(headers) > 0 {
			if err := cw.Write(headers); err != nil {
				return fmt.Errorf("failed to write headers: %w", err)
			}
		}
		for i, record := range records {
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("failed to write record %d: %w", i, err)
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// WriteLines replaces filePath with one line per entry.
func (w *CSVWriter) WriteLines(filePath string, lines []string) error {
	w.logger.Debug("Writing list file",
		slog.String("file_path", filePath),
		slog.Int("line_count", len(lines)))

	return writeAtomic(filePath, func(out io.Writer) error {
		bw := bufio.NewWriter(out)
		for _, line := range lines {
			if _, err := bw.WriteString(line + "\n"); err != nil {
				return err
			}
		}
		return bw.Flush()
	})
}

// ReadCSV returns the header row and the data rows of a CSV file.
// A leading UTF-8 BOM is ignored.
func ReadCSV(filePath string) ([]string, [][]string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%s is empty", filePath)
	}
	return rows[0], rows[1:], nil
}

// ReadLines returns the non-blank lines of a text file, trimmed.
func ReadLines(filePath string) ([]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

func writeAtomic(filePath string, fill func(io.Writer) error) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := fill(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", filePath, err)
	}
	return nil
}
