package organize

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bdexports/internal/exporter"
)

// ListedName strips a trailing " (reason)" from a failed-manifest line.
func ListedName(line string) string {
	line = strings.TrimSpace(line)
	if strings.HasSuffix(line, ")") {
		if i := strings.Index(line, " ("); i > 0 {
			return line[:i]
		}
	}
	return line
}

// CopySkipped copies every file named in listPath from dataDir into failedDir.
// Names missing from dataDir are reported in Summary.Skipped.
func (o *Organizer) CopySkipped(dataDir, listPath, failedDir string) (*Summary, error) {
	lines, err := exporter.ReadLines(listPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("skipped list not found: %s", listPath)
		}
		return nil, err
	}

	summary := &Summary{}
	for _, line := range lines {
		name := ListedName(line)
		src := filepath.Join(dataDir, name)
		if _, err := os.Stat(src); err != nil {
			o.logger.Warn("Listed file is missing", slog.String("file", name))
			summary.Skipped = append(summary.Skipped, name)
			continue
		}
		if err := o.files.CopyFile(src, filepath.Join(failedDir, name)); err != nil {
			summary.fail(name, err)
			continue
		}
		summary.Moved = append(summary.Moved, name)
	}

	o.logger.Info("Skipped files copied",
		slog.String("failed_dir", failedDir),
		slog.Int("copied", len(summary.Moved)),
		slog.Int("missing", len(summary.Skipped)))
	return summary, nil
}
