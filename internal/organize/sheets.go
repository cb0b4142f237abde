package organize

import (
	"log/slog"
	"path/filepath"

	"bdexports/internal/files"
	"bdexports/internal/workbook"
)

// MoveWithSheet moves every workbook in srcDir that has a sheet named sheet
// (case-insensitive) into dstDir. Unreadable workbooks stay where they are.
func (o *Organizer) MoveWithSheet(srcDir, dstDir, sheet string) (*Summary, error) {
	found, err := files.FindWorkbooks(srcDir)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	for _, f := range found {
		names, err := workbook.SheetNames(f.Path)
		if err != nil {
			o.logger.Warn("Unable to read workbook", slog.String("file", f.Name), slog.String("error", err.Error()))
			summary.fail(f.Name, err)
			continue
		}
		if _, ok := workbook.FindSheet(names, sheet); !ok {
			summary.Skipped = append(summary.Skipped, f.Name)
			continue
		}
		if err := o.files.MoveFile(f.Path, filepath.Join(dstDir, f.Name)); err != nil {
			summary.fail(f.Name, err)
			continue
		}
		summary.Moved = append(summary.Moved, f.Name)
	}

	o.logger.Info("Sheet filter complete",
		slog.String("sheet", sheet),
		slog.Int("moved", len(summary.Moved)),
		slog.Int("skipped", len(summary.Skipped)),
		slog.Int("errors", len(summary.Errors)))
	return summary, nil
}
