// Package organize prepares downloaded workbooks for the pipeline: it picks
// out the workbooks carrying the 2-digit sheet, renames them after the period
// printed in their header, and quarantines files the pipeline rejected.
package organize

import (
	"log/slog"

	"bdexports/internal/files"
)

// Summary counts what a step did with each file it looked at.
type Summary struct {
	Moved   []string          `json:"moved"`
	Skipped []string          `json:"skipped"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func (s *Summary) fail(name string, err error) {
	if s.Errors == nil {
		s.Errors = make(map[string]string)
	}
	s.Errors[name] = err.Error()
}

// Organizer moves and copies workbooks between the data directories.
type Organizer struct {
	files  *files.Manager
	logger *slog.Logger
}

// New creates an Organizer.
func New(logger *slog.Logger) *Organizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Organizer{
		files:  files.NewManager(logger),
		logger: logger.With(slog.String("component", "organizer")),
	}
}
