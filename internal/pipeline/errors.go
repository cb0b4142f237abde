package pipeline

import (
	"errors"
	"fmt"

	"bdexports/internal/workbook"
)

// ErrNoValidFiles is returned when not a single workbook could be parsed.
// No monthly table is written in that case.
var ErrNoValidFiles = errors.New("no valid Excel files were parsed")

// errUnrecognised is the per-file failure for names that carry no period.
var errUnrecognised = errors.New("unrecognised filename")

// Stage names the part of a run that failed.
type Stage string

const (
	StageDiscover Stage = "discover"
	StageManifest Stage = "manifest"
	StageWrite    Stage = "write"
	StageStore    Stage = "store"
	StagePublish  Stage = "publish"
)

// StageError is a run-level failure, as opposed to a per-file failure
// which only lands in the failed manifest.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// failureKind buckets a per-file failure for metrics labels.
func failureKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, errUnrecognised):
		return "unrecognised_filename"
	case errors.Is(err, workbook.ErrSheetNotFound):
		return "sheet_not_found"
	case errors.Is(err, workbook.ErrNoRows):
		return "no_rows"
	case errors.Is(err, workbook.ErrUnsupportedFormat):
		return "unsupported_format"
	default:
		var readErr *workbook.ReadError
		if errors.As(err, &readErr) {
			return "read_error"
		}
		return "other"
	}
}
