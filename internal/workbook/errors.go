package workbook

import (
	"errors"
	"fmt"
)

var (
	// ErrSheetNotFound is returned when the workbook has no sheet with the requested name.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrNoRows is returned when the sheet exists but yields no HS/country rows.
	ErrNoRows = errors.New("no HS/country rows found")
	// ErrUnsupportedFormat is returned for files that are not .xls or .xlsx workbooks.
	ErrUnsupportedFormat = errors.New("unsupported workbook format")
)

// SheetError reports a sheet-level failure for a named sheet.
type SheetError struct {
	Sheet string
	Err   error
}

func (e *SheetError) Error() string {
	if errors.Is(e.Err, ErrSheetNotFound) {
		return fmt.Sprintf("sheet %q not found", e.Sheet)
	}
	return fmt.Sprintf("sheet %q: %v", e.Sheet, e.Err)
}

func (e *SheetError) Unwrap() error { return e.Err }

// ReadError wraps failures to open or decode a workbook.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read workbook: %v", e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
