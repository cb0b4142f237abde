package workbook

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Cell is one sheet cell. Numeric is set only when the workbook stores the
// cell as a number; text that merely looks like digits stays non-numeric.
type Cell struct {
	Value   string
	Numeric bool
}

// source is the minimal read surface shared by the .xlsx and .xls readers.
type source interface {
	SheetNames() []string
	Rows(sheet string, limit int) ([][]Cell, error)
	Close() error
}

// open picks a reader by file extension.
func open(path string) (source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return openXLSX(path)
	case ".xls":
		return openXLS(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// FindSheet returns the workbook's own spelling of name, matched case-insensitively.
func FindSheet(names []string, name string) (string, bool) {
	want := strings.TrimSpace(name)
	for _, n := range names {
		if strings.EqualFold(strings.TrimSpace(n), want) {
			return n, true
		}
	}
	return "", false
}

// SheetNames lists the sheets of the workbook at path.
func SheetNames(path string) ([]string, error) {
	src, err := open(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	defer src.Close()
	return src.SheetNames(), nil
}

// ReadRows returns the cell text of up to limit rows (all rows when limit <= 0)
// of the named sheet.
func ReadRows(path, sheet string, limit int) ([][]string, error) {
	rows, err := ReadCells(path, sheet, limit)
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		if row == nil {
			continue
		}
		out[i] = make([]string, len(row))
		for j, c := range row {
			out[i][j] = c.Value
		}
	}
	return out, nil
}

// ReadCells is ReadRows with the stored cell types kept.
func ReadCells(path, sheet string, limit int) ([][]Cell, error) {
	src, err := open(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	defer src.Close()

	actual, ok := FindSheet(src.SheetNames(), sheet)
	if !ok {
		return nil, &SheetError{Sheet: sheet, Err: ErrSheetNotFound}
	}
	rows, err := src.Rows(actual, limit)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return rows, nil
}

type xlsxSource struct {
	f *excelize.File
}

func openXLSX(path string) (source, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return &xlsxSource{f: f}, nil
}

func (s *xlsxSource) SheetNames() []string { return s.f.GetSheetList() }

// Rows returns raw cell values so numeric cells are not run through number formats.
func (s *xlsxSource) Rows(sheet string, limit int) ([][]Cell, error) {
	raw, err := s.f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(raw) > limit {
		raw = raw[:limit]
	}
	rows := make([][]Cell, len(raw))
	for r, values := range raw {
		rows[r] = make([]Cell, len(values))
		for c, v := range values {
			rows[r][c] = Cell{Value: v}
			if strings.TrimSpace(v) == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			typ, err := s.f.GetCellType(sheet, axis)
			if err != nil {
				return nil, err
			}
			rows[r][c].Numeric = xlsxNumeric(typ, v)
		}
	}
	return rows, nil
}

// xlsxNumeric reports whether a cell holds a number. Writers often leave the
// type attribute off numeric cells, so an untyped cell counts when its raw value parses.
func xlsxNumeric(typ excelize.CellType, raw string) bool {
	switch typ {
	case excelize.CellTypeNumber:
		return true
	case excelize.CellTypeUnset:
		_, err := strconv.ParseFloat(raw, 64)
		return err == nil
	default:
		return false
	}
}

func (s *xlsxSource) Close() error { return s.f.Close() }

type xlsSource struct {
	wb     *xls.WorkBook
	closer io.Closer
}

func openXLS(path string) (src source, err error) {
	// The BIFF decoder panics on some truncated files.
	defer func() {
		if r := recover(); r != nil {
			src, err = nil, fmt.Errorf("corrupt xls file: %v", r)
		}
	}()

	wb, closer, err := xls.OpenWithCloser(path, "utf-8")
	if err != nil {
		return nil, err
	}
	return &xlsSource{wb: wb, closer: closer}, nil
}

func (s *xlsSource) SheetNames() []string {
	names := make([]string, 0, s.wb.NumSheets())
	for i := 0; i < s.wb.NumSheets(); i++ {
		if sheet := s.wb.GetSheet(i); sheet != nil {
			names = append(names, sheet.Name)
		}
	}
	return names
}

func (s *xlsSource) Rows(name string, limit int) (rows [][]Cell, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("corrupt xls sheet %q: %v", name, r)
		}
	}()

	for i := 0; i < s.wb.NumSheets(); i++ {
		sheet := s.wb.GetSheet(i)
		if sheet == nil || sheet.Name != name {
			continue
		}
		for r := 0; r <= int(sheet.MaxRow) && (limit <= 0 || r < limit); r++ {
			row := sheetRow(sheet, r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]Cell, 0, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				v := row.Col(c)
				cells = append(cells, Cell{Value: v, Numeric: xlsNumeric(v)})
			}
			rows = append(rows, cells)
		}
		return rows, nil
	}
	return nil, fmt.Errorf("sheet %q vanished while reading", name)
}

func (s *xlsSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// sheetRow returns nil for rows the sheet never stored; WorkSheet.Row
// dereferences the missing entry instead of reporting it.
func sheetRow(sheet *xls.WorkSheet, r int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(r)
}

// xlsNumeric classifies a BIFF cell by its rendering. The reader does not
// expose record types, but NUMBER and RK records always render in the
// shortest plain decimal form, which hand-typed labels rarely match exactly.
func xlsNumeric(v string) bool {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return false
	}
	return strconv.FormatFloat(f, 'f', -1, 64) == v
}
