// Package workbook extracts cumulative HS-code/country export figures from the
// agency's "2 Digit" report sheets.
//
// The sheets have no fixed schema: HS-code section headers ("61: Articles of
// apparel...") and country rows ("US: United States ... 1234.5") appear in
// arbitrary leading columns. Rows are read top to bottom by a two-state scanner
// that tracks the most recent HS header.
package workbook

import (
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"bdexports/pkg/contracts/domain"
)

// DefaultSheet is the sheet holding the 2-digit HS breakdown.
const DefaultSheet = "2 Digit"

// leadingCells is how many cells at the start of a row may carry a header or country label.
const leadingCells = 3

var (
	hsHeaderPattern = regexp.MustCompile(`^(\d{2}):`)
	countryPattern  = regexp.MustCompile(`([A-Z]{2}):\s?([\p{L}\p{N}_\s.&,'-]+)`)
	groupedNumber   = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+(\.\d+)?$`)
)

type scanState int

const (
	awaitingHeader scanState = iota
	scanningCountries
)

// Parser reads observations from workbook files.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a parser. A nil logger falls back to slog.Default.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger.With(slog.String("component", "workbook_parser"))}
}

// Parse returns the observations in the named sheet of the workbook at path.
// On failure the error text is the human-readable reason for the failed manifest.
func (p *Parser) Parse(path, sheet string) ([]domain.RawObservation, error) {
	rows, err := ReadCells(path, sheet, 0)
	if err != nil {
		return nil, err
	}

	observations := ScanRows(rows)
	if len(observations) == 0 {
		return nil, &SheetError{Sheet: sheet, Err: ErrNoRows}
	}

	p.logger.Debug("Workbook parsed",
		slog.String("path", path),
		slog.Int("rows", len(rows)),
		slog.Int("observations", len(observations)))
	return observations, nil
}

// ScanRows runs the header/country scanner over already-read sheet rows.
func ScanRows(rows [][]Cell) []domain.RawObservation {
	var (
		state  = awaitingHeader
		cursor string
		out    []domain.RawObservation
	)

	for _, row := range rows {
		if code, ok := matchHSHeader(row); ok {
			cursor = code
			state = scanningCountries
			continue
		}
		if state == awaitingHeader {
			continue
		}

		country, ok := matchCountry(row)
		if !ok {
			continue
		}
		value, ok := lastNumber(row)
		if !ok {
			continue
		}
		out = append(out, domain.RawObservation{
			HSCode:        cursor,
			Country:       country,
			CumulativeUSD: value,
		})
	}
	return out
}

func matchHSHeader(row []Cell) (string, bool) {
	for _, cell := range lead(row) {
		if m := hsHeaderPattern.FindStringSubmatch(strings.TrimSpace(cell.Value)); m != nil {
			return m[1], true
		}
	}
	return "", false
}

func matchCountry(row []Cell) (string, bool) {
	for _, cell := range lead(row) {
		if m := countryPattern.FindStringSubmatch(strings.TrimSpace(cell.Value)); m != nil {
			if name := strings.TrimSpace(m[2]); name != "" {
				return name, true
			}
		}
	}
	return "", false
}

// lastNumber scans from the end of the row; the last numeric cell wins.
// Comma-grouped figures stored as text are used only when the row has no
// numeric cell at all.
func lastNumber(row []Cell) (float64, bool) {
	for i := len(row) - 1; i >= 0; i-- {
		if !row[i].Numeric {
			continue
		}
		if v, ok := ParseNumber(row[i].Value); ok {
			return v, true
		}
	}
	for i := len(row) - 1; i >= 0; i-- {
		s := strings.TrimSpace(row[i].Value)
		if row[i].Numeric || !groupedNumber.MatchString(s) {
			continue
		}
		if v, ok := ParseNumber(s); ok {
			return v, true
		}
	}
	return 0, false
}

// ParseNumber accepts plain decimal cells and comma-grouped figures ("1,234.50").
// Blank, non-numeric and non-finite cells are rejected.
func ParseNumber(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	if groupedNumber.MatchString(s) {
		s = strings.ReplaceAll(s, ",", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func lead(row []Cell) []Cell {
	if len(row) > leadingCells {
		return row[:leadingCells]
	}
	return row
}
