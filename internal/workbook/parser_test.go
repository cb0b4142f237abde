package workbook

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bdexports/internal/shared/testutil"
	"bdexports/pkg/contracts/domain"
)

// cells builds a row: float64 values are stored numbers, strings are text.
func cells(values ...interface{}) []Cell {
	row := make([]Cell, len(values))
	for i, v := range values {
		switch v := v.(type) {
		case float64:
			row[i] = Cell{Value: strconv.FormatFloat(v, 'f', -1, 64), Numeric: true}
		case string:
			row[i] = Cell{Value: v}
		}
	}
	return row
}

func TestScanRows(t *testing.T) {
	tests := []struct {
		name string
		rows [][]Cell
		want []domain.RawObservation
	}{
		{
			name: "rows before first header are ignored",
			rows: [][]Cell{
				cells("US: United States", "", 999.0),
				cells("61: Articles of apparel, knitted"),
				cells("", "US: United States", "", 1000.0),
			},
			want: []domain.RawObservation{{HSCode: "61", Country: "United States", CumulativeUSD: 1000}},
		},
		{
			name: "header cursor moves between sections",
			rows: [][]Cell{
				cells("", "03: Fish"),
				cells("", "", "JP: Japan", 12.5),
				cells("62: Apparel, not knitted"),
				cells("DE: Germany", 40.0, 41.25),
			},
			want: []domain.RawObservation{
				{HSCode: "03", Country: "Japan", CumulativeUSD: 12.5},
				{HSCode: "62", Country: "Germany", CumulativeUSD: 41.25},
			},
		},
		{
			name: "last numeric cell wins and trailing blanks are skipped",
			rows: [][]Cell{
				cells("61: Apparel"),
				cells("GB: United Kingdom", 100.0, 200.0, "", "  "),
			},
			want: []domain.RawObservation{{HSCode: "61", Country: "United Kingdom", CumulativeUSD: 200}},
		},
		{
			name: "trailing text digits do not beat a stored number",
			rows: [][]Cell{
				cells("61: Apparel"),
				cells("US: United States", 1500.0, "2023"),
			},
			want: []domain.RawObservation{{HSCode: "61", Country: "United States", CumulativeUSD: 1500}},
		},
		{
			name: "grouped text figure is a fallback only",
			rows: [][]Cell{
				cells("61: Apparel"),
				cells("DE: Germany", 10.0, "1,000"),
				cells("IT: Italy", "1,234.50"),
			},
			want: []domain.RawObservation{
				{HSCode: "61", Country: "Germany", CumulativeUSD: 10},
				{HSCode: "61", Country: "Italy", CumulativeUSD: 1234.5},
			},
		},
		{
			name: "country rows without a number are skipped",
			rows: [][]Cell{
				cells("61: Apparel"),
				cells("FR: France", "n/a"),
				cells("ES: Spain", "2023"),
			},
			want: nil,
		},
		{
			name: "labels beyond the third cell do not count",
			rows: [][]Cell{
				cells("61: Apparel"),
				cells("", "", "", "US: United States", 10.0),
			},
			want: nil,
		},
		{
			name: "punctuation in country names is kept",
			rows: [][]Cell{
				cells("09: Coffee, tea"),
				cells("KR: Korea, Republic Of", 7.0),
				cells("BA: Bosnia & Herzegovina", 3.0),
			},
			want: []domain.RawObservation{
				{HSCode: "09", Country: "Korea, Republic Of", CumulativeUSD: 7},
				{HSCode: "09", Country: "Bosnia & Herzegovina", CumulativeUSD: 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScanRows(tt.rows))
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		cell string
		want float64
		ok   bool
	}{
		{"1000", 1000, true},
		{" 12.75 ", 12.75, true},
		{"1,234,567.89", 1234567.89, true},
		{"1e3", 1000, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"12,34", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			got, ok := ParseNumber(tt.cell)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestParser_Parse(t *testing.T) {
	dir := t.TempDir()
	logger, _ := testutil.NewTestLogger(t)
	parser := NewParser(logger)

	t.Run("reads the report sheet", func(t *testing.T) {
		path := testutil.WriteWorkbook(t, dir, "ok.xlsx",
			testutil.Sheet{Name: "Summary", Rows: [][]interface{}{{"ignored"}}},
			testutil.TwoDigitSheet(map[string]map[string]float64{
				"61": {"Germany": 1500, "Japan": 250.75},
			}, "61"),
		)

		got, err := parser.Parse(path, DefaultSheet)
		require.NoError(t, err)
		assert.Equal(t, []domain.RawObservation{
			{HSCode: "61", Country: "Germany", CumulativeUSD: 1500},
			{HSCode: "61", Country: "Japan", CumulativeUSD: 250.75},
		}, got)
	})

	t.Run("sheet name is matched case-insensitively", func(t *testing.T) {
		path := testutil.WriteWorkbook(t, dir, "case.xlsx", testutil.Sheet{
			Name: "2 DIGIT",
			Rows: [][]interface{}{{"03: Fish"}, {"JP: Japan", 10.0}},
		})

		got, err := parser.Parse(path, DefaultSheet)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "03", got[0].HSCode)
	})

	t.Run("text cells with digits are not values", func(t *testing.T) {
		path := testutil.WriteWorkbook(t, dir, "textdigits.xlsx", testutil.Sheet{
			Name: DefaultSheet,
			Rows: [][]interface{}{
				{"61: Apparel"},
				{"US: United States", 1500.0, "2023"},
				{"FR: France", "2023"},
			},
		})

		got, err := parser.Parse(path, DefaultSheet)
		require.NoError(t, err)
		assert.Equal(t, []domain.RawObservation{
			{HSCode: "61", Country: "United States", CumulativeUSD: 1500},
		}, got)
	})

	t.Run("missing sheet", func(t *testing.T) {
		path := testutil.WriteWorkbook(t, dir, "nosheet.xlsx", testutil.Sheet{
			Name: "4 Digit",
			Rows: [][]interface{}{{"0301: Live fish"}},
		})

		_, err := parser.Parse(path, DefaultSheet)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSheetNotFound))
		assert.Equal(t, `sheet "2 Digit" not found`, err.Error())
	})

	t.Run("sheet without observations", func(t *testing.T) {
		path := testutil.WriteWorkbook(t, dir, "empty.xlsx", testutil.Sheet{
			Name: DefaultSheet,
			Rows: [][]interface{}{{"Report: Product-wise 2 Digit"}, {"nothing here"}},
		})

		obs, err := parser.Parse(path, DefaultSheet)
		require.Error(t, err)
		assert.Nil(t, obs)
		assert.True(t, errors.Is(err, ErrNoRows))
	})

	t.Run("corrupt workbook", func(t *testing.T) {
		path := testutil.WriteGarbage(t, dir, "broken.xlsx")

		_, err := parser.Parse(path, DefaultSheet)
		require.Error(t, err)
		var readErr *ReadError
		require.True(t, errors.As(err, &readErr))
		assert.Contains(t, err.Error(), "failed to read workbook")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := testutil.WriteGarbage(t, dir, "notes.csv")

		_, err := parser.Parse(path, DefaultSheet)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	})
}

func TestReadCells_KeepsLimitAndTypes(t *testing.T) {
	path := testutil.WriteWorkbook(t, t.TempDir(), "typed.xlsx", testutil.Sheet{
		Name: DefaultSheet,
		Rows: [][]interface{}{
			{"Report", 42.0, "42"},
			{"second"},
			{"third"},
		},
	})

	rows, err := ReadCells(path, DefaultSheet, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Len(t, rows[0], 3)
	assert.False(t, rows[0][0].Numeric)
	assert.True(t, rows[0][1].Numeric)
	assert.Equal(t, "42", rows[0][1].Value)
	assert.False(t, rows[0][2].Numeric)

	text, err := ReadRows(path, DefaultSheet, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Report", "42", "42"}, text[0])
}

func TestXLSNumeric(t *testing.T) {
	tests := []struct {
		cell string
		want bool
	}{
		{"1500", true},
		{"1234.5", true},
		{"-0.25", true},
		{"1,500", false},
		{"1500.00", false},
		{" 1500", false},
		{"2023-07", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			assert.Equal(t, tt.want, xlsNumeric(tt.cell))
		})
	}
}

func TestFindSheet(t *testing.T) {
	names := []string{"Summary", " 2 digit ", "4 Digit"}

	got, ok := FindSheet(names, "2 Digit")
	assert.True(t, ok)
	assert.Equal(t, " 2 digit ", got)

	_, ok = FindSheet(names, "6 Digit")
	assert.False(t, ok)
}
