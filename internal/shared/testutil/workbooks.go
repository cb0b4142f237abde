package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Sheet is a named grid of cell values for building fixture workbooks.
type Sheet struct {
	Name string
	Rows [][]interface{}
}

// WriteWorkbook saves an .xlsx file with the given sheets into dir and returns its path.
func WriteWorkbook(t *testing.T, dir, name string, sheets ...Sheet) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			f.SetSheetName(f.GetSheetName(0), sheet.Name)
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			t.Fatalf("failed to add sheet %q: %v", sheet.Name, err)
		}
		for r, row := range sheet.Rows {
			cell := fmt.Sprintf("A%d", r+1)
			values := row
			if err := f.SetSheetRow(sheet.Name, cell, &values); err != nil {
				t.Fatalf("failed to write row %d of %q: %v", r+1, sheet.Name, err)
			}
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook %s: %v", path, err)
	}
	return path
}

// TwoDigitSheet builds a "2 Digit" sheet in the agency layout: a title row,
// then per HS code a header row followed by one row per country.
func TwoDigitSheet(sections map[string]map[string]float64, order ...string) Sheet {
	rows := [][]interface{}{
		{"Report: Product-wise 2 Digit"},
		{"Period: July-June 2022-2023"},
	}
	for _, code := range order {
		rows = append(rows, []interface{}{code + ": Section " + code})
		countries := sections[code]
		for _, name := range sortedKeys(countries) {
			rows = append(rows, []interface{}{nil, countryLabel(name), nil, countries[name]})
		}
	}
	return Sheet{Name: "2 Digit", Rows: rows}
}

// WriteGarbage writes a file that no workbook reader can open.
func WriteGarbage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("this is not a spreadsheet"), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func countryLabel(name string) string {
	code := "XX"
	if len(name) >= 2 {
		code = strings.ToUpper(name[:2])
	}
	return code + ": " + name
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
