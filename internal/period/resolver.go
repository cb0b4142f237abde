// Package period infers the fiscal period a cumulative export workbook covers
// from its filename.
//
// Reports are cumulative from the start of the fiscal year (July) through the
// month named in the filename. Three filename grammars are recognised and tried
// from most to least specific:
//
//	Product_wise_export_2Digit_Jul_Jun_2022_2023.xlsx  start/end month, both years
//	Product_wise_export_2Digit_Jul_Sep_2023.xlsx       end month, single year
//	Product_wise_export_2Digit_Jul_2023.xlsx           bare fiscal year (July only)
package period

import (
	"regexp"
	"strconv"
	"time"

	"bdexports/pkg/contracts/domain"
)

// grammar pairs a filename pattern with the extractor for its submatches.
type grammar struct {
	name    string
	pattern *regexp.Regexp
	extract func(m []string) (endMonth string, fiscalYear int, ok bool)
}

var grammars = []grammar{
	{
		name:    "range",
		pattern: regexp.MustCompile(`(?i)_Jul_([A-Za-z]+)_(\d{4})_(\d{4})`),
		extract: func(m []string) (string, int, bool) {
			year, err := strconv.Atoi(m[2])
			return m[1], year, err == nil
		},
	},
	{
		name:    "single_range",
		pattern: regexp.MustCompile(`(?i)_Jul_([A-Za-z]+)_(\d{4})`),
		extract: func(m []string) (string, int, bool) {
			year, err := strconv.Atoi(m[2])
			return m[1], year, err == nil
		},
	},
	{
		name:    "fiscal_year",
		pattern: regexp.MustCompile(`(?i)_Jul_(\d{4})`),
		extract: func(m []string) (string, int, bool) {
			year, err := strconv.Atoi(m[1])
			return "Jul", year, err == nil
		},
	},
}

// Resolve returns the period encoded in filename. ok is false when no grammar
// matches or the end month is not a known month name.
func Resolve(filename string) (domain.PeriodTag, bool) {
	for _, g := range grammars {
		m := g.pattern.FindStringSubmatch(filename)
		if m == nil {
			continue
		}
		endMonth, fiscalYear, valid := g.extract(m)
		if !valid {
			return domain.PeriodTag{}, false
		}
		return Tag(fiscalYear, endMonth)
	}
	return domain.PeriodTag{}, false
}

// Tag builds the period for a fiscal year and the name of its last covered
// month. Months from July onwards fall in the fiscal year's starting calendar
// year, January to June in the next one.
func Tag(fiscalYear int, endMonth string) (domain.PeriodTag, bool) {
	month, ok := LookupMonth(endMonth)
	if !ok {
		return domain.PeriodTag{}, false
	}
	return domain.PeriodTag{
		FiscalYear: fiscalYear,
		EndDate:    time.Date(CalendarYear(fiscalYear, month), month, 1, 0, 0, 0, 0, time.UTC),
	}, true
}

// CalendarYear maps a month of a fiscal year onto the calendar.
func CalendarYear(fiscalYear int, month time.Month) int {
	if month >= domain.FiscalYearStartMonth {
		return fiscalYear
	}
	return fiscalYear + 1
}
