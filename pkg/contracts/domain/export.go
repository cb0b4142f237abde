package domain

import (
	"fmt"
	"time"
)

// MonthLabelLayout renders a month as "August-2023".
const MonthLabelLayout = "January-2006"

// FiscalYearStartMonth is the first month of the agency's fiscal year.
const FiscalYearStartMonth = time.July

// RawObservation is one (HS code, country, cumulative value) triple parsed from a workbook.
type RawObservation struct {
	HSCode        string  `json:"hs_code" validate:"required,len=2,numeric"`
	Country       string  `json:"country" validate:"required"`
	CumulativeUSD float64 `json:"cumulative_usd" validate:"gte=0"`
}

// PeriodTag locates a workbook on the monthly timeline.
type PeriodTag struct {
	FiscalYear int       `json:"fiscal_year"`
	EndDate    time.Time `json:"end_date"` // first day of the last month covered, UTC
}

// Label returns the month label of the tag's end date.
func (p PeriodTag) Label() string {
	return p.EndDate.Format(MonthLabelLayout)
}

// TaggedObservation is a RawObservation carrying the period of the file it came from.
type TaggedObservation struct {
	RawObservation
	PeriodTag
	SourceFile string `json:"source_file"`
}

// GroupKey identifies an observation group.
type GroupKey struct {
	FiscalYear int
	HSCode     string
	Country    string
}

// Key returns the group the observation belongs to.
func (o TaggedObservation) Key() GroupKey {
	return GroupKey{FiscalYear: o.FiscalYear, HSCode: o.HSCode, Country: o.Country}
}

// Less orders keys by fiscal year, HS code, then country.
func (k GroupKey) Less(other GroupKey) bool {
	if k.FiscalYear != other.FiscalYear {
		return k.FiscalYear < other.FiscalYear
	}
	if k.HSCode != other.HSCode {
		return k.HSCode < other.HSCode
	}
	return k.Country < other.Country
}

func (k GroupKey) String() string {
	return fmt.Sprintf("FY%d/%s/%s", k.FiscalYear, k.HSCode, k.Country)
}

// MonthlyRecord is one reconstructed single-month export flow.
type MonthlyRecord struct {
	HSCode  string    `json:"hs_code"`
	Country string    `json:"country"`
	Month   string    `json:"month"`
	USD     float64   `json:"usd"`
	Period  time.Time `json:"-"`
}

// MonthlyCSVHeader is the column order of the monthly dataset.
var MonthlyCSVHeader = []string{"hs_code", "country", "month", "USD"}

// ParseMonthLabel converts "August-2023" back to the first day of that month.
func ParseMonthLabel(label string) (time.Time, error) {
	t, err := time.Parse(MonthLabelLayout, label)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month label %q: %w", label, err)
	}
	return t, nil
}

// FileFailure records why a single file was rejected.
type FileFailure struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

func (f FileFailure) String() string {
	return fmt.Sprintf("%s (%s)", f.Name, f.Reason)
}

// Manifest lists the outcome of every file seen in one pipeline run.
type Manifest struct {
	RunID     string        `json:"run_id"`
	Processed []string      `json:"processed"`
	Failed    []FileFailure `json:"failed"`
}
