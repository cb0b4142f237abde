// Package cleaning canonicalises destination country names in the monthly
// dataset, drops placeholder destinations and re-aggregates the result.
package cleaning

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"bdexports/pkg/contracts/domain"
)

// Stats summarises one Clean call.
type Stats struct {
	Input   int `json:"input"`
	Junk    int `json:"junk"`
	Renamed int `json:"renamed"`
	Output  int `json:"output"`
}

type cellKey struct {
	hs, country, month string
}

// Clean canonicalises countries, drops junk rows and sums USD per
// (hs_code, country, month). Output is ordered by HS code, country, then
// chronologically by month.
func Clean(records []domain.MonthlyRecord) ([]domain.MonthlyRecord, Stats) {
	stats := Stats{Input: len(records)}

	sums := make(map[cellKey]decimal.Decimal)
	first := make(map[cellKey]domain.MonthlyRecord)
	var order []cellKey

	for _, r := range records {
		raw := strings.TrimSpace(r.Country)
		country := CanonicalCountry(raw)
		if IsJunkCountry(country) || IsJunkCountry(raw) {
			stats.Junk++
			continue
		}
		if country != raw {
			stats.Renamed++
		}

		key := cellKey{hs: strings.TrimSpace(r.HSCode), country: country, month: strings.TrimSpace(r.Month)}
		if _, seen := sums[key]; !seen {
			order = append(order, key)
			first[key] = r
		}
		sums[key] = sums[key].Add(decimal.NewFromFloat(r.USD))
	}

	out := make([]domain.MonthlyRecord, 0, len(order))
	for _, key := range order {
		out = append(out, domain.MonthlyRecord{
			HSCode:  key.hs,
			Country: key.country,
			Month:   key.month,
			USD:     sums[key].RoundBank(2).InexactFloat64(),
			Period:  first[key].Period,
		})
	}
	SortRecords(out)
	stats.Output = len(out)
	return out, stats
}

// SortRecords orders records by HS code, country, then period.
func SortRecords(records []domain.MonthlyRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.HSCode != b.HSCode {
			return a.HSCode < b.HSCode
		}
		if a.Country != b.Country {
			return a.Country < b.Country
		}
		return a.Period.Before(b.Period)
	})
}

// UniqueCountries returns the sorted distinct country names.
func UniqueCountries(records []domain.MonthlyRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		if r.Country == "" || seen[r.Country] {
			continue
		}
		seen[r.Country] = true
		out = append(out, r.Country)
	}
	sort.Strings(out)
	return out
}

// Verification explains one zero-valued cleaned row.
type Verification struct {
	HSCode      string  `json:"hs_code"`
	Country     string  `json:"country"`
	Month       string  `json:"month"`
	USD         float64 `json:"usd"`
	OriginalSum float64 `json:"original_usd_sum"`
	Verified    bool    `json:"verified"`
}

// VerificationHeader is the column order of the verification report.
var VerificationHeader = []string{"hs_code", "country", "month", "USD", "Original_USD_Sum", "Verified"}

// zeroTolerance is how far an original sum may be from zero and still count as zero.
const zeroTolerance = 0.001

// VerifyZeroRows checks every zero-valued cleaned row against the sum of the
// original rows that clean into the same cell.
func VerifyZeroRows(original, cleaned []domain.MonthlyRecord) []Verification {
	sums := make(map[cellKey]decimal.Decimal)
	for _, r := range original {
		key := cellKey{
			hs:      strings.TrimSpace(r.HSCode),
			country: CanonicalCountry(r.Country),
			month:   strings.TrimSpace(r.Month),
		}
		sums[key] = sums[key].Add(decimal.NewFromFloat(r.USD))
	}

	var out []Verification
	for _, r := range cleaned {
		if r.USD != 0 {
			continue
		}
		sum := sums[cellKey{hs: r.HSCode, country: r.Country, month: r.Month}].InexactFloat64()
		out = append(out, Verification{
			HSCode:      r.HSCode,
			Country:     r.Country,
			Month:       r.Month,
			USD:         r.USD,
			OriginalSum: sum,
			Verified:    math.Abs(sum) < zeroTolerance,
		})
	}
	return out
}
