// Package series shapes monthly records into chart-ready aggregates.
package series

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"bdexports/pkg/contracts/domain"
)

// Point is one month of one country's exports.
type Point struct {
	Month string  `json:"month"`
	USD   float64 `json:"usd"`
}

// CountrySeries is a country's monthly series with its total over the window.
type CountrySeries struct {
	Country string  `json:"country"`
	Total   float64 `json:"total"`
	Points  []Point `json:"points"`
}

// TopBuyers returns, for one HS code, the top countries by total USD within
// [from, to] (zero bounds are open), each with its chronological monthly series.
// Ties on total are broken by country name.
func TopBuyers(records []domain.MonthlyRecord, hsCode string, top int, from, to time.Time) []CountrySeries {
	type acc struct {
		total  decimal.Decimal
		points []domain.MonthlyRecord
	}
	byCountry := make(map[string]*acc)
	for _, r := range records {
		if r.HSCode != hsCode || !inWindow(r.Period, from, to) {
			continue
		}
		a, ok := byCountry[r.Country]
		if !ok {
			a = &acc{}
			byCountry[r.Country] = a
		}
		a.total = a.total.Add(decimal.NewFromFloat(r.USD))
		a.points = append(a.points, r)
	}

	out := make([]CountrySeries, 0, len(byCountry))
	for country, a := range byCountry {
		sort.SliceStable(a.points, func(i, j int) bool { return a.points[i].Period.Before(a.points[j].Period) })
		s := CountrySeries{Country: country, Total: a.total.Round(2).InexactFloat64()}
		for _, r := range a.points {
			s.Points = append(s.Points, Point{Month: r.Month, USD: r.USD})
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Country < out[j].Country
	})
	if top > 0 && len(out) > top {
		out = out[:top]
	}
	return out
}

// YearTotal is one HS code's total for one calendar year.
type YearTotal struct {
	HSCode string  `json:"hs_code"`
	Year   int     `json:"year"`
	USD    float64 `json:"usd"`
}

// HSByYear totals USD per (HS code, calendar year), optionally for one country.
// Rows are ordered by HS code then year.
func HSByYear(records []domain.MonthlyRecord, country string) []YearTotal {
	type key struct {
		hs   string
		year int
	}
	sums := make(map[key]decimal.Decimal)
	for _, r := range records {
		if country != "" && r.Country != country {
			continue
		}
		k := key{r.HSCode, r.Period.Year()}
		sums[k] = sums[k].Add(decimal.NewFromFloat(r.USD))
	}

	out := make([]YearTotal, 0, len(sums))
	for k, v := range sums {
		out = append(out, YearTotal{HSCode: k.hs, Year: k.year, USD: v.Round(2).InexactFloat64()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].HSCode != out[j].HSCode {
			return out[i].HSCode < out[j].HSCode
		}
		return out[i].Year < out[j].Year
	})
	return out
}

func inWindow(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}
