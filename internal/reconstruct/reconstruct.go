// Package reconstruct turns cumulative fiscal-year-to-date figures into
// single-month flows.
//
// Observations are partitioned by (fiscal year, HS code, country). Within a
// group the first observation is its own flow and each later one is the
// difference from its predecessor. Flows never cross group boundaries.
package reconstruct

import (
	"sort"

	"github.com/shopspring/decimal"

	"bdexports/pkg/contracts/domain"
)

// centPlaces is the precision every emitted flow is rounded to.
const centPlaces = 2

// Group is the ordered series for one (fiscal year, HS code, country).
type Group struct {
	Key          domain.GroupKey
	Observations []domain.TaggedObservation
}

// Diagnostics summarises data-quality findings of a reconstruction.
type Diagnostics struct {
	Groups     int `json:"groups"`
	Records    int `json:"records"`
	Clamped    int `json:"clamped"`
	Duplicates int `json:"duplicate_periods"`
}

// Add accumulates another diagnostics value.
func (d *Diagnostics) Add(other Diagnostics) {
	d.Groups += other.Groups
	d.Records += other.Records
	d.Clamped += other.Clamped
	d.Duplicates += other.Duplicates
}

// Partition groups observations and orders each group by end date.
// Observations sharing an end date keep source-file order.
// Groups are returned ordered by fiscal year, HS code, country.
func Partition(observations []domain.TaggedObservation) []Group {
	index := make(map[domain.GroupKey]int)
	var groups []Group
	for _, obs := range observations {
		key := obs.Key()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key})
		}
		groups[i].Observations = append(groups[i].Observations, obs)
	}

	for i := range groups {
		obs := groups[i].Observations
		sort.SliceStable(obs, func(a, b int) bool {
			if !obs[a].EndDate.Equal(obs[b].EndDate) {
				return obs[a].EndDate.Before(obs[b].EndDate)
			}
			return obs[a].SourceFile < obs[b].SourceFile
		})
	}
	sort.Slice(groups, func(a, b int) bool { return groups[a].Key.Less(groups[b].Key) })
	return groups
}

// Reconstruct partitions observations and differences every group.
func Reconstruct(observations []domain.TaggedObservation) ([]domain.MonthlyRecord, Diagnostics) {
	var (
		records []domain.MonthlyRecord
		diag    Diagnostics
	)
	for _, g := range Partition(observations) {
		out, d := ReconstructGroup(g)
		records = append(records, out...)
		diag.Add(d)
	}
	return records, diag
}

// ReconstructGroup differences a single group. The observations must
// already share one key and be sorted by end date.
func ReconstructGroup(g Group) ([]domain.MonthlyRecord, Diagnostics) {
	diag := Diagnostics{Groups: 1}
	if len(g.Observations) == 0 {
		diag.Groups = 0
		return nil, diag
	}

	records := make([]domain.MonthlyRecord, 0, len(g.Observations))
	previous := decimal.Zero
	for i, obs := range g.Observations {
		current := decimal.NewFromFloat(obs.CumulativeUSD)
		flow := current
		if i > 0 {
			flow = current.Sub(previous)
			if obs.EndDate.Equal(g.Observations[i-1].EndDate) {
				diag.Duplicates++
			}
		}
		if flow.IsNegative() {
			flow = decimal.Zero
			diag.Clamped++
		}
		previous = current

		records = append(records, domain.MonthlyRecord{
			HSCode:  obs.HSCode,
			Country: obs.Country,
			Month:   obs.Label(),
			USD:     flow.RoundBank(centPlaces).InexactFloat64(),
			Period:  obs.EndDate,
		})
	}
	diag.Records = len(records)
	return records, diag
}
