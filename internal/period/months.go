package period

import (
	"sort"
	"strings"
	"time"
)

// monthAliases maps lower-case month spellings found in agency filenames and
// report headers to calendar months.
var monthAliases = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// LookupMonth resolves a month name or abbreviation, ignoring case.
func LookupMonth(name string) (time.Month, bool) {
	m, ok := monthAliases[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

// Abbrev returns the three-letter token used in canonical filenames ("Jul").
func Abbrev(m time.Month) string {
	return m.String()[:3]
}

// MonthAliases returns every known spelling, longest first, for building
// alternation patterns that must prefer "september" over "sep".
func MonthAliases() []string {
	keys := make([]string, 0, len(monthAliases))
	for k := range monthAliases {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}
