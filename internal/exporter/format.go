package exporter

import (
	"strconv"
	"strings"
)

// formatUSD renders a value with exactly two decimals.
func formatUSD(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func parseUSD(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// columnIndex maps lower-cased header names to their position.
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}
