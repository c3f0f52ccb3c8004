// Package holidays yields the recognized US federal holiday dates for a
// year, keyed in the same unpadded M/D/YYYY format the filter uses for date
// lookups.
package holidays

import (
	"github.com/rickar/cal/v2/us"

	"teewatch/internal/dates"
)

// DefaultExclusions lists holidays that never count as playable days.
// Veterans Day is excluded by long-standing course policy.
var DefaultExclusions = []string{"Veterans Day"}

// RecognizedDates returns the set of holiday date keys for the year, both
// actual and observed dates, minus any holiday whose name appears in
// excluded. Pass nil to use DefaultExclusions.
func RecognizedDates(year int, excluded []string) map[string]struct{} {
	if excluded == nil {
		excluded = DefaultExclusions
	}
	skip := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		skip[name] = struct{}{}
	}

	out := make(map[string]struct{})
	for _, h := range us.Holidays {
		if _, ok := skip[h.Name]; ok {
			continue
		}
		actual, observed := h.Calc(year)
		if !actual.IsZero() {
			out[dates.FormatDateKey(actual)] = struct{}{}
		}
		if !observed.IsZero() {
			out[dates.FormatDateKey(observed)] = struct{}{}
		}
	}
	return out
}

// Names returns the recognized holiday names after exclusions, mainly for
// logging the active calendar at startup.
func Names(excluded []string) []string {
	if excluded == nil {
		excluded = DefaultExclusions
	}
	skip := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		skip[name] = struct{}{}
	}

	var names []string
	for _, h := range us.Holidays {
		if _, ok := skip[h.Name]; ok {
			continue
		}
		names = append(names, h.Name)
	}
	return names
}
