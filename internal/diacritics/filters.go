package diacritics

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

var validFilters = []string{
	"alphabet",
	"continent",
	"country",
	"language",
	"variant",
	"base",
	"decompose",
	"diacritic",
}

// ValidFilters returns a copy of the filter names accepted by the API, in their fixed order.
func ValidFilters() []string {
	return slices.Clone(validFilters)
}

// IsValidFilter reports whether name is exactly one of the accepted filter names.
func IsValidFilter(name string) bool {
	return slices.Contains(validFilters, name)
}

// LookupFilter matches name case-insensitively, ignoring surrounding whitespace,
// and returns the canonical filter name.
func LookupFilter(name string) (string, bool) {
	folded := cases.Fold().String(strings.TrimSpace(name))
	for _, filter := range validFilters {
		if filter == folded {
			return filter, true
		}
	}
	return "", false
}
