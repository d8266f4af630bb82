// Package normalize converts raw source strings into typed values suitable for
// aggregation. Coercion never fails: anything that does not parse becomes the
// missing sentinel and is ignored downstream.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rewired-gh/cinestat/internal/models"
	"github.com/rewired-gh/cinestat/internal/table"
)

// Common strip patterns for the fixed source schemas.
var (
	Minutes   = []string{"min"}
	Thousands = []string{","}
	OutOf100  = []string{"/100", "%"}
	OutOf10   = []string{"/10"}
)

// CoerceNumeric strips each of the given substrings from value and parses the
// remainder as a float. Placeholder text, empty strings and non-finite results
// yield models.Missing().
func CoerceNumeric(value string, strip ...string) models.Number {
	s := value
	for _, p := range strip {
		if p != "" {
			s = strings.ReplaceAll(s, p, "")
		}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return models.Missing()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return models.Missing()
	}
	return models.Some(f)
}

// FlagMembership returns Some(1) when label occurs in the delimited category
// string, Missing() otherwise.
//
// Matching is plain substring containment: "Fi" matches "Sci-Fi" and "Drama"
// would match a hypothetical "Docudrama". The dashboards built on these flags
// depend on that behaviour, so it is kept; use SplitLabels for exact tokens.
func FlagMembership(categories, label string) models.Number {
	if label == "" {
		return models.Missing()
	}
	if strings.Contains(categories, label) {
		return models.Some(1)
	}
	return models.Missing()
}

// SplitLabels splits a comma-delimited multi-label field into trimmed,
// non-empty tokens.
func SplitLabels(categories string) []string {
	parts := strings.Split(categories, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DropIncomplete returns a table without the records that miss any of the
// required columns. Surviving records keep their relative order. With no
// required columns every registered column is required.
func DropIncomplete[T any](t *table.Table[T], required ...string) (*table.Table[T], error) {
	if len(required) == 0 {
		required = t.Schema().Columns()
	}
	for _, name := range required {
		if !t.IsCategory(name) && !t.IsNumber(name) {
			return nil, fmt.Errorf("failed to drop incomplete rows: %w: %s", table.ErrUnknownColumn, name)
		}
	}

	return t.Where(func(row T) bool {
		for _, name := range required {
			ok, _ := t.Present(row, name)
			if !ok {
				return false
			}
		}
		return true
	}), nil
}
