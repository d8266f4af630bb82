package models

import (
	"errors"
	"fmt"
)

// Aggregate names used as keys in SummaryRow.Values.
const (
	AggMean   = "mean"
	AggCount  = "count"
	AggSum    = "sum"
	AggStdDev = "stddev"
)

// GroupSummary is a table with one row per distinct category value.
type GroupSummary struct {
	Key    string       `json:"key"`    // Grouping column, or "label" for indicator sums
	Fields []string     `json:"fields"` // Value keys present in every row, in display order
	Rows   []SummaryRow `json:"rows"`
}

// SummaryRow holds the aggregates for one category.
type SummaryRow struct {
	Category string            `json:"category"`
	Size     int               `json:"size"` // Records in the partition
	Values   map[string]Number `json:"values"`
}

// FieldName builds the value key for a measure/aggregate pair, e.g. "runtime_mean".
func FieldName(measure, agg string) string {
	if measure == "" {
		return agg
	}
	return measure + "_" + agg
}

// Row returns the row for a category.
func (s GroupSummary) Row(category string) (SummaryRow, bool) {
	for _, r := range s.Rows {
		if r.Category == category {
			return r, true
		}
	}
	return SummaryRow{}, false
}

// Value returns a single aggregate, missing if the category or field is absent.
func (s GroupSummary) Value(category, field string) Number {
	r, ok := s.Row(category)
	if !ok {
		return Missing()
	}
	return r.Values[field]
}

// Categories returns the category labels in row order.
func (s GroupSummary) Categories() []string {
	out := make([]string, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.Category
	}
	return out
}

// Column returns one field across all rows, in row order.
func (s GroupSummary) Column(field string) []Number {
	out := make([]Number, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.Values[field]
	}
	return out
}

// TotalSize sums partition sizes.
func (s GroupSummary) TotalSize() int {
	total := 0
	for _, r := range s.Rows {
		total += r.Size
	}
	return total
}

// Validate checks the summary shape: unique non-empty categories and
// every declared field present on every row.
func (s *GroupSummary) Validate() error {
	if s.Key == "" {
		return errors.New("summary key must not be empty")
	}
	seen := make(map[string]bool, len(s.Rows))
	for _, r := range s.Rows {
		if r.Category == "" {
			return errors.New("summary category must not be empty")
		}
		if seen[r.Category] {
			return fmt.Errorf("duplicate summary category: %s", r.Category)
		}
		seen[r.Category] = true
		if r.Size < 0 {
			return fmt.Errorf("negative partition size for %s", r.Category)
		}
		for _, f := range s.Fields {
			if _, ok := r.Values[f]; !ok {
				return fmt.Errorf("row %s is missing field %s", r.Category, f)
			}
		}
	}
	return nil
}
