// Package aggregate computes grouped summary statistics over a normalized table.
//
// Every function is a pure function of its input table: records are read,
// never mutated, and nothing is cached between calls. Category rows come back
// in natural order (see CompareCategories) so that output is stable.
//
// Missing measure values are skipped. A partition without any present value
// reports a missing mean rather than zero; callers must render that as
// "insufficient data".
package aggregate

import (
	"fmt"
	"sort"

	"github.com/rewired-gh/cinestat/internal/models"
	"github.com/rewired-gh/cinestat/internal/table"
)

// LabelKey is the GroupSummary.Key used for indicator sums.
const LabelKey = "label"

type partition[T any] struct {
	category string
	rows     []T
}

// partitionBy splits rows by the distinct non-missing values of a categorical
// column. Rows with a missing key are dropped.
func partitionBy[T any](t *table.Table[T], groupKey string) ([]partition[T], error) {
	key, err := t.CategoryColumn(groupKey)
	if err != nil {
		return nil, fmt.Errorf("failed to group by %s: %w", groupKey, err)
	}

	index := make(map[string]int)
	var parts []partition[T]
	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		cat, ok := key(row)
		if !ok {
			continue
		}
		idx, exists := index[cat]
		if !exists {
			idx = len(parts)
			index[cat] = idx
			parts = append(parts, partition[T]{category: cat})
		}
		parts[idx].rows = append(parts[idx].rows, row)
	}

	sort.SliceStable(parts, func(i, j int) bool {
		return CompareCategories(parts[i].category, parts[j].category) < 0
	})
	return parts, nil
}

// GroupMean partitions records by groupKey and averages measure within each
// partition, ignoring missing values. The value key is "<measure>_mean".
func GroupMean[T any](t *table.Table[T], groupKey, measure string) (models.GroupSummary, error) {
	parts, err := partitionBy(t, groupKey)
	if err != nil {
		return models.GroupSummary{}, err
	}
	read, err := t.NumberColumn(measure)
	if err != nil {
		return models.GroupSummary{}, fmt.Errorf("failed to average %s: %w", measure, err)
	}

	field := models.FieldName(measure, models.AggMean)
	summary := models.GroupSummary{
		Key:    groupKey,
		Fields: []string{field},
		Rows:   make([]models.SummaryRow, 0, len(parts)),
	}
	for _, p := range parts {
		acc := accumulate(p.rows, read)
		summary.Rows = append(summary.Rows, models.SummaryRow{
			Category: p.category,
			Size:     len(p.rows),
			Values:   map[string]models.Number{field: acc.Mean()},
		})
	}
	return summary, nil
}

// GroupCount returns partition sizes per distinct groupKey value. Sizes sum to
// the number of records with a non-missing key.
func GroupCount[T any](t *table.Table[T], groupKey string) (models.GroupSummary, error) {
	parts, err := partitionBy(t, groupKey)
	if err != nil {
		return models.GroupSummary{}, err
	}

	summary := models.GroupSummary{
		Key:    groupKey,
		Fields: []string{models.AggCount},
		Rows:   make([]models.SummaryRow, 0, len(parts)),
	}
	for _, p := range parts {
		summary.Rows = append(summary.Rows, models.SummaryRow{
			Category: p.category,
			Size:     len(p.rows),
			Values:   map[string]models.Number{models.AggCount: models.Some(float64(len(p.rows)))},
		})
	}
	return summary, nil
}

// GroupStats partitions by groupKey and, for each measure, reports the mean,
// sample standard deviation and the number of present values. The partition
// size is reported under "count".
func GroupStats[T any](t *table.Table[T], groupKey string, measures ...string) (models.GroupSummary, error) {
	parts, err := partitionBy(t, groupKey)
	if err != nil {
		return models.GroupSummary{}, err
	}

	readers := make([]table.NumberFunc[T], len(measures))
	fields := []string{models.AggCount}
	for i, m := range measures {
		read, err := t.NumberColumn(m)
		if err != nil {
			return models.GroupSummary{}, fmt.Errorf("failed to summarize %s: %w", m, err)
		}
		readers[i] = read
		fields = append(fields,
			models.FieldName(m, models.AggMean),
			models.FieldName(m, models.AggStdDev),
			models.FieldName(m, models.AggCount),
		)
	}

	summary := models.GroupSummary{
		Key:    groupKey,
		Fields: fields,
		Rows:   make([]models.SummaryRow, 0, len(parts)),
	}
	for _, p := range parts {
		values := map[string]models.Number{
			models.AggCount: models.Some(float64(len(p.rows))),
		}
		for i, m := range measures {
			acc := accumulate(p.rows, readers[i])
			values[models.FieldName(m, models.AggMean)] = acc.Mean()
			values[models.FieldName(m, models.AggStdDev)] = acc.StdDev()
			values[models.FieldName(m, models.AggCount)] = models.Some(float64(acc.Count()))
		}
		summary.Rows = append(summary.Rows, models.SummaryRow{
			Category: p.category,
			Size:     len(p.rows),
			Values:   values,
		})
	}
	return summary, nil
}

// GroupSumBoolean sums each indicator column across all records. The result
// has one row per indicator, keyed by the indicator name and kept in the order
// given. Missing indicators contribute nothing, so a label that never occurs
// sums to 0. Size is the number of records inspected.
func GroupSumBoolean[T any](t *table.Table[T], indicators ...string) (models.GroupSummary, error) {
	summary := models.GroupSummary{
		Key:    LabelKey,
		Fields: []string{models.AggSum},
		Rows:   make([]models.SummaryRow, 0, len(indicators)),
	}

	seen := make(map[string]bool, len(indicators))
	for _, name := range indicators {
		if seen[name] {
			return models.GroupSummary{}, fmt.Errorf("duplicate indicator column: %s", name)
		}
		seen[name] = true

		read, err := t.NumberColumn(name)
		if err != nil {
			return models.GroupSummary{}, fmt.Errorf("failed to sum %s: %w", name, err)
		}
		var total float64
		for i := 0; i < t.Len(); i++ {
			if n := read(t.Row(i)); n.Valid {
				total += n.Value
			}
		}
		summary.Rows = append(summary.Rows, models.SummaryRow{
			Category: name,
			Size:     t.Len(),
			Values:   map[string]models.Number{models.AggSum: models.Some(total)},
		})
	}
	return summary, nil
}

func accumulate[T any](rows []T, read table.NumberFunc[T]) *Welford {
	acc := NewWelford()
	for _, r := range rows {
		if n := read(r); n.Valid {
			acc.Update(n.Value)
		}
	}
	return acc
}
