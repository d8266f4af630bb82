package aggregate

import (
	"fmt"
	"math"
	"sort"

	"github.com/rewired-gh/cinestat/internal/models"
	"github.com/rewired-gh/cinestat/internal/table"
)

// BoxStats describes the distribution of a measure within one category.
type BoxStats struct {
	Category     string        `json:"category"`
	N            int           `json:"n"`
	Min          models.Number `json:"min"`
	Q1           models.Number `json:"q1"`
	Median       models.Number `json:"median"`
	Q3           models.Number `json:"q3"`
	Max          models.Number `json:"max"`
	Mean         models.Number `json:"mean"`
	LowerFence   models.Number `json:"lower_fence"`   // Q1 - 1.5*IQR
	LowerWhisker models.Number `json:"lower_whisker"` // Smallest observation >= LowerFence
}

// Quantile returns the p-quantile of sorted values using linear interpolation
// between closest ranks (numpy's default). Missing when values is empty or p
// is outside [0, 1].
func Quantile(sorted []float64, p float64) models.Number {
	if len(sorted) == 0 || p < 0 || p > 1 || math.IsNaN(p) {
		return models.Missing()
	}
	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	hi := math.Ceil(h)
	if lo == hi {
		return models.Some(sorted[int(lo)])
	}
	return models.Some(sorted[int(lo)] + (h-lo)*(sorted[int(hi)]-sorted[int(lo)]))
}

// Describe computes BoxStats over the present values.
func Describe(category string, values []models.Number) BoxStats {
	present := make([]float64, 0, len(values))
	acc := NewWelford()
	for _, v := range values {
		if v.Valid {
			present = append(present, v.Value)
			acc.Update(v.Value)
		}
	}
	sort.Float64s(present)

	stats := BoxStats{Category: category, N: len(present), Mean: acc.Mean()}
	if len(present) == 0 {
		return stats
	}
	stats.Min = models.Some(present[0])
	stats.Max = models.Some(present[len(present)-1])
	stats.Q1 = Quantile(present, 0.25)
	stats.Median = Quantile(present, 0.5)
	stats.Q3 = Quantile(present, 0.75)

	iqr := stats.Q3.Value - stats.Q1.Value
	fence := stats.Q1.Value - 1.5*iqr
	stats.LowerFence = models.Some(fence)
	idx := sort.SearchFloat64s(present, fence)
	stats.LowerWhisker = models.Some(present[idx])
	return stats
}

// GroupBoxStats describes measure over the records where each indicator
// column is present, one BoxStats per indicator in the order given.
func GroupBoxStats[T any](t *table.Table[T], indicators []string, measure string) ([]BoxStats, error) {
	read, err := t.NumberColumn(measure)
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", measure, err)
	}

	out := make([]BoxStats, 0, len(indicators))
	for _, label := range indicators {
		flag, err := t.NumberColumn(label)
		if err != nil {
			return nil, fmt.Errorf("failed to describe %s: %w", label, err)
		}
		var values []models.Number
		for i := 0; i < t.Len(); i++ {
			row := t.Row(i)
			if f := flag(row); f.Valid && f.Value > 0 {
				values = append(values, read(row))
			}
		}
		out = append(out, Describe(label, values))
	}
	return out, nil
}

// StaticMetaScoreVersion identifies the embedded lookup table below.
const StaticMetaScoreVersion = "imdb-top-1000/2021"

// StaticMetaScoreBoxes is a precomputed meta score distribution per genre,
// taken from the 2021 snapshot of the movie list. GroupBoxStats is the
// default; these are served when meta_score_source is "static".
var StaticMetaScoreBoxes = []BoxStats{
	staticBox("Drama", 28, 70, 79, 87, 100, 77.54, 44.5),
	staticBox("Comedy", 41, 70, 80.5, 87, 99, 77.53, 44.5),
	staticBox("Romance", 45, 72, 83, 89, 100, 80.22, 46.5),
	staticBox("Action", 30, 64, 75, 83, 98, 73.21, 43.5),
	staticBox("Sci-Fi", 30, 73, 80, 89, 98, 78.24, 55.5),
	staticBox("Thriller", 30, 69.5, 77, 85, 97, 75.83, 46.25),
}

func staticBox(category string, min, q1, median, q3, max, mean, whisker float64) BoxStats {
	return BoxStats{
		Category:     category,
		Min:          models.Some(min),
		Q1:           models.Some(q1),
		Median:       models.Some(median),
		Q3:           models.Some(q3),
		Max:          models.Some(max),
		Mean:         models.Some(mean),
		LowerFence:   models.Some(q1 - 1.5*(q3-q1)),
		LowerWhisker: models.Some(whisker),
	}
}

// StaticBoxes returns the embedded boxes for the requested labels, in label
// order. Labels absent from the table get an empty box.
func StaticBoxes(labels []string) []BoxStats {
	byName := make(map[string]BoxStats, len(StaticMetaScoreBoxes))
	for _, b := range StaticMetaScoreBoxes {
		byName[b.Category] = b
	}
	out := make([]BoxStats, 0, len(labels))
	for _, l := range labels {
		if b, ok := byName[l]; ok {
			out = append(out, b)
			continue
		}
		out = append(out, BoxStats{Category: l})
	}
	return out
}
