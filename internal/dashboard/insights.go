package dashboard

import (
	"fmt"
	"math"
	"sort"

	"github.com/rewired-gh/cinestat/internal/aggregate"
	"github.com/rewired-gh/cinestat/internal/dataset"
	"github.com/rewired-gh/cinestat/internal/models"
)

// Insight kinds, in the order they are reported.
const (
	KindTopDirectorCount  = "top_director_count"
	KindTopDirectorGross  = "top_director_gross"
	KindTopDirectorRating = "top_director_rating"
	KindTopGenre          = "top_genre"
	KindTopMetaScoreGenre = "top_meta_score_genre"
	KindTopPlatform       = "top_platform"
	KindRuntimeTrend      = "runtime_trend"
	KindRatingCorrelation = "rating_correlation"
)

// Rank returns up to k rows of summary ordered by field descending. Rows with
// a missing value or a partition smaller than minSize are dropped. Ties break
// on category in natural order. k <= 0 returns every eligible row.
func Rank(summary models.GroupSummary, field string, minSize, k int) []models.SummaryRow {
	var candidates []models.SummaryRow
	for _, r := range summary.Rows {
		if r.Size < minSize || !r.Values[field].Valid {
			continue
		}
		candidates = append(candidates, r)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		vi, vj := candidates[i].Values[field].Value, candidates[j].Values[field].Value
		if vi != vj {
			return vi > vj
		}
		return aggregate.CompareCategories(candidates[i].Category, candidates[j].Category) < 0
	})

	if k <= 0 || k > len(candidates) {
		return candidates
	}
	return candidates[:k]
}

// Takeaways derives the ranked insights of a dashboard, at most k of them
// (k <= 0 keeps all). Sections without enough data contribute nothing.
func Takeaways(d *Dashboard, minGroupSize, k int) []models.Insight {
	var out []models.Insight

	top := func(kind, title string, summary models.GroupSummary, field string, minSize int, detail string) {
		rows := Rank(summary, field, minSize, 1)
		if len(rows) == 0 {
			return
		}
		v := rows[0].Values[field]
		out = append(out, models.Insight{
			Kind:     kind,
			Title:    title,
			Category: rows[0].Category,
			Value:    v,
			Detail:   fmt.Sprintf(detail, rows[0].Category, v.Value),
		})
	}

	top(KindTopDirectorCount, "Most prolific director", d.Directors,
		models.AggCount, 0, "%s directed %.0f of the complete movies")
	top(KindTopDirectorGross, "Highest average gross", d.Directors,
		models.FieldName(dataset.ColGross, models.AggMean), minGroupSize, "%s averages $%.0f per movie")
	top(KindTopDirectorRating, "Highest average rating", d.Directors,
		models.FieldName(dataset.ColRating, models.AggMean), minGroupSize, "%s averages a %.2f rating")
	top(KindTopGenre, "Most common genre", d.GenreCounts,
		models.AggSum, 0, "%s is flagged on %.0f movies")

	if box, ok := topMedian(d.GenreMetaScores); ok {
		out = append(out, models.Insight{
			Kind:     KindTopMetaScoreGenre,
			Title:    "Highest median meta score",
			Category: box.Category,
			Value:    box.Median,
			Detail:   fmt.Sprintf("%s has a median meta score of %.1f", box.Category, box.Median.Value),
		})
	}

	top(KindTopPlatform, "Largest catalog", d.PlatformCounts,
		models.AggSum, 0, "%s lists %.0f titles")

	if d.RuntimeTrend.Slope.Valid {
		out = append(out, models.Insight{
			Kind:   KindRuntimeTrend,
			Title:  "Runtime over the years",
			Value:  d.RuntimeTrend.Slope,
			Detail: fmt.Sprintf("Average runtime is %s by %.2f min per year", d.RuntimeTrend.Direction(), math.Abs(d.RuntimeTrend.Slope.Value)),
		})
	}

	if c, ok := strongestCorrelation(d.RatingCorrelations); ok {
		out = append(out, models.Insight{
			Kind:     KindRatingCorrelation,
			Title:    "Strongest rating correlation",
			Category: c.Measure,
			Value:    c.R,
			Detail:   fmt.Sprintf("Rating vs %s: r = %.2f (%s)", c.Measure, c.R.Value, describeCorrelation(c.R.Value)),
		})
	}

	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

func topMedian(boxes []aggregate.BoxStats) (aggregate.BoxStats, bool) {
	var best aggregate.BoxStats
	found := false
	for _, b := range boxes {
		if !b.Median.Valid {
			continue
		}
		if !found || b.Median.Value > best.Median.Value {
			best, found = b, true
		}
	}
	return best, found
}

func strongestCorrelation(cs []RatingCorrelation) (RatingCorrelation, bool) {
	var best RatingCorrelation
	found := false
	for _, c := range cs {
		if !c.R.Valid {
			continue
		}
		if !found || math.Abs(c.R.Value) > math.Abs(best.R.Value) {
			best, found = c, true
		}
	}
	return best, found
}

// describeCorrelation labels |r| with the usual rule-of-thumb bands.
func describeCorrelation(r float64) string {
	a := math.Abs(r)
	switch {
	case a < 0.1:
		return "no correlation"
	case a < 0.3:
		return "weak"
	case a < 0.5:
		return "moderate"
	default:
		return "strong"
	}
}
