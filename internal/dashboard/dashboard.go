// Package dashboard assembles every section of the movie and streaming
// dashboard from freshly parsed records.
//
// A Builder holds only options. Each Build call binds new tables and runs the
// aggregations again, so two calls over the same records yield equal output.
package dashboard

import (
	"errors"
	"fmt"
	"time"

	"github.com/rewired-gh/cinestat/internal/aggregate"
	"github.com/rewired-gh/cinestat/internal/dataset"
	"github.com/rewired-gh/cinestat/internal/logger"
	"github.com/rewired-gh/cinestat/internal/models"
	"github.com/rewired-gh/cinestat/internal/normalize"
	"github.com/rewired-gh/cinestat/internal/table"
)

// Meta score box sources.
const (
	MetaScoreComputed = "computed"
	MetaScoreStatic   = "static"
)

// Options configures a Builder.
type Options struct {
	Genres          []string // Genre labels flagged and counted, in display order
	Platforms       []string // Platform indicator columns, in display order
	MetaScoreSource string   // "computed" (default) or "static"
	TopK            int      // Maximum takeaways; <= 0 keeps all
	MinGroupSize    int      // Minimum partition size for "highest average" takeaways
}

// Validate checks the builder options
func (o *Options) Validate() error {
	if len(o.Genres) == 0 {
		return errors.New("at least one genre label is required")
	}
	if len(o.Platforms) == 0 {
		return errors.New("at least one platform is required")
	}
	if err := unique("genre", o.Genres); err != nil {
		return err
	}
	if err := unique("platform", o.Platforms); err != nil {
		return err
	}
	switch o.MetaScoreSource {
	case "", MetaScoreComputed, MetaScoreStatic:
	default:
		return fmt.Errorf("meta score source must be %q or %q, got %q", MetaScoreComputed, MetaScoreStatic, o.MetaScoreSource)
	}
	if o.MinGroupSize < 0 {
		return errors.New("min group size must not be negative")
	}
	return nil
}

func unique(kind string, labels []string) error {
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if l == "" {
			return fmt.Errorf("%s label must not be empty", kind)
		}
		if seen[l] {
			return fmt.Errorf("duplicate %s label: %s", kind, l)
		}
		seen[l] = true
	}
	return nil
}

// Headline holds the summary metrics shown above the charts.
type Headline struct {
	Movies    int `json:"movies"`
	Directors int `json:"directors"`
	Genres    int `json:"genres"`
	Platforms int `json:"platforms"`
	Titles    int `json:"titles"`
}

// RatingCorrelation is Pearson's r between the IMDB rating and one measure.
type RatingCorrelation struct {
	Measure string        `json:"measure"`
	R       models.Number `json:"r"`
}

// PlatformAgeScores is the Rotten Tomatoes summary by age group for the
// titles listed on one platform.
type PlatformAgeScores struct {
	Platform string              `json:"platform"`
	Summary  models.GroupSummary `json:"summary"`
}

// Dashboard is the complete computed output.
type Dashboard struct {
	GeneratedAt        time.Time            `json:"generated_at"`
	Headline           Headline             `json:"headline"`
	Directors          models.GroupSummary  `json:"directors"`
	Years              models.GroupSummary  `json:"years"`
	RuntimeTrend       aggregate.Trend      `json:"runtime_trend"`
	RatingCorrelations []RatingCorrelation  `json:"rating_correlations"`
	GenreCounts        models.GroupSummary  `json:"genre_counts"`
	GenreMetaScores    []aggregate.BoxStats `json:"genre_meta_scores"`
	MetaScoreSource    string               `json:"meta_score_source"`
	PlatformCounts     models.GroupSummary  `json:"platform_counts"`
	PlatformAgeScores  []PlatformAgeScores  `json:"platform_age_scores"`
	Takeaways          []models.Insight     `json:"takeaways"`
}

// Builder computes dashboards.
type Builder struct {
	opts Options
	now  func() time.Time
}

// NewBuilder creates a new Builder
func NewBuilder(opts Options) (*Builder, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dashboard options: %w", err)
	}
	if opts.MetaScoreSource == "" {
		opts.MetaScoreSource = MetaScoreComputed
	}
	return &Builder{opts: opts, now: time.Now}, nil
}

// Options returns the builder's options.
func (b *Builder) Options() Options { return b.opts }

// MovieTable binds movies to the movie schema for the configured genres.
func (b *Builder) MovieTable(movies []models.Movie) *table.Table[models.Movie] {
	return dataset.MovieSchema(b.opts.Genres).Bind(movies)
}

// CompleteMovies returns the movies carrying every required column.
func (b *Builder) CompleteMovies(movies []models.Movie) (*table.Table[models.Movie], error) {
	return normalize.DropIncomplete(b.MovieTable(movies), dataset.MovieRequired...)
}

// TitleTable binds titles to the title schema for the configured platforms.
func (b *Builder) TitleTable(titles []models.Title) *table.Table[models.Title] {
	return dataset.TitleSchema(b.opts.Platforms).Bind(titles)
}

// Build computes every dashboard section.
func (b *Builder) Build(movies []models.Movie, titles []models.Title) (*Dashboard, error) {
	all := b.MovieTable(movies)
	complete, err := b.CompleteMovies(movies)
	if err != nil {
		return nil, fmt.Errorf("failed to select complete movies: %w", err)
	}
	logger.Debug("Building dashboard from %d movies (%d complete) and %d titles",
		all.Len(), complete.Len(), len(titles))

	d := &Dashboard{
		GeneratedAt:     b.now().UTC(),
		MetaScoreSource: b.opts.MetaScoreSource,
	}

	directors, err := complete.Distinct(dataset.ColDirector)
	if err != nil {
		return nil, fmt.Errorf("failed to count directors: %w", err)
	}
	d.Headline = Headline{
		Movies:    all.Len(),
		Directors: directors,
		Genres:    len(b.opts.Genres),
		Platforms: len(b.opts.Platforms),
		Titles:    len(titles),
	}

	if d.Directors, err = aggregate.GroupStats(complete, dataset.ColDirector, dataset.ColRating, dataset.ColGross); err != nil {
		return nil, fmt.Errorf("failed to build director stats: %w", err)
	}

	if d.Years, err = aggregate.GroupStats(complete, dataset.ColYear, dataset.ColRuntime, dataset.ColRating); err != nil {
		return nil, fmt.Errorf("failed to build year stats: %w", err)
	}
	d.RuntimeTrend = yearTrend(d.Years, models.FieldName(dataset.ColRuntime, models.AggMean))

	if d.RatingCorrelations, err = ratingCorrelations(complete); err != nil {
		return nil, err
	}

	if d.GenreCounts, err = aggregate.GroupSumBoolean(complete, b.opts.Genres...); err != nil {
		return nil, fmt.Errorf("failed to count genres: %w", err)
	}

	if b.opts.MetaScoreSource == MetaScoreStatic {
		d.GenreMetaScores = aggregate.StaticBoxes(b.opts.Genres)
	} else if d.GenreMetaScores, err = aggregate.GroupBoxStats(complete, b.opts.Genres, dataset.ColMetaScore); err != nil {
		return nil, fmt.Errorf("failed to describe genre meta scores: %w", err)
	}

	titleTable := b.TitleTable(titles)
	if d.PlatformCounts, err = aggregate.GroupSumBoolean(titleTable, b.opts.Platforms...); err != nil {
		return nil, fmt.Errorf("failed to count platforms: %w", err)
	}
	if d.PlatformAgeScores, err = b.platformAgeScores(titleTable); err != nil {
		return nil, err
	}

	d.Takeaways = Takeaways(d, b.opts.MinGroupSize, b.opts.TopK)
	return d, nil
}

// yearTrend fits the per-year means of field against the numeric year.
func yearTrend(years models.GroupSummary, field string) aggregate.Trend {
	xs := make([]models.Number, 0, len(years.Rows))
	ys := make([]models.Number, 0, len(years.Rows))
	for _, r := range years.Rows {
		xs = append(xs, normalize.CoerceNumeric(r.Category))
		ys = append(ys, r.Values[field])
	}
	return aggregate.LinearTrend(xs, ys)
}

var correlatedMeasures = []string{dataset.ColRuntime, dataset.ColVotes, dataset.ColGross}

func ratingCorrelations(t *table.Table[models.Movie]) ([]RatingCorrelation, error) {
	ratings, err := t.Values(dataset.ColRating)
	if err != nil {
		return nil, fmt.Errorf("failed to read ratings: %w", err)
	}
	out := make([]RatingCorrelation, 0, len(correlatedMeasures))
	for _, m := range correlatedMeasures {
		values, err := t.Values(m)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", m, err)
		}
		out = append(out, RatingCorrelation{Measure: m, R: aggregate.Correlation(ratings, values)})
	}
	return out, nil
}

func (b *Builder) platformAgeScores(t *table.Table[models.Title]) ([]PlatformAgeScores, error) {
	out := make([]PlatformAgeScores, 0, len(b.opts.Platforms))
	for _, p := range b.opts.Platforms {
		flag, err := t.NumberColumn(p)
		if err != nil {
			return nil, fmt.Errorf("failed to select %s titles: %w", p, err)
		}
		listed := t.Where(func(row models.Title) bool { return flag(row).Valid })
		summary, err := aggregate.GroupStats(listed, dataset.ColAge, dataset.ColRottenTomatoes)
		if err != nil {
			return nil, fmt.Errorf("failed to summarize %s age groups: %w", p, err)
		}
		out = append(out, PlatformAgeScores{Platform: p, Summary: summary})
	}
	return out, nil
}
