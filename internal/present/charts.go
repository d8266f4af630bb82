// Package present turns a computed dashboard into render-ready chart
// configurations and a plain text report. It performs no aggregation of its
// own: every number shown comes from the dashboard.
package present

import (
	"math"

	"github.com/rewired-gh/cinestat/internal/aggregate"
	"github.com/rewired-gh/cinestat/internal/dashboard"
	"github.com/rewired-gh/cinestat/internal/dataset"
	"github.com/rewired-gh/cinestat/internal/models"
	"github.com/rewired-gh/cinestat/internal/normalize"
)

// Chart types.
const (
	ChartBar     = "bar"
	ChartPie     = "pie"
	ChartScatter = "scatter"
	ChartBox     = "box"
)

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// PlatformColors is the fixed color of each streaming platform.
var PlatformColors = map[string]string{
	"Netflix":     "red",
	"Disney+":     "mediumblue",
	"Hulu":        "lawngreen",
	"Prime Video": "lightskyblue",
}

// platformPieColors overrides PlatformColors on the share chart.
var platformPieColors = map[string]string{
	"Netflix": "orangered",
}

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ID         string        `json:"id"`
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint represents a single data point. X is set on scatter charts and
// Box on box charts; a missing Value renders as a gap.
type ChartPoint struct {
	Label string              `json:"label"`
	X     models.Number       `json:"x"`
	Value models.Number       `json:"value"`
	Color string              `json:"color,omitempty"`
	Box   *aggregate.BoxStats `json:"box,omitempty"`
}

// Charts builds every chart of the dashboard, in display order.
func Charts(d *dashboard.Dashboard) []ChartConfig {
	charts := []ChartConfig{
		directorChart(d),
		yearChart(d, "runtime_by_year", "Runtime by the Years", dataset.ColRuntime, true),
		yearChart(d, "rating_by_year", "Ratings Over Time", dataset.ColRating, false),
		labelChart("genre_counts", ChartBar, "Distribution of Genres", "Genre", "Number of movies",
			d.GenreCounts, nil),
		labelChart("genre_share", ChartPie, "Share of Genres", "", "",
			d.GenreCounts, nil),
		boxChart(d),
		labelChart("platform_counts", ChartBar, "Movie Availability in Streaming Platforms", "Platform", "Movie amount",
			d.PlatformCounts, PlatformColors),
		labelChart("platform_share", ChartPie, "Number of Movies in Streaming Platforms", "", "",
			d.PlatformCounts, withOverrides(PlatformColors, platformPieColors)),
		ageChart(d),
	}
	return charts
}

func directorChart(d *dashboard.Dashboard) ChartConfig {
	countField := models.AggCount
	grossField := models.FieldName(dataset.ColGross, models.AggMean)

	points := make([]ChartPoint, 0, len(d.Directors.Rows))
	for _, r := range d.Directors.Rows {
		points = append(points, ChartPoint{
			Label: r.Category,
			X:     round2(r.Values[countField]),
			Value: round2(r.Values[grossField]),
		})
	}
	return ChartConfig{
		ID:        "directors",
		ChartType: ChartScatter,
		Title:     "Which directors are most successful?",
		XAxis:     "Number of movies made",
		YAxis:     "Average domestic revenue",
		Series:    []ChartSeries{{Name: "Directors", Data: points, Color: defaultColors[0]}},
		Colors:    []string{defaultColors[0]},
		ShowGrid:  true,
	}
}

func yearChart(d *dashboard.Dashboard, id, title, measure string, withTrend bool) ChartConfig {
	field := models.FieldName(measure, models.AggMean)

	points := make([]ChartPoint, 0, len(d.Years.Rows))
	first, last := models.Missing(), models.Missing()
	for _, r := range d.Years.Rows {
		year := normalize.CoerceNumeric(r.Category)
		if !year.Valid {
			continue
		}
		if !first.Valid {
			first = year
		}
		last = year
		points = append(points, ChartPoint{Label: r.Category, X: year, Value: round2(r.Values[field])})
	}

	config := ChartConfig{
		ID:        id,
		ChartType: ChartScatter,
		Title:     title,
		XAxis:     "Year",
		YAxis:     measure,
		Series:    []ChartSeries{{Name: measure, Data: points, Color: defaultColors[0]}},
		ShowGrid:  true,
	}
	if withTrend && d.RuntimeTrend.Slope.Valid && first.Valid {
		config.Series = append(config.Series, ChartSeries{
			Name:  "OLS trend",
			Color: defaultColors[3],
			Data: []ChartPoint{
				{Label: first.String(), X: first, Value: round2(d.RuntimeTrend.At(first.Value))},
				{Label: last.String(), X: last, Value: round2(d.RuntimeTrend.At(last.Value))},
			},
		})
		config.ShowLegend = true
	}
	config.Colors = seriesColors(config.Series)
	return config
}

// labelChart renders an indicator sum summary. palette may be nil.
func labelChart(id, chartType, title, xAxis, yAxis string, summary models.GroupSummary, palette map[string]string) ChartConfig {
	points := make([]ChartPoint, 0, len(summary.Rows))
	colors := make([]string, 0, len(summary.Rows))
	for i, r := range summary.Rows {
		color := defaultColors[i%len(defaultColors)]
		if c, ok := palette[r.Category]; ok {
			color = c
		}
		points = append(points, ChartPoint{Label: r.Category, Value: round2(r.Values[models.AggSum]), Color: color})
		colors = append(colors, color)
	}
	return ChartConfig{
		ID:         id,
		ChartType:  chartType,
		Title:      title,
		XAxis:      xAxis,
		YAxis:      yAxis,
		Series:     []ChartSeries{{Name: title, Data: points}},
		Colors:     colors,
		ShowLegend: true,
		ShowGrid:   chartType != ChartPie,
	}
}

func boxChart(d *dashboard.Dashboard) ChartConfig {
	points := make([]ChartPoint, 0, len(d.GenreMetaScores))
	colors := make([]string, 0, len(d.GenreMetaScores))
	for i, b := range d.GenreMetaScores {
		box := b
		color := defaultColors[i%len(defaultColors)]
		points = append(points, ChartPoint{Label: b.Category, Value: round2(b.Median), Color: color, Box: &box})
		colors = append(colors, color)
	}
	return ChartConfig{
		ID:         "genre_meta_scores",
		ChartType:  ChartBox,
		Title:      "Distribution of Meta Score",
		XAxis:      "Genre",
		YAxis:      "Meta score",
		Series:     []ChartSeries{{Name: "Meta score", Data: points}},
		Colors:     colors,
		ShowLegend: true,
		ShowGrid:   true,
	}
}

func ageChart(d *dashboard.Dashboard) ChartConfig {
	field := models.FieldName(dataset.ColRottenTomatoes, models.AggMean)

	series := make([]ChartSeries, 0, len(d.PlatformAgeScores))
	for i, p := range d.PlatformAgeScores {
		color, ok := PlatformColors[p.Platform]
		if !ok {
			color = defaultColors[i%len(defaultColors)]
		}
		points := make([]ChartPoint, 0, len(p.Summary.Rows))
		for _, r := range p.Summary.Rows {
			points = append(points, ChartPoint{Label: r.Category, Value: round2(r.Values[field])})
		}
		series = append(series, ChartSeries{Name: p.Platform, Data: points, Color: color})
	}
	return ChartConfig{
		ID:         "age_scores",
		ChartType:  ChartBar,
		Title:      "Which Age Group Has The Best Movies",
		XAxis:      "Age",
		YAxis:      "Rotten Tomatoes",
		Series:     series,
		Colors:     seriesColors(series),
		ShowLegend: true,
		ShowGrid:   true,
	}
}

func seriesColors(series []ChartSeries) []string {
	colors := make([]string, len(series))
	for i, s := range series {
		colors[i] = s.Color
	}
	return colors
}

func withOverrides(base, overrides map[string]string) map[string]string {
	out := make(map[string]string, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// round2 rounds to two decimals, keeping missing values missing.
func round2(n models.Number) models.Number {
	if !n.Valid {
		return n
	}
	return models.Some(math.Round(n.Value*100) / 100)
}
