package present

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rewired-gh/cinestat/internal/aggregate"
	"github.com/rewired-gh/cinestat/internal/dashboard"
	"github.com/rewired-gh/cinestat/internal/dataset"
	"github.com/rewired-gh/cinestat/internal/models"
)

// InsufficientData is printed in place of a missing value.
const InsufficientData = "insufficient data"

// maxDirectorRows caps the director table of the text report.
const maxDirectorRows = 10

// WriteText writes a tab-aligned report of every dashboard section.
func WriteText(w io.Writer, d *dashboard.Dashboard) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	p := &printer{w: tw}

	h := d.Headline
	p.section("Overview")
	p.row("Movies collected", fmt.Sprint(h.Movies))
	p.row("Directors analyzed", fmt.Sprint(h.Directors))
	p.row("Genres categorized", fmt.Sprint(h.Genres))
	p.row("Streaming platforms sorted", fmt.Sprint(h.Platforms))
	p.row("Streaming titles", fmt.Sprint(h.Titles))

	gross := models.FieldName(dataset.ColGross, models.AggMean)
	rating := models.FieldName(dataset.ColRating, models.AggMean)
	p.section(fmt.Sprintf("Top directors (of %d)", len(d.Directors.Rows)))
	p.row("Director", "Movies", "Avg rating", "Avg gross")
	for _, r := range dashboard.Rank(d.Directors, models.AggCount, 0, maxDirectorRows) {
		p.row(r.Category, Format(r.Values[models.AggCount], 0), Format(r.Values[rating], 2), Format(r.Values[gross], 0))
	}

	p.section("Movies through the ages")
	p.row("Runtime trend", d.RuntimeTrend.Direction(),
		"slope "+Format(d.RuntimeTrend.Slope, 3), "r2 "+Format(d.RuntimeTrend.R2, 3))
	for _, c := range d.RatingCorrelations {
		p.row("Rating vs "+c.Measure, "r "+Format(c.R, 3))
	}

	p.section("Genres")
	p.row("Genre", "Movies", "Min", "Q1", "Median", "Q3", "Max", "Whisker")
	boxes := make(map[string]int, len(d.GenreMetaScores))
	for i, b := range d.GenreMetaScores {
		boxes[b.Category] = i
	}
	for _, r := range d.GenreCounts.Rows {
		cells := []string{r.Category, Format(r.Values[models.AggSum], 0)}
		if i, ok := boxes[r.Category]; ok {
			b := d.GenreMetaScores[i]
			cells = append(cells, Format(b.Min, 1), Format(b.Q1, 1), Format(b.Median, 1),
				Format(b.Q3, 1), Format(b.Max, 1), Format(b.LowerWhisker, 2))
		}
		p.row(cells...)
	}
	source := d.MetaScoreSource
	if source == dashboard.MetaScoreStatic {
		source += " (" + aggregate.StaticMetaScoreVersion + ")"
	}
	p.row("Meta score source", source)

	p.section("Streaming platforms")
	p.row("Platform", "Titles")
	for _, r := range d.PlatformCounts.Rows {
		p.row(r.Category, Format(r.Values[models.AggSum], 0))
	}

	rt := models.FieldName(dataset.ColRottenTomatoes, models.AggMean)
	for _, a := range d.PlatformAgeScores {
		p.section("Rotten Tomatoes by age group: " + a.Platform)
		p.row("Age", "Titles", "Avg score")
		for _, r := range a.Summary.Rows {
			p.row(r.Category, fmt.Sprint(r.Size), Format(r.Values[rt], 1))
		}
	}

	if len(d.Takeaways) > 0 {
		p.section("Takeaways")
		for i, in := range d.Takeaways {
			p.row(fmt.Sprintf("%d.", i+1), in.Title, in.Detail)
		}
	}

	if p.err != nil {
		return fmt.Errorf("failed to write report: %w", p.err)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	return nil
}

// Format renders n with the given precision, or InsufficientData when missing.
func Format(n models.Number, precision int) string {
	if !n.Valid {
		return InsufficientData
	}
	return fmt.Sprintf("%.*f", precision, n.Value)
}

// printer keeps the first write error so that the report body reads linearly.
type printer struct {
	w     io.Writer
	err   error
	wrote bool
}

func (p *printer) section(title string) {
	if p.wrote {
		p.printf("\n")
	}
	p.printf("== %s ==\n", title)
	p.wrote = true
}

func (p *printer) row(cells ...string) {
	p.printf("%s\n", strings.Join(cells, "\t"))
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
