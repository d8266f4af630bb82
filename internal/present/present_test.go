package present

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rewired-gh/cinestat/internal/aggregate"
	"github.com/rewired-gh/cinestat/internal/dashboard"
	"github.com/rewired-gh/cinestat/internal/models"
)

func sumSummary(pairs ...interface{}) models.GroupSummary {
	s := models.GroupSummary{Key: aggregate.LabelKey, Fields: []string{models.AggSum}}
	for i := 0; i < len(pairs); i += 2 {
		s.Rows = append(s.Rows, models.SummaryRow{
			Category: pairs[i].(string),
			Size:     10,
			Values:   map[string]models.Number{models.AggSum: models.Some(pairs[i+1].(float64))},
		})
	}
	return s
}

func sampleDashboard() *dashboard.Dashboard {
	return &dashboard.Dashboard{
		Headline: dashboard.Headline{Movies: 3, Directors: 2, Genres: 2, Platforms: 2, Titles: 5},
		Directors: models.GroupSummary{
			Key:    "director",
			Fields: []string{"count", "rating_mean", "gross_mean"},
			Rows: []models.SummaryRow{
				{Category: "Alice", Size: 2, Values: map[string]models.Number{
					"count": models.Some(2), "rating_mean": models.Some(8.5), "gross_mean": models.Some(200.004),
				}},
				{Category: "Bob", Size: 1, Values: map[string]models.Number{
					"count": models.Some(1), "rating_mean": models.Some(7), "gross_mean": models.Missing(),
				}},
			},
		},
		Years: models.GroupSummary{
			Key:    "year",
			Fields: []string{"runtime_mean", "rating_mean"},
			Rows: []models.SummaryRow{
				{Category: "2000", Size: 1, Values: map[string]models.Number{"runtime_mean": models.Some(100), "rating_mean": models.Some(8)}},
				{Category: "2010", Size: 2, Values: map[string]models.Number{"runtime_mean": models.Some(130), "rating_mean": models.Some(8)}},
			},
		},
		RuntimeTrend: aggregate.Trend{N: 2, Slope: models.Some(3), Intercept: models.Some(-5900), R2: models.Some(1)},
		RatingCorrelations: []dashboard.RatingCorrelation{
			{Measure: "runtime", R: models.Some(-0.5)},
			{Measure: "gross", R: models.Missing()},
		},
		GenreCounts: sumSummary("Drama", 3.0, "Action", 2.0),
		GenreMetaScores: []aggregate.BoxStats{
			aggregate.Describe("Drama", []models.Number{models.Some(80), models.Some(90)}),
			aggregate.Describe("Action", nil),
		},
		MetaScoreSource: dashboard.MetaScoreComputed,
		PlatformCounts:  sumSummary("Netflix", 3.0, "Hulu", 2.0),
		PlatformAgeScores: []dashboard.PlatformAgeScores{
			{Platform: "Netflix", Summary: models.GroupSummary{
				Key:    "age",
				Fields: []string{"rotten_tomatoes_mean"},
				Rows: []models.SummaryRow{
					{Category: "7+", Size: 1, Values: map[string]models.Number{"rotten_tomatoes_mean": models.Some(60)}},
					{Category: "18+", Size: 2, Values: map[string]models.Number{"rotten_tomatoes_mean": models.Some(85)}},
				},
			}},
		},
		Takeaways: []models.Insight{
			{Kind: dashboard.KindTopGenre, Title: "Most common genre", Category: "Drama", Value: models.Some(3), Detail: "Drama is flagged on 3 movies"},
		},
	}
}

func findChart(t *testing.T, charts []ChartConfig, id string) ChartConfig {
	t.Helper()
	for _, c := range charts {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("chart %q not found", id)
	return ChartConfig{}
}

func TestCharts(t *testing.T) {
	charts := Charts(sampleDashboard())

	var ids []string
	for _, c := range charts {
		ids = append(ids, c.ID)
	}
	wantIDs := []string{
		"directors", "runtime_by_year", "rating_by_year", "genre_counts", "genre_share",
		"genre_meta_scores", "platform_counts", "platform_share", "age_scores",
	}
	if diff := cmp.Diff(wantIDs, ids); diff != "" {
		t.Errorf("Chart IDs mismatch (-want +got):\n%s", diff)
	}

	directors := findChart(t, charts, "directors")
	alice := directors.Series[0].Data[0]
	if alice.X != models.Some(2) || alice.Value != models.Some(200) {
		t.Errorf("Unexpected Alice point: %+v", alice)
	}
	if !directors.Series[0].Data[1].Value.IsMissing() {
		t.Error("Missing gross should stay missing in the chart")
	}

	runtime := findChart(t, charts, "runtime_by_year")
	if len(runtime.Series) != 2 || runtime.Series[1].Name != "OLS trend" {
		t.Fatalf("Expected data and trend series, got %+v", runtime.Series)
	}
	trend := runtime.Series[1].Data
	if trend[0].Value != models.Some(100) || trend[1].Value != models.Some(130) {
		t.Errorf("Unexpected trend endpoints: %+v", trend)
	}
	if rating := findChart(t, charts, "rating_by_year"); len(rating.Series) != 1 {
		t.Errorf("Rating chart should have no trend series, got %d", len(rating.Series))
	}

	share := findChart(t, charts, "genre_share")
	if share.ChartType != ChartPie || share.ShowGrid {
		t.Errorf("Unexpected pie config: %+v", share)
	}

	box := findChart(t, charts, "genre_meta_scores")
	if box.Series[0].Data[0].Box == nil || box.Series[0].Data[0].Value != models.Some(85) {
		t.Errorf("Unexpected Drama box point: %+v", box.Series[0].Data[0])
	}
}

func TestCharts_PlatformColors(t *testing.T) {
	charts := Charts(sampleDashboard())

	counts := findChart(t, charts, "platform_counts")
	if diff := cmp.Diff([]string{"red", "lawngreen"}, counts.Colors); diff != "" {
		t.Errorf("Bar colors mismatch (-want +got):\n%s", diff)
	}
	share := findChart(t, charts, "platform_share")
	if diff := cmp.Diff([]string{"orangered", "lawngreen"}, share.Colors); diff != "" {
		t.Errorf("Pie colors mismatch (-want +got):\n%s", diff)
	}
	if PlatformColors["Netflix"] != "red" {
		t.Error("Pie override must not leak into PlatformColors")
	}

	ages := findChart(t, charts, "age_scores")
	if ages.Series[0].Color != "red" || ages.Series[0].Data[1].Label != "18+" {
		t.Errorf("Unexpected age series: %+v", ages.Series[0])
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleDashboard()); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"== Overview ==",
		"Movies collected",
		"Alice",
		"increasing",
		"Rating vs gross",
		InsufficientData,
		"Drama",
		"== Rotten Tomatoes by age group: Netflix ==",
		"1.",
		"Drama is flagged on 3 movies",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Alice") > strings.Index(out, "Bob") {
		t.Error("Directors should be ranked by movie count")
	}
}

func TestWriteText_StaticSource(t *testing.T) {
	d := sampleDashboard()
	d.MetaScoreSource = dashboard.MetaScoreStatic
	d.GenreMetaScores = aggregate.StaticBoxes([]string{"Drama", "Action"})

	var buf bytes.Buffer
	if err := WriteText(&buf, d); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}
	if !strings.Contains(buf.String(), "static ("+aggregate.StaticMetaScoreVersion+")") {
		t.Errorf("report should name the static table version:\n%s", buf.String())
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		n    models.Number
		prec int
		want string
	}{
		{models.Some(107.5), 1, "107.5"},
		{models.Some(2), 0, "2"},
		{models.Some(0), 2, "0.00"},
		{models.Missing(), 2, InsufficientData},
	}
	for _, tt := range tests {
		if got := Format(tt.n, tt.prec); got != tt.want {
			t.Errorf("Format(%v, %d) = %q, want %q", tt.n, tt.prec, got, tt.want)
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, bytes.ErrTooLarge }

func TestWriteText_WriterError(t *testing.T) {
	if err := WriteText(failingWriter{}, sampleDashboard()); err == nil {
		t.Error("Expected error from failing writer")
	}
}

func TestReport_WriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "dashboard.json")
	if err := NewReport(sampleDashboard()).WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Report not written: %v", err)
	}
	var got struct {
		Dashboard struct {
			Headline dashboard.Headline `json:"headline"`
		} `json:"dashboard"`
		Charts []ChartConfig `json:"charts"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Report is not JSON: %v", err)
	}
	if got.Dashboard.Headline.Titles != 5 {
		t.Errorf("Unexpected headline: %+v", got.Dashboard.Headline)
	}
	if len(got.Charts) != len(Charts(sampleDashboard())) {
		t.Errorf("Expected every chart in the report, got %d", len(got.Charts))
	}
}
