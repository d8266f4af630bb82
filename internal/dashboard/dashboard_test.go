package dashboard

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/rewired-gh/cinestat/internal/models"
)

var (
	testGenres    = []string{"Drama", "Action"}
	testPlatforms = []string{"Netflix", "Hulu"}
)

func movie(title string, year float64, cert string, runtime float64, genre string, rating, meta float64, director string, votes, gross float64) models.Movie {
	n := func(v float64) models.Number {
		if math.IsNaN(v) {
			return models.Missing()
		}
		return models.Some(v)
	}
	m := models.Movie{
		Title:       title,
		Year:        n(year),
		Certificate: cert,
		Runtime:     n(runtime),
		Genre:       genre,
		Rating:      n(rating),
		MetaScore:   n(meta),
		Director:    director,
		Votes:       n(votes),
		Gross:       n(gross),
		GenreFlags:  map[string]models.Number{},
	}
	for _, g := range testGenres {
		if strings.Contains(genre, g) {
			m.GenreFlags[g] = models.Some(1)
		}
	}
	return m
}

func title(name, age string, rt float64, platform string) models.Title {
	t := models.Title{
		ID:             name,
		Name:           name,
		Age:            age,
		RottenTomatoes: models.Some(rt),
		Platforms:      map[string]models.Number{},
	}
	for _, p := range testPlatforms {
		if p == platform {
			t.Platforms[p] = models.Some(1)
		} else {
			t.Platforms[p] = models.Some(0)
		}
	}
	return t
}

func fixture() ([]models.Movie, []models.Title) {
	nan := math.NaN()
	movies := []models.Movie{
		movie("A1", 2000, "U", 100, "Drama", 8, 80, "Alice", 1000, 100),
		movie("A2", 2010, "U", 120, "Drama, Action", 9, 90, "Alice", 2000, 300),
		movie("B1", 2010, "A", 140, "Action", 7, 70, "Bob", 2500, 250),
		movie("C1", nan, "", 90, "Drama", 8.5, nan, "Carol", 500, nan),
	}
	titles := []models.Title{
		title("T1", "18+", 90, "Netflix"),
		title("T2", "7+", 60, "Netflix"),
		title("T3", "18+", 80, "Netflix"),
		title("T4", "all", 70, "Hulu"),
		title("T5", "", 50, "Hulu"),
	}
	return movies, titles
}

func mustBuilder(t *testing.T, opts Options) *Builder {
	t.Helper()
	b, err := NewBuilder(opts)
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}
	b.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return b
}

func TestBuild(t *testing.T) {
	b := mustBuilder(t, Options{Genres: testGenres, Platforms: testPlatforms})
	movies, titles := fixture()

	d, err := b.Build(movies, titles)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	wantHeadline := Headline{Movies: 4, Directors: 2, Genres: 2, Platforms: 2, Titles: 5}
	if d.Headline != wantHeadline {
		t.Errorf("Headline = %+v, want %+v", d.Headline, wantHeadline)
	}

	if diff := cmp.Diff([]string{"Alice", "Bob"}, d.Directors.Categories()); diff != "" {
		t.Errorf("Director categories mismatch (-want +got):\n%s", diff)
	}
	if v := d.Directors.Value("Alice", "gross_mean"); v != models.Some(200) {
		t.Errorf("Alice gross mean = %v, want 200", v)
	}
	if v := d.Directors.Value("Alice", "rating_mean"); v != models.Some(8.5) {
		t.Errorf("Alice rating mean = %v, want 8.5", v)
	}

	if diff := cmp.Diff([]string{"2000", "2010"}, d.Years.Categories()); diff != "" {
		t.Errorf("Year categories mismatch (-want +got):\n%s", diff)
	}
	if v := d.Years.Value("2010", "runtime_mean"); v != models.Some(130) {
		t.Errorf("2010 runtime mean = %v, want 130", v)
	}
	if math.Abs(d.RuntimeTrend.Slope.Value-3) > 1e-9 || d.RuntimeTrend.Direction() != "increasing" {
		t.Errorf("Unexpected runtime trend: %+v", d.RuntimeTrend)
	}

	if len(d.RatingCorrelations) != 3 {
		t.Fatalf("Expected 3 correlations, got %d", len(d.RatingCorrelations))
	}
	wantR := map[string]float64{"runtime": -0.5, "votes": -500 / math.Sqrt(2*3500000.0/3), "gross": 50 / math.Sqrt(2*65000.0/3)}
	for _, c := range d.RatingCorrelations {
		if !c.R.Valid || math.Abs(c.R.Value-wantR[c.Measure]) > 1e-9 {
			t.Errorf("Correlation with %s = %v, want %v", c.Measure, c.R, wantR[c.Measure])
		}
	}

	// C1 is missing required fields, so it is not counted
	if v := d.GenreCounts.Value("Drama", models.AggSum); v != models.Some(2) {
		t.Errorf("Drama count = %v, want 2", v)
	}
	if v := d.GenreCounts.Value("Action", models.AggSum); v != models.Some(2) {
		t.Errorf("Action count = %v, want 2", v)
	}

	if d.MetaScoreSource != MetaScoreComputed || len(d.GenreMetaScores) != 2 {
		t.Fatalf("Unexpected meta score boxes: %s %+v", d.MetaScoreSource, d.GenreMetaScores)
	}
	for _, box := range d.GenreMetaScores {
		if v := d.GenreCounts.Value(box.Category, models.AggSum); v != models.Some(float64(box.N)) {
			t.Errorf("%s count = %v, but its meta score box covers %d movies", box.Category, v, box.N)
		}
	}
	if d.GenreMetaScores[0].Median != models.Some(85) || d.GenreMetaScores[1].Median != models.Some(80) {
		t.Errorf("Unexpected medians: %v, %v", d.GenreMetaScores[0].Median, d.GenreMetaScores[1].Median)
	}

	if v := d.PlatformCounts.Value("Netflix", models.AggSum); v != models.Some(3) {
		t.Errorf("Netflix count = %v, want 3", v)
	}

	if len(d.PlatformAgeScores) != 2 {
		t.Fatalf("Expected 2 platform age summaries, got %d", len(d.PlatformAgeScores))
	}
	netflix := d.PlatformAgeScores[0]
	if diff := cmp.Diff([]string{"7+", "18+"}, netflix.Summary.Categories()); diff != "" {
		t.Errorf("Netflix age groups mismatch (-want +got):\n%s", diff)
	}
	if v := netflix.Summary.Value("18+", "rotten_tomatoes_mean"); v != models.Some(85) {
		t.Errorf("Netflix 18+ mean = %v, want 85", v)
	}
	if diff := cmp.Diff([]string{"all"}, d.PlatformAgeScores[1].Summary.Categories()); diff != "" {
		t.Errorf("Hulu age groups mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	b := mustBuilder(t, Options{Genres: testGenres, Platforms: testPlatforms})
	movies, titles := fixture()

	first, err := b.Build(movies, titles)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	second, err := b.Build(movies, titles)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Repeated builds differ (-first +second):\n%s", diff)
	}
}

func TestBuild_StaticMetaScores(t *testing.T) {
	b := mustBuilder(t, Options{Genres: testGenres, Platforms: testPlatforms, MetaScoreSource: MetaScoreStatic})
	movies, titles := fixture()

	d, err := b.Build(movies, titles)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if d.MetaScoreSource != MetaScoreStatic {
		t.Errorf("MetaScoreSource = %q, want static", d.MetaScoreSource)
	}
	if d.GenreMetaScores[0].Median != models.Some(79) || d.GenreMetaScores[1].Median != models.Some(75) {
		t.Errorf("Expected static medians 79 and 75, got %+v", d.GenreMetaScores)
	}
}

func TestBuild_Empty(t *testing.T) {
	b := mustBuilder(t, Options{Genres: testGenres, Platforms: testPlatforms})
	d, err := b.Build(nil, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if d.Headline.Movies != 0 || len(d.Directors.Rows) != 0 {
		t.Errorf("Expected empty dashboard, got %+v", d.Headline)
	}
	if d.RuntimeTrend.Slope.Valid {
		t.Error("Expected missing trend for empty input")
	}
	if !d.GenreMetaScores[0].Median.IsMissing() {
		t.Error("Expected missing median for empty input")
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"valid", Options{Genres: testGenres, Platforms: testPlatforms}, false},
		{"static", Options{Genres: testGenres, Platforms: testPlatforms, MetaScoreSource: "static"}, false},
		{"no genres", Options{Platforms: testPlatforms}, true},
		{"no platforms", Options{Genres: testGenres}, true},
		{"duplicate genre", Options{Genres: []string{"Drama", "Drama"}, Platforms: testPlatforms}, true},
		{"empty platform", Options{Genres: testGenres, Platforms: []string{""}}, true},
		{"bad source", Options{Genres: testGenres, Platforms: testPlatforms, MetaScoreSource: "plotly"}, true},
		{"negative min size", Options{Genres: testGenres, Platforms: testPlatforms, MinGroupSize: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
