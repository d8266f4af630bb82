package dataset

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rewired-gh/cinestat/internal/aggregate"
	"github.com/rewired-gh/cinestat/internal/models"
	"github.com/rewired-gh/cinestat/internal/normalize"
)

var genres = []string{"Drama", "Action", "Sci-Fi"}

const moviesCSV = `Poster_Link,Series_Title,Released_Year,Certificate,Runtime,Genre,IMDB_Rating,Overview,Meta_score,Director,Star1,No_of_Votes,Gross
http://x/1.jpg,The Dark Knight,2008,UA,152 min,"Action, Crime, Drama",9.0,"Batman, again.",84,Christopher Nolan,Christian Bale,2303232,"534,858,444"
http://x/2.jpg,Inception,2010,UA,148 min,"Action, Adventure, Sci-Fi",8.8,Dreams.,74,Christopher Nolan,Leonardo DiCaprio,2067042,"292,576,195"
http://x/3.jpg,Apollo 13,PG,U,140 min,"Adventure, Drama, History",7.6,Space.,77,Ron Howard,Tom Hanks,269197,"173,837,933"
http://x/4.jpg,Unrated Gem,1999,,95 min,Drama,8.1,Quiet.,,Jane Doe,Nobody,1200,
http://x/5.jpg,,2001,A,100 min,Drama,7.9,No title.,60,Someone,Nobody,10,"1,000"
http://x/6.jpg,Too Good,2001,A,100 min,Drama,11.5,Broken.,60,Someone,Nobody,10,"1,000"
`

const titlesCSV = `,ID,Title,Year,Age,IMDb,Rotten Tomatoes,Netflix,Hulu,Prime Video,Disney+,Type
0,1,Breaking Bad,2008,18+,9.4/10,100/100,1,0,0,0,1
1,2,Stranger Things,2016,16+,8.7/10,96/100,1,0,0,0,1
2,3,The Mandalorian,2019,7+,8.8/10,93/100,0,0,0,1,1
3,4,Old Show,1985,,,,0,1,1,0,1
4,5,,2000,all,7.0/10,50/100,1,0,0,0,1
`

func TestParseMovies(t *testing.T) {
	movies, err := ParseMovies([]byte(moviesCSV), genres)
	if err != nil {
		t.Fatalf("ParseMovies failed: %v", err)
	}
	// The untitled row and the out-of-range rating are skipped.
	if len(movies) != 4 {
		t.Fatalf("Expected 4 movies, got %d", len(movies))
	}

	dk := movies[0]
	want := models.Movie{
		Title:       "The Dark Knight",
		Year:        models.Some(2008),
		Certificate: "UA",
		Runtime:     models.Some(152),
		Genre:       "Action, Crime, Drama",
		Rating:      models.Some(9),
		MetaScore:   models.Some(84),
		Director:    "Christopher Nolan",
		Votes:       models.Some(2303232),
		Gross:       models.Some(534858444),
		GenreFlags: map[string]models.Number{
			"Drama":  models.Some(1),
			"Action": models.Some(1),
			"Sci-Fi": models.Missing(),
		},
	}
	if diff := cmp.Diff(want, dk); diff != "" {
		t.Errorf("Dark Knight mismatch (-want +got):\n%s", diff)
	}

	apollo := movies[2]
	if !apollo.Year.IsMissing() {
		t.Errorf("Expected placeholder year to be missing, got %v", apollo.Year)
	}
	if apollo.YearLabel() != "" {
		t.Errorf("Expected empty year label, got %q", apollo.YearLabel())
	}

	gem := movies[3]
	if gem.Certificate != "" || !gem.MetaScore.IsMissing() || !gem.Gross.IsMissing() {
		t.Errorf("Expected blank fields to be missing, got %+v", gem)
	}
}

func TestParseMovies_MissingHeader(t *testing.T) {
	data := "Series_Title,Runtime\nX,100 min\n"
	_, err := ParseMovies([]byte(data), genres)
	if err == nil {
		t.Fatal("Expected error for missing columns")
	}
	if !strings.Contains(err.Error(), "IMDB_Rating") {
		t.Errorf("Error should name the missing column, got %v", err)
	}

	if _, err := ParseMovies(nil, genres); err == nil {
		t.Error("Expected error for empty input")
	}
}

func TestParseMovies_ByteOrderMark(t *testing.T) {
	movies, err := ParseMovies([]byte("\xef\xbb\xbf"+moviesCSV), genres)
	if err != nil {
		t.Fatalf("ParseMovies failed: %v", err)
	}
	if len(movies) != 4 {
		t.Errorf("Expected 4 movies, got %d", len(movies))
	}
}

func TestMovieSchema_DirectorRuntime(t *testing.T) {
	movies, err := ParseMovies([]byte(moviesCSV), genres)
	if err != nil {
		t.Fatalf("ParseMovies failed: %v", err)
	}
	tbl := MovieSchema(genres).Bind(movies)

	complete, err := normalize.DropIncomplete(tbl, MovieRequired...)
	if err != nil {
		t.Fatalf("DropIncomplete failed: %v", err)
	}
	// Unrated Gem lacks certificate, meta score and gross.
	if complete.Len() != 3 {
		t.Fatalf("Expected 3 complete movies, got %d", complete.Len())
	}

	got, err := aggregate.GroupMean(complete, ColDirector, ColRuntime)
	if err != nil {
		t.Fatalf("GroupMean failed: %v", err)
	}
	if v := got.Value("Christopher Nolan", "runtime_mean"); v != models.Some(150) {
		t.Errorf("Nolan runtime mean = %v, want 150", v)
	}

	years, err := aggregate.GroupCount(complete, ColYear)
	if err != nil {
		t.Fatalf("GroupCount failed: %v", err)
	}
	if diff := cmp.Diff([]string{"2008", "2010"}, years.Categories()); diff != "" {
		t.Errorf("Year categories mismatch (-want +got):\n%s", diff)
	}

	counts, err := aggregate.GroupSumBoolean(tbl, genres...)
	if err != nil {
		t.Fatalf("GroupSumBoolean failed: %v", err)
	}
	for label, n := range map[string]float64{"Drama": 3, "Action": 2, "Sci-Fi": 1} {
		if v := counts.Value(label, models.AggSum); v != models.Some(n) {
			t.Errorf("sum(%s) = %v, want %v", label, v, n)
		}
	}
}

func TestParseTitles(t *testing.T) {
	platforms := []string{"Netflix", "Hulu", "Prime Video", "Disney+"}
	titles, err := ParseTitles([]byte(titlesCSV), platforms)
	if err != nil {
		t.Fatalf("ParseTitles failed: %v", err)
	}
	if len(titles) != 4 {
		t.Fatalf("Expected 4 titles, got %d", len(titles))
	}

	bb := titles[0]
	if bb.IMDb != models.Some(9.4) || bb.RottenTomatoes != models.Some(100) || bb.Age != "18+" {
		t.Errorf("Unexpected Breaking Bad record: %+v", bb)
	}
	if !bb.OnPlatform("Netflix") || bb.OnPlatform("Hulu") {
		t.Errorf("Unexpected platforms for Breaking Bad: %v", bb.Platforms)
	}

	old := titles[3]
	if old.Age != "" || !old.IMDb.IsMissing() || !old.RottenTomatoes.IsMissing() {
		t.Errorf("Expected missing fields for Old Show, got %+v", old)
	}

	tbl := TitleSchema(platforms).Bind(titles)
	counts, err := aggregate.GroupSumBoolean(tbl, platforms...)
	if err != nil {
		t.Fatalf("GroupSumBoolean failed: %v", err)
	}
	want := map[string]float64{"Netflix": 2, "Hulu": 1, "Prime Video": 1, "Disney+": 1}
	for p, n := range want {
		if v := counts.Value(p, models.AggSum); v != models.Some(n) {
			t.Errorf("sum(%s) = %v, want %v", p, v, n)
		}
	}
}

func TestParseTitles_UnknownPlatform(t *testing.T) {
	if _, err := ParseTitles([]byte(titlesCSV), []string{"Peacock"}); err == nil {
		t.Error("Expected error for a platform without a column")
	}
}
