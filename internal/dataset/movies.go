// Package dataset parses the two fixed source tables into typed records and
// declares the column schemas the aggregations address them by.
//
// Parsing is the single normalization pass: unit stripping, separator removal
// and placeholder handling all happen here, once per file.
package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rewired-gh/cinestat/internal/logger"
	"github.com/rewired-gh/cinestat/internal/models"
	"github.com/rewired-gh/cinestat/internal/normalize"
	"github.com/rewired-gh/cinestat/internal/table"
)

// Movie table column names.
const (
	ColTitle       = "title"
	ColYear        = "year"
	ColCertificate = "certificate"
	ColRuntime     = "runtime"
	ColGenre       = "genre"
	ColRating      = "rating"
	ColMetaScore   = "meta_score"
	ColDirector    = "director"
	ColVotes       = "votes"
	ColGross       = "gross"

	// ColReleaseYear is the numeric view of the year, used for trends.
	ColReleaseYear = "release_year"
)

// MovieRequired lists the columns a movie must carry to be considered complete.
// Year is not required: a placeholder year only removes the movie from
// year-based groupings.
var MovieRequired = []string{
	ColTitle, ColCertificate, ColRuntime, ColGenre, ColRating,
	ColMetaScore, ColDirector, ColVotes, ColGross,
}

// movieHeaders maps source headers to the fields they populate.
var movieHeaders = struct {
	title, year, certificate, runtime, genre, rating, metaScore, director, votes, gross string
}{
	title:       "Series_Title",
	year:        "Released_Year",
	certificate: "Certificate",
	runtime:     "Runtime",
	genre:       "Genre",
	rating:      "IMDB_Rating",
	metaScore:   "Meta_score",
	director:    "Director",
	votes:       "No_of_Votes",
	gross:       "Gross",
}

// ParseMovies parses the IMDB top movies CSV. Genre flags are computed for
// each of the given labels. Rows that cannot be read or fail validation are
// skipped; a missing header is an error.
func ParseMovies(data []byte, genres []string) ([]models.Movie, error) {
	reader := newReader(data)
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read movie headers: %w", err)
	}
	idx, err := indexHeaders(headers,
		movieHeaders.title, movieHeaders.year, movieHeaders.certificate, movieHeaders.runtime,
		movieHeaders.genre, movieHeaders.rating, movieHeaders.metaScore, movieHeaders.director,
		movieHeaders.votes, movieHeaders.gross,
	)
	if err != nil {
		return nil, fmt.Errorf("invalid movie table: %w", err)
	}

	var movies []models.Movie
	line := 1
	skipped := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			skipped++
			logger.Debug("Skipping malformed movie row %d: %v", line, err)
			continue
		}

		get := func(header string) string { return field(row, idx[header]) }
		genre := get(movieHeaders.genre)
		m := models.Movie{
			Title:       get(movieHeaders.title),
			Year:        normalize.CoerceNumeric(get(movieHeaders.year)),
			Certificate: get(movieHeaders.certificate),
			Runtime:     normalize.CoerceNumeric(get(movieHeaders.runtime), normalize.Minutes...),
			Genre:       genre,
			Rating:      normalize.CoerceNumeric(get(movieHeaders.rating)),
			MetaScore:   normalize.CoerceNumeric(get(movieHeaders.metaScore)),
			Director:    get(movieHeaders.director),
			Votes:       normalize.CoerceNumeric(get(movieHeaders.votes), normalize.Thousands...),
			Gross:       normalize.CoerceNumeric(get(movieHeaders.gross), normalize.Thousands...),
			GenreFlags:  make(map[string]models.Number, len(genres)),
		}
		for _, g := range genres {
			m.GenreFlags[g] = normalize.FlagMembership(genre, g)
		}

		if err := m.Validate(); err != nil {
			skipped++
			logger.Debug("Skipping invalid movie row %d (%q): %v", line, m.Title, err)
			continue
		}
		movies = append(movies, m)
	}

	logger.Debug("Parsed %d movies (%d rows skipped)", len(movies), skipped)
	return movies, nil
}

// MovieSchema binds the movie columns, plus one indicator column per genre label.
func MovieSchema(genres []string) *table.Schema[models.Movie] {
	s := table.NewSchema[models.Movie]().
		Category(ColTitle, func(m models.Movie) string { return m.Title }).
		Category(ColYear, func(m models.Movie) string { return m.YearLabel() }).
		Category(ColCertificate, func(m models.Movie) string { return m.Certificate }).
		Category(ColGenre, func(m models.Movie) string { return m.Genre }).
		Category(ColDirector, func(m models.Movie) string { return m.Director }).
		Number(ColRuntime, func(m models.Movie) models.Number { return m.Runtime }).
		Number(ColRating, func(m models.Movie) models.Number { return m.Rating }).
		Number(ColMetaScore, func(m models.Movie) models.Number { return m.MetaScore }).
		Number(ColVotes, func(m models.Movie) models.Number { return m.Votes }).
		Number(ColGross, func(m models.Movie) models.Number { return m.Gross }).
		Number(ColReleaseYear, func(m models.Movie) models.Number { return m.Year })
	for _, g := range genres {
		label := g
		s.Number(label, func(m models.Movie) models.Number { return m.Flag(label) })
	}
	return s
}

func newReader(data []byte) *csv.Reader {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	return r
}

// indexHeaders locates each wanted header, ignoring case and surrounding space.
func indexHeaders(headers []string, wanted ...string) (map[string]int, error) {
	pos := make(map[string]int, len(headers))
	for i, h := range headers {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := pos[key]; !dup {
			pos[key] = i
		}
	}
	idx := make(map[string]int, len(wanted))
	var missing []string
	for _, w := range wanted {
		i, ok := pos[strings.ToLower(w)]
		if !ok {
			missing = append(missing, w)
			continue
		}
		idx[w] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
