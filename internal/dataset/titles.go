package dataset

import (
	"errors"
	"fmt"
	"io"

	"github.com/rewired-gh/cinestat/internal/logger"
	"github.com/rewired-gh/cinestat/internal/models"
	"github.com/rewired-gh/cinestat/internal/normalize"
	"github.com/rewired-gh/cinestat/internal/table"
)

// Streaming catalog column names. Platform indicator columns are named after
// the platform itself.
const (
	ColID             = "id"
	ColName           = "name"
	ColAge            = "age"
	ColIMDb           = "imdb"
	ColRottenTomatoes = "rotten_tomatoes"
)

// ParseTitles parses the streaming catalog CSV. Each requested platform must
// have a 0/1 indicator column of the same name.
func ParseTitles(data []byte, platforms []string) ([]models.Title, error) {
	reader := newReader(data)
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read title headers: %w", err)
	}
	wanted := append([]string{"ID", "Title", "Year", "Age", "IMDb", "Rotten Tomatoes"}, platforms...)
	idx, err := indexHeaders(headers, wanted...)
	if err != nil {
		return nil, fmt.Errorf("invalid title table: %w", err)
	}

	var titles []models.Title
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
			logger.Debug("Skipping malformed title row %d: %v", line, err)
			continue
		}

		get := func(header string) string { return field(row, idx[header]) }
		t := models.Title{
			ID:             get("ID"),
			Name:           get("Title"),
			Year:           normalize.CoerceNumeric(get("Year")),
			Age:            get("Age"),
			IMDb:           normalize.CoerceNumeric(get("IMDb"), normalize.OutOf10...),
			RottenTomatoes: normalize.CoerceNumeric(get("Rotten Tomatoes"), normalize.OutOf100...),
			Platforms:      make(map[string]models.Number, len(platforms)),
		}
		for _, p := range platforms {
			t.Platforms[p] = normalize.CoerceNumeric(get(p))
		}

		if err := t.Validate(); err != nil {
			skipped++
			logger.Debug("Skipping invalid title row %d (%q): %v", line, t.Name, err)
			continue
		}
		titles = append(titles, t)
	}

	logger.Debug("Parsed %d titles (%d rows skipped)", len(titles), skipped)
	return titles, nil
}

// TitleSchema binds the catalog columns, plus one indicator column per
// platform. A platform indicator is present only when the title is listed
// there, so indicator columns can be used directly as row filters.
func TitleSchema(platforms []string) *table.Schema[models.Title] {
	s := table.NewSchema[models.Title]().
		Category(ColID, func(t models.Title) string { return t.ID }).
		Category(ColName, func(t models.Title) string { return t.Name }).
		Category(ColAge, func(t models.Title) string { return t.Age }).
		Number(ColYear, func(t models.Title) models.Number { return t.Year }).
		Number(ColIMDb, func(t models.Title) models.Number { return t.IMDb }).
		Number(ColRottenTomatoes, func(t models.Title) models.Number { return t.RottenTomatoes })
	for _, p := range platforms {
		name := p
		s.Number(name, func(t models.Title) models.Number {
			if t.OnPlatform(name) {
				return models.Some(1)
			}
			return models.Missing()
		})
	}
	return s
}
