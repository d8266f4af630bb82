// Package models defines the typed records and summary shapes used by cinestat.
// Source rows are normalized into Movie and Title values once, at load time;
// aggregations read them and produce GroupSummary tables.
//
// Numeric measures are Number values so that a missing measure is never
// confused with zero.
package models

import (
	"errors"
	"strings"
)

// Movie is one row of the IMDB top movies table after normalization.
type Movie struct {
	Title       string            `json:"title"`
	Year        Number            `json:"year"`        // Missing when the source held a placeholder such as "PG"
	Certificate string            `json:"certificate"` // Content rating, may be empty
	Runtime     Number            `json:"runtime"`     // Minutes
	Genre       string            `json:"genre"`       // Raw delimited genre list, e.g. "Action, Sci-Fi"
	Rating      Number            `json:"rating"`      // IMDB rating, 0–10
	MetaScore   Number            `json:"meta_score"`  // Metacritic score, 0–100
	Director    string            `json:"director"`
	Votes       Number            `json:"votes"`
	Gross       Number            `json:"gross"`       // Domestic gross revenue in USD
	GenreFlags  map[string]Number `json:"genre_flags"` // Label -> presence indicator (1 or missing)
}

// YearLabel returns the release year as a category label, or "" when missing.
func (m Movie) YearLabel() string {
	if !m.Year.Valid {
		return ""
	}
	return Some(m.Year.Value).String()
}

// Flag returns the presence indicator for a genre label.
func (m Movie) Flag(label string) Number {
	return m.GenreFlags[label]
}

// Validate checks that all movie fields are within range.
// Missing measures are allowed; present ones must be sane.
func (m *Movie) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return errors.New("movie title must not be empty")
	}
	if m.Runtime.Valid && m.Runtime.Value <= 0 {
		return errors.New("runtime must be positive")
	}
	if m.Rating.Valid && (m.Rating.Value < 0 || m.Rating.Value > 10) {
		return errors.New("rating must be between 0 and 10")
	}
	if m.MetaScore.Valid && (m.MetaScore.Value < 0 || m.MetaScore.Value > 100) {
		return errors.New("meta score must be between 0 and 100")
	}
	if m.Votes.Valid && m.Votes.Value < 0 {
		return errors.New("votes must not be negative")
	}
	if m.Gross.Valid && m.Gross.Value < 0 {
		return errors.New("gross must not be negative")
	}
	if m.Year.Valid && (m.Year.Value < 1800 || m.Year.Value > 3000) {
		return errors.New("year must be a four-digit year")
	}
	return nil
}
