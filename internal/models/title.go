package models

import (
	"errors"
	"fmt"
	"strings"
)

// Title is one entry of the streaming-platform catalog after normalization.
type Title struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Year           Number            `json:"year"`
	Age            string            `json:"age"` // Target age group, e.g. "7+", "18+", "all"; empty when unknown
	IMDb           Number            `json:"imdb"`
	RottenTomatoes Number            `json:"rotten_tomatoes"` // 0–100
	Platforms      map[string]Number `json:"platforms"`       // Platform name -> 0/1 membership
}

// OnPlatform reports whether the title is listed on the named platform.
func (t Title) OnPlatform(platform string) bool {
	n := t.Platforms[platform]
	return n.Valid && n.Value > 0
}

// Validate checks that all title fields are within range.
func (t *Title) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("title name must not be empty")
	}
	if t.RottenTomatoes.Valid && (t.RottenTomatoes.Value < 0 || t.RottenTomatoes.Value > 100) {
		return errors.New("rotten tomatoes score must be between 0 and 100")
	}
	if t.IMDb.Valid && (t.IMDb.Value < 0 || t.IMDb.Value > 10) {
		return errors.New("imdb score must be between 0 and 10")
	}
	for name, n := range t.Platforms {
		if n.Valid && n.Value != 0 && n.Value != 1 {
			return fmt.Errorf("platform membership for %s must be 0 or 1", name)
		}
	}
	return nil
}
