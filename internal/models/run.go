package models

import (
	"encoding/json"
	"errors"
	"time"
)

// Run is one archived dashboard build.
type Run struct {
	ID          string          `json:"id"`
	GeneratedAt time.Time       `json:"generated_at"`
	MovieCount  int             `json:"movie_count"`
	TitleCount  int             `json:"title_count"`
	Payload     json.RawMessage `json:"payload"` // Serialized dashboard
}

// Validate checks that all run fields are valid
func (r *Run) Validate() error {
	if r.ID == "" {
		return errors.New("run ID must not be empty")
	}
	if r.GeneratedAt.IsZero() {
		return errors.New("generated at must be set")
	}
	if r.GeneratedAt.After(time.Now().Add(time.Minute)) {
		return errors.New("generated at must not be in the future")
	}
	if r.MovieCount < 0 || r.TitleCount < 0 {
		return errors.New("record counts must not be negative")
	}
	if len(r.Payload) == 0 {
		return errors.New("payload must not be empty")
	}
	if !json.Valid(r.Payload) {
		return errors.New("payload must be valid JSON")
	}
	return nil
}

// Insight is one ranked takeaway derived from the summaries.
type Insight struct {
	Kind     string `json:"kind"` // e.g. "top_director_count", "runtime_trend"
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
	Value    Number `json:"value"`
	Detail   string `json:"detail,omitempty"`
}
