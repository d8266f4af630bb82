package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/rewired-gh/cinestat/internal/aggregate"
	"github.com/rewired-gh/cinestat/internal/dashboard"
	"github.com/rewired-gh/cinestat/internal/dataset"
	"github.com/rewired-gh/cinestat/internal/logger"
	"github.com/rewired-gh/cinestat/internal/models"
	"github.com/rewired-gh/cinestat/internal/present"
	"github.com/rewired-gh/cinestat/internal/storage"
	"github.com/rewired-gh/cinestat/internal/table"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 200
)

// GenresResponse is the genre section of the dashboard.
type GenresResponse struct {
	Counts          models.GroupSummary  `json:"counts"`
	MetaScores      []aggregate.BoxStats `json:"meta_scores"`
	MetaScoreSource string               `json:"meta_score_source"`
}

// PlatformsResponse is the streaming platform section of the dashboard.
type PlatformsResponse struct {
	Counts    models.GroupSummary           `json:"counts"`
	AgeScores []dashboard.PlatformAgeScores `json:"age_scores"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	movies, titles := s.snapshot()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"movies": len(movies),
		"titles": len(titles),
	})
}

func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	d, err := s.builder.Build(s.snapshot())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, present.NewReport(d))
}

// movieSummaryHandler answers GET /api/v1/movies/summary?group=&measure=&agg=.
// complete=true restricts the table to movies carrying every required column.
func (s *Server) movieSummaryHandler(w http.ResponseWriter, r *http.Request) {
	movies, _ := s.snapshot()
	t := s.builder.MovieTable(movies)
	if r.URL.Query().Get("complete") == "true" {
		var err error
		if t, err = s.builder.CompleteMovies(movies); err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	serveSummary(w, r, t, s.builder.Options().Genres)
}

// titleSummaryHandler answers GET /api/v1/titles/summary. platform= keeps the
// titles listed on one platform.
func (s *Server) titleSummaryHandler(w http.ResponseWriter, r *http.Request) {
	_, titles := s.snapshot()
	t := s.builder.TitleTable(titles)
	if platform := r.URL.Query().Get("platform"); platform != "" {
		flag, err := t.NumberColumn(platform)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("unknown platform: %s", platform))
			return
		}
		t = t.Where(func(row models.Title) bool { return flag(row).Valid })
	}
	serveSummary(w, r, t, s.builder.Options().Platforms)
}

func (s *Server) genresHandler(w http.ResponseWriter, r *http.Request) {
	opts := s.builder.Options()
	source := r.URL.Query().Get("source")
	if source == "" {
		source = opts.MetaScoreSource
	}
	if source != dashboard.MetaScoreComputed && source != dashboard.MetaScoreStatic {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("unknown meta score source: %s", source))
		return
	}

	movies, _ := s.snapshot()
	complete, err := s.builder.CompleteMovies(movies)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	counts, err := aggregate.GroupSumBoolean(complete, opts.Genres...)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := GenresResponse{Counts: counts, MetaScoreSource: source}
	if source == dashboard.MetaScoreStatic {
		resp.MetaScores = aggregate.StaticBoxes(opts.Genres)
	} else {
		if resp.MetaScores, err = aggregate.GroupBoxStats(complete, opts.Genres, dataset.ColMetaScore); err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (s *Server) platformsHandler(w http.ResponseWriter, r *http.Request) {
	d, err := s.builder.Build(s.snapshot())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, PlatformsResponse{
		Counts:    d.PlatformCounts,
		AgeScores: d.PlatformAgeScores,
	})
}

func (s *Server) listRunsHandler(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		respondWithError(w, http.StatusServiceUnavailable, "run storage is disabled")
		return
	}

	limit := defaultRunLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRunLimit)
	}

	runs, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []models.Run{}
	}
	respondWithJSON(w, http.StatusOK, runs)
}

// getRunHandler returns the stored report of one run verbatim.
func (s *Server) getRunHandler(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		respondWithError(w, http.StatusServiceUnavailable, "run storage is disabled")
		return
	}

	id := mux.Vars(r)["id"]
	run, err := s.runs.GetRun(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(run.Payload); err != nil {
		logger.Debug("Failed to write run %s: %v", id, err)
	}
}

// aggStats reports count, mean and standard deviation per measure.
const aggStats = "stats"

// summaryQuery is the query string of a summary request.
type summaryQuery struct {
	Agg      string   `query:"agg" validate:"oneof=mean count stats sum"`
	Group    string   `query:"group" validate:"required_unless=Agg sum"`
	Measures []string `query:"measure" validate:"required_if=Agg mean,required_if=Agg stats"`
	Labels   []string `query:"labels"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("query")
	})
	return v
}

func parseSummaryQuery(r *http.Request) (summaryQuery, error) {
	q := r.URL.Query()
	sq := summaryQuery{
		Agg:      q.Get("agg"),
		Group:    q.Get("group"),
		Measures: splitList(q.Get("measure")),
		Labels:   splitList(q.Get("labels")),
	}
	if sq.Agg == "" {
		sq.Agg = models.AggMean
	}
	if err := validate.Struct(sq); err != nil {
		return sq, errors.New(describeValidation(err))
	}
	if sq.Agg == models.AggMean && len(sq.Measures) != 1 {
		return sq, errors.New("mean takes a single measure")
	}
	return sq, nil
}

// describeValidation turns validator errors into one readable line.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "oneof" {
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", ")))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
	}
	return strings.Join(msgs, "; ")
}

// serveSummary runs one aggregate over t as described by the query string:
//
//	agg=count&group=<col>
//	agg=mean&group=<col>&measure=<col>
//	agg=stats&group=<col>&measure=<col>[,<col>...]
//	agg=sum[&labels=<col>,<col>...]
//
// sum falls back to defaultLabels when labels is empty.
func serveSummary[T any](w http.ResponseWriter, r *http.Request, t *table.Table[T], defaultLabels []string) {
	q, err := parseSummaryQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var summary models.GroupSummary
	switch q.Agg {
	case models.AggSum:
		labels := q.Labels
		if len(labels) == 0 {
			labels = defaultLabels
		}
		summary, err = aggregate.GroupSumBoolean(t, labels...)
	case models.AggCount:
		summary, err = aggregate.GroupCount(t, q.Group)
	case models.AggMean:
		summary, err = aggregate.GroupMean(t, q.Group, q.Measures[0])
	case aggStats:
		summary, err = aggregate.GroupStats(t, q.Group, q.Measures...)
	}

	if errors.Is(err, table.ErrUnknownColumn) {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

// splitList splits a comma separated parameter, dropping blanks and repeats.
func splitList(raw string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return out
}

// Helper function to respond with JSON
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Error marshaling JSON"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to respond with error
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
