// Package pipeline runs one report generation end to end: fetch both
// datasets, build the dashboard, then hand it to the configured outputs.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/cinestat/internal/dashboard"
	"github.com/rewired-gh/cinestat/internal/dataset"
	"github.com/rewired-gh/cinestat/internal/logger"
	"github.com/rewired-gh/cinestat/internal/models"
	"github.com/rewired-gh/cinestat/internal/present"
)

// Fetcher loads raw dataset bytes from a path or URL.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// Archive stores generated runs.
type Archive interface {
	SaveRun(ctx context.Context, run *models.Run) error
}

// Notifier delivers the takeaways digest.
type Notifier interface {
	SendDigest(ctx context.Context, headline string, insights []models.Insight) error
}

// Config holds the dataset locations and outputs of a run.
type Config struct {
	MoviesPath string
	TitlesPath string
	OutputPath string    // JSON report path; empty skips the file
	Text       io.Writer // Terminal report; nil skips it
}

// Result is the outcome of a successful run.
type Result struct {
	RunID     string
	Movies    []models.Movie
	Titles    []models.Title
	Dashboard *dashboard.Dashboard
	Report    present.Report
}

// Pipeline generates reports. Archive and Notifier are optional.
type Pipeline struct {
	config   Config
	fetcher  Fetcher
	builder  *dashboard.Builder
	archive  Archive
	notifier Notifier
}

// New creates a pipeline. archive and notifier may be nil.
func New(config Config, fetcher Fetcher, builder *dashboard.Builder, archive Archive, notifier Notifier) *Pipeline {
	return &Pipeline{
		config:   config,
		fetcher:  fetcher,
		builder:  builder,
		archive:  archive,
		notifier: notifier,
	}
}

// Run loads the datasets and builds the dashboard. Loading, building and
// writing the report file are fatal to the run. Archive and digest failures
// are logged and the run still succeeds.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	startTime := time.Now()
	logger.Info("Starting report run")

	movies, titles, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	d, err := p.builder.Build(movies, titles)
	if err != nil {
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}

	res := &Result{
		RunID:     uuid.New().String(),
		Movies:    movies,
		Titles:    titles,
		Dashboard: d,
		Report:    present.NewReport(d),
	}

	if p.config.Text != nil {
		if err := present.WriteText(p.config.Text, d); err != nil {
			logger.Warn("Failed to write text report: %v", err)
		}
	}

	if p.config.OutputPath != "" {
		if err := res.Report.WriteFile(p.config.OutputPath); err != nil {
			return nil, err
		}
		logger.Debug("Report written to %s", p.config.OutputPath)
	}

	if p.archive != nil {
		if err := p.saveRun(ctx, res); err != nil {
			logger.Warn("Failed to archive run %s: %v", res.RunID, err)
		}
	}

	if p.notifier != nil {
		if err := p.notifier.SendDigest(ctx, Headline(d), d.Takeaways); err != nil {
			logger.Warn("Failed to send digest: %v", err)
		}
	}

	logger.Info("Report run %s completed in %v (%d movies, %d titles, %d takeaways)",
		res.RunID, time.Since(startTime), len(movies), len(titles), len(d.Takeaways))
	return res, nil
}

func (p *Pipeline) load(ctx context.Context) ([]models.Movie, []models.Title, error) {
	opts := p.builder.Options()

	logger.Debug("Fetching movies from %s", p.config.MoviesPath)
	raw, err := p.fetcher.Fetch(ctx, p.config.MoviesPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch movies: %w", err)
	}
	movies, err := dataset.ParseMovies(raw, opts.Genres)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse movies: %w", err)
	}

	logger.Debug("Fetching titles from %s", p.config.TitlesPath)
	raw, err = p.fetcher.Fetch(ctx, p.config.TitlesPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch titles: %w", err)
	}
	titles, err := dataset.ParseTitles(raw, opts.Platforms)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse titles: %w", err)
	}

	logger.Info("Loaded %d movies and %d streaming titles", len(movies), len(titles))
	return movies, titles, nil
}

func (p *Pipeline) saveRun(ctx context.Context, res *Result) error {
	payload, err := json.Marshal(res.Report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	return p.archive.SaveRun(ctx, &models.Run{
		ID:          res.RunID,
		GeneratedAt: res.Dashboard.GeneratedAt,
		MovieCount:  len(res.Movies),
		TitleCount:  len(res.Titles),
		Payload:     payload,
	})
}

// Headline is the one-line summary that opens the digest.
func Headline(d *dashboard.Dashboard) string {
	h := d.Headline
	return fmt.Sprintf("%d movies by %d directors, %d streaming titles across %d platforms",
		h.Movies, h.Directors, h.Titles, h.Platforms)
}
