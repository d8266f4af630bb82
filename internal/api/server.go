// Package api serves the dashboard and ad-hoc group summaries over HTTP.
//
// The server holds the normalized records only. Every response is computed
// from them at request time; nothing is cached between requests. Update swaps
// the records wholesale after a scheduled rebuild.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/rewired-gh/cinestat/internal/dashboard"
	"github.com/rewired-gh/cinestat/internal/logger"
	"github.com/rewired-gh/cinestat/internal/models"
)

// RunStore is the read side of the run archive.
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]models.Run, error)
	GetRun(ctx context.Context, id string) (*models.Run, error)
}

// Config holds HTTP server settings
type Config struct {
	Addr           string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// Server exposes the dashboard API.
type Server struct {
	config  Config
	builder *dashboard.Builder
	runs    RunStore
	router  *mux.Router

	mu     sync.RWMutex
	movies []models.Movie
	titles []models.Title
}

// NewServer creates a server over already parsed records. runs may be nil,
// in which case the run endpoints answer 503.
func NewServer(config Config, builder *dashboard.Builder, movies []models.Movie, titles []models.Title, runs RunStore) *Server {
	s := &Server{
		config:  config,
		builder: builder,
		movies:  movies,
		titles:  titles,
		runs:    runs,
		router:  mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

// Update replaces the records served. The slices must not be modified
// afterwards.
func (s *Server) Update(movies []models.Movie, titles []models.Title) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movies = movies
	s.titles = titles
}

func (s *Server) snapshot() ([]models.Movie, []models.Title) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.movies, s.titles
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.Use(requestLogger)

	// Health check
	s.router.HandleFunc("/healthz", s.healthHandler).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/dashboard", s.dashboardHandler).Methods(http.MethodGet)
	v1.HandleFunc("/movies/summary", s.movieSummaryHandler).Methods(http.MethodGet)
	v1.HandleFunc("/titles/summary", s.titleSummaryHandler).Methods(http.MethodGet)
	v1.HandleFunc("/genres", s.genresHandler).Methods(http.MethodGet)
	v1.HandleFunc("/platforms", s.platformsHandler).Methods(http.MethodGet)
	v1.HandleFunc("/runs", s.listRunsHandler).Methods(http.MethodGet)
	v1.HandleFunc("/runs/{id}", s.getRunHandler).Methods(http.MethodGet)
}

// Handler returns the router wrapped with CORS.
func (s *Server) Handler() http.Handler {
	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(s.router)
}

// Run serves until ctx is canceled, then shuts down within shutdownTimeout.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	server := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting API server on %s", s.config.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down API server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error during server shutdown: %w", err)
	}
	logger.Info("API server stopped")
	return nil
}
