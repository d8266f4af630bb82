package config

import (
	"os"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Remove(tmpfile.Name()) })

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, `
data:
  movies_path: "./testdata/imdb_top_1000.csv"
  titles_path: "https://example.com/streaming.csv"
  timeout: 15s

genres:
  labels:
    - Drama
    - Sci-Fi
  meta_score_source: static

platforms:
  names:
    - Netflix
    - Hulu

report:
  output_path: "./out/dashboard.json"
  top_k: 5

server:
  enabled: true
  addr: ":9090"
  allowed_origins:
    - "https://dash.example.com"

telegram:
  bot_token: "test_token"
  chat_id: "12345"
  enabled: true

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Data.TitlesPath != "https://example.com/streaming.csv" {
		t.Errorf("Unexpected titles path: %s", cfg.Data.TitlesPath)
	}
	if cfg.Data.Timeout != 15*time.Second {
		t.Errorf("Unexpected timeout: %v", cfg.Data.Timeout)
	}
	if len(cfg.Genres.Labels) != 2 || cfg.Genres.Labels[1] != "Sci-Fi" {
		t.Errorf("Unexpected genre labels: %v", cfg.Genres.Labels)
	}
	if cfg.Genres.MetaScoreSource != "static" {
		t.Errorf("Unexpected meta score source: %s", cfg.Genres.MetaScoreSource)
	}
	if len(cfg.Platforms.Names) != 2 {
		t.Errorf("Expected 2 platforms, got %d", len(cfg.Platforms.Names))
	}
	if cfg.Report.TopK != 5 {
		t.Errorf("Unexpected top_k: %d", cfg.Report.TopK)
	}
	if !cfg.Server.Enabled || cfg.Server.Addr != ":9090" {
		t.Errorf("Unexpected server config: %+v", cfg.Server)
	}

	// Defaults fill what the file leaves out
	if cfg.Storage.MaxRuns != 50 || !cfg.Storage.Enabled {
		t.Errorf("Unexpected storage defaults: %+v", cfg.Storage)
	}
	if cfg.Telegram.MaxRetries != 3 || cfg.Telegram.RetryDelayBase != time.Second {
		t.Errorf("Unexpected telegram defaults: %+v", cfg.Telegram)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Unexpected shutdown timeout: %v", cfg.Server.ShutdownTimeout)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: info\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	wantGenres := []string{"Drama", "Romance", "Comedy", "Action", "Sci-Fi", "Thriller"}
	if len(cfg.Genres.Labels) != len(wantGenres) {
		t.Fatalf("Expected %d default genres, got %v", len(wantGenres), cfg.Genres.Labels)
	}
	for i, g := range wantGenres {
		if cfg.Genres.Labels[i] != g {
			t.Errorf("genre[%d] = %s, want %s", i, cfg.Genres.Labels[i], g)
		}
	}
	if len(cfg.Platforms.Names) != 4 {
		t.Errorf("Expected 4 default platforms, got %v", cfg.Platforms.Names)
	}
	if cfg.Genres.MetaScoreSource != "computed" {
		t.Errorf("Unexpected default meta score source: %s", cfg.Genres.MetaScoreSource)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Defaults should validate: %v", err)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "report:\n  top_k: 5\n")
	t.Setenv("CINESTAT_REPORT_TOP_K", "3")
	t.Setenv("CINESTAT_LOGGING_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Report.TopK != 3 {
		t.Errorf("Expected env override top_k=3, got %d", cfg.Report.TopK)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Expected env override level=warn, got %s", cfg.Logging.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func validConfig() *Config {
	return &Config{
		Data: DataConfig{
			MoviesPath: "./data/movies.csv",
			TitlesPath: "./data/titles.csv",
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			RetryDelay: time.Second,
		},
		Genres:    GenresConfig{Labels: []string{"Drama"}, MetaScoreSource: "computed"},
		Platforms: PlatformsConfig{Names: []string{"Netflix"}},
		Report:    ReportConfig{OutputPath: "./data/dashboard.json", TopK: 8},
		Server:    ServerConfig{Addr: ":8080", ShutdownTimeout: 10 * time.Second},
		Storage:   StorageConfig{Enabled: true, DBPath: ":memory:", MaxRuns: 10},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing movies path", func(c *Config) { c.Data.MoviesPath = "" }, true},
		{"missing titles path", func(c *Config) { c.Data.TitlesPath = "" }, true},
		{"short timeout", func(c *Config) { c.Data.Timeout = time.Millisecond }, true},
		{"no retries", func(c *Config) { c.Data.MaxRetries = 0 }, true},
		{"no genres", func(c *Config) { c.Genres.Labels = nil }, true},
		{"bad meta score source", func(c *Config) { c.Genres.MetaScoreSource = "plotly" }, true},
		{"no platforms", func(c *Config) { c.Platforms.Names = nil }, true},
		{"zero top_k", func(c *Config) { c.Report.TopK = 0 }, true},
		{"negative min group size", func(c *Config) { c.Report.MinGroupSize = -1 }, true},
		{"hourly schedule", func(c *Config) { c.Report.Schedule = "0 * * * *" }, false},
		{"descriptor schedule", func(c *Config) { c.Report.Schedule = "@every 30m" }, false},
		{"bad schedule", func(c *Config) { c.Report.Schedule = "every hour" }, true},
		{"server without addr", func(c *Config) { c.Server.Enabled = true; c.Server.Addr = "" }, true},
		{"server disabled without addr", func(c *Config) { c.Server.Addr = "" }, false},
		{"storage without path", func(c *Config) { c.Storage.DBPath = "" }, true},
		{"storage disabled without path", func(c *Config) { c.Storage.Enabled = false; c.Storage.DBPath = "" }, false},
		{"storage zero max runs", func(c *Config) { c.Storage.MaxRuns = 0 }, true},
		{"missing telegram token when enabled", func(c *Config) { c.Telegram.Enabled = true; c.Telegram.ChatID = "1" }, true},
		{"missing telegram chat when enabled", func(c *Config) { c.Telegram.Enabled = true; c.Telegram.BotToken = "t" }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
