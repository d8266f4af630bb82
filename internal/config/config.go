package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Data      DataConfig      `mapstructure:"data"`
	Genres    GenresConfig    `mapstructure:"genres"`
	Platforms PlatformsConfig `mapstructure:"platforms"`
	Report    ReportConfig    `mapstructure:"report"`
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// DataConfig holds the dataset locations. Each may be a path or an HTTP(S) URL.
type DataConfig struct {
	MoviesPath string        `mapstructure:"movies_path"`
	TitlesPath string        `mapstructure:"titles_path"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// GenresConfig holds the genre labels to flag and the meta score box source
type GenresConfig struct {
	Labels          []string `mapstructure:"labels"`
	MetaScoreSource string   `mapstructure:"meta_score_source"`
}

// PlatformsConfig holds the streaming platform indicator columns
type PlatformsConfig struct {
	Names []string `mapstructure:"names"`
}

// ReportConfig holds report output configuration
type ReportConfig struct {
	OutputPath   string `mapstructure:"output_path"`
	TopK         int    `mapstructure:"top_k"`
	MinGroupSize int    `mapstructure:"min_group_size"`
	Schedule     string `mapstructure:"schedule"` // Cron spec for rebuilding while serving; empty disables
}

// ServerConfig holds HTTP API configuration
type ServerConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Addr            string        `mapstructure:"addr"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StorageConfig holds the run archive configuration
type StorageConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
	MaxRuns int    `mapstructure:"max_runs"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set config file
	v.SetConfigFile(path)

	// Set defaults
	setDefaults(v)

	// Enable environment variable override, e.g. CINESTAT_TELEGRAM_BOT_TOKEN
	v.SetEnvPrefix("CINESTAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Data defaults
	v.SetDefault("data.movies_path", "./data/imdb_top_1000.csv")
	v.SetDefault("data.titles_path", "./data/MoviesOnStreamingPlatforms.csv")
	v.SetDefault("data.timeout", "30s")
	v.SetDefault("data.max_retries", 3)
	v.SetDefault("data.retry_delay", "1s")

	// Genre and platform defaults
	v.SetDefault("genres.labels", []string{"Drama", "Romance", "Comedy", "Action", "Sci-Fi", "Thriller"})
	v.SetDefault("genres.meta_score_source", "computed")
	v.SetDefault("platforms.names", []string{"Netflix", "Hulu", "Prime Video", "Disney+"})

	// Report defaults
	v.SetDefault("report.output_path", "./data/dashboard.json")
	v.SetDefault("report.top_k", 8)
	v.SetDefault("report.min_group_size", 2)
	v.SetDefault("report.schedule", "")

	// Server defaults
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Storage defaults
	v.SetDefault("storage.enabled", true)
	v.SetDefault("storage.db_path", "./data/cinestat.db")
	v.SetDefault("storage.max_runs", 50)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Data config
	if c.Data.MoviesPath == "" {
		return fmt.Errorf("data.movies_path is required")
	}
	if c.Data.TitlesPath == "" {
		return fmt.Errorf("data.titles_path is required")
	}
	if c.Data.Timeout < time.Second {
		return fmt.Errorf("data.timeout must be at least 1 second")
	}
	if c.Data.MaxRetries < 1 {
		return fmt.Errorf("data.max_retries must be at least 1")
	}
	if c.Data.RetryDelay < 0 {
		return fmt.Errorf("data.retry_delay must not be negative")
	}

	// Validate Genres and Platforms config
	if len(c.Genres.Labels) == 0 {
		return fmt.Errorf("genres.labels must contain at least one label")
	}
	if c.Genres.MetaScoreSource != "computed" && c.Genres.MetaScoreSource != "static" {
		return fmt.Errorf("genres.meta_score_source must be one of: computed, static")
	}
	if len(c.Platforms.Names) == 0 {
		return fmt.Errorf("platforms.names must contain at least one platform")
	}

	// Validate Report config
	if c.Report.TopK < 1 {
		return fmt.Errorf("report.top_k must be at least 1")
	}
	if c.Report.MinGroupSize < 0 {
		return fmt.Errorf("report.min_group_size must not be negative")
	}
	if c.Report.Schedule != "" {
		if _, err := cron.ParseStandard(c.Report.Schedule); err != nil {
			return fmt.Errorf("report.schedule is not a valid cron expression: %w", err)
		}
	}

	// Validate Server config
	if c.Server.Enabled {
		if c.Server.Addr == "" {
			return fmt.Errorf("server.addr is required when server is enabled")
		}
		if c.Server.ShutdownTimeout < time.Second {
			return fmt.Errorf("server.shutdown_timeout must be at least 1 second")
		}
	}

	// Validate Storage config
	if c.Storage.Enabled {
		if c.Storage.DBPath == "" {
			return fmt.Errorf("storage.db_path is required when storage is enabled")
		}
		if c.Storage.MaxRuns < 1 {
			return fmt.Errorf("storage.max_runs must be at least 1")
		}
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
