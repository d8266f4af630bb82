package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rewired-gh/cinestat/internal/api"
	"github.com/rewired-gh/cinestat/internal/config"
	"github.com/rewired-gh/cinestat/internal/dashboard"
	"github.com/rewired-gh/cinestat/internal/logger"
	"github.com/rewired-gh/cinestat/internal/pipeline"
	"github.com/rewired-gh/cinestat/internal/source"
	"github.com/rewired-gh/cinestat/internal/storage"
	"github.com/rewired-gh/cinestat/internal/telegram"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	serve      = flag.Bool("serve", false, "Serve the HTTP API after generating the report")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Setup logging with level support
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	builder, err := dashboard.NewBuilder(dashboard.Options{
		Genres:          cfg.Genres.Labels,
		Platforms:       cfg.Platforms.Names,
		MetaScoreSource: cfg.Genres.MetaScoreSource,
		TopK:            cfg.Report.TopK,
		MinGroupSize:    cfg.Report.MinGroupSize,
	})
	if err != nil {
		logger.Fatal("Failed to initialize dashboard builder: %v", err)
	}

	// Initialize storage
	var store *storage.Storage
	var archive pipeline.Archive
	if cfg.Storage.Enabled {
		store, err = storage.New(cfg.Storage.MaxRuns, cfg.Storage.DBPath)
		if err != nil {
			logger.Fatal("Failed to initialize storage: %v", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close storage: %v", err)
			}
		}()
		archive = store
		logger.Info("Run archive at %s (max %d runs)", store.Path(), cfg.Storage.MaxRuns)
	} else {
		logger.Debug("Run archive disabled")
	}

	// Initialize Telegram client
	var notifier pipeline.Notifier
	if cfg.Telegram.Enabled {
		telegramClient, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram client initialized successfully")
		notifier = telegramClient
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	src := source.NewClient(cfg.Data.Timeout, cfg.Data.MaxRetries, cfg.Data.RetryDelay)
	p := pipeline.New(pipeline.Config{
		MoviesPath: cfg.Data.MoviesPath,
		TitlesPath: cfg.Data.TitlesPath,
		OutputPath: cfg.Report.OutputPath,
		Text:       os.Stdout,
	}, src, builder, archive, notifier)

	res, err := p.Run(ctx)
	if err != nil {
		logger.Fatal("Report run failed: %v", err)
	}

	if !*serve && !cfg.Server.Enabled {
		return
	}

	var runs api.RunStore
	if store != nil {
		runs = store
	}
	server := api.NewServer(api.Config{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
	}, builder, res.Movies, res.Titles, runs)

	// Scheduled runs rebuild silently and refresh what the server holds
	if cfg.Report.Schedule != "" {
		scheduled := pipeline.New(pipeline.Config{
			MoviesPath: cfg.Data.MoviesPath,
			TitlesPath: cfg.Data.TitlesPath,
			OutputPath: cfg.Report.OutputPath,
		}, src, builder, archive, notifier)
		scheduler := pipeline.NewScheduler(scheduled, func(r *pipeline.Result) {
			server.Update(r.Movies, r.Titles)
		})
		if err := scheduler.Start(cfg.Report.Schedule); err != nil {
			logger.Fatal("Failed to start scheduler: %v", err)
		}
		defer scheduler.Stop()
	}

	if err := server.Run(ctx, cfg.Server.ShutdownTimeout); err != nil {
		logger.Fatal("API server failed: %v", err)
	}
	logger.Info("Service stopped")
}
