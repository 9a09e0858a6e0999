package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	_ "github.com/mattn/go-sqlite3"

	"github.com/livinlefevreloca/crmsync/internal/api"
	"github.com/livinlefevreloca/crmsync/internal/config"
	"github.com/livinlefevreloca/crmsync/internal/db"
	"github.com/livinlefevreloca/crmsync/internal/metrics"
	"github.com/livinlefevreloca/crmsync/internal/pipeline"
	"github.com/livinlefevreloca/crmsync/internal/remote"
	"github.com/livinlefevreloca/crmsync/internal/scheduler"
)

func main() {
	configFile := flag.String("config", "", "Path to configuration file (TOML)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	slog.Info("starting crmsync", "config_file", *configFile)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		slog.Error("invalid timezone", "timezone", cfg.Sync.Timezone, "error", err)
		os.Exit(1)
	}

	// Open the local store and bootstrap the schema
	slog.Info("connecting to database", "driver", cfg.Database.Driver, "dsn", cfg.Database.DSN)
	database, err := db.OpenWithConfig(cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.InitSchema(); err != nil {
		slog.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}
	slog.Info("database schema ready")

	// Wire the sync stack: remote client, pipelines, scheduler
	m := metrics.New()
	client := remote.NewClient(cfg.Remote, logger)
	runner := pipeline.NewRunner(client, database, m, logger)
	sched := scheduler.NewService(loc, logger)

	for _, res := range pipeline.Resources() {
		if err := sched.Register(res.JobName, cfg.ScheduleFor(res.JobName), runner.ListJob(res)); err != nil {
			slog.Error("failed to register job", "job", res.JobName, "error", err)
			os.Exit(1)
		}
	}
	if err := sched.Register(pipeline.OpportunitiesJobName,
		cfg.ScheduleFor(pipeline.OpportunitiesJobName), runner.OpportunitiesJob()); err != nil {
		slog.Error("failed to register job", "job", pipeline.OpportunitiesJobName, "error", err)
		os.Exit(1)
	}

	sched.StartAll()
	slog.Info("sync jobs armed", "timezone", loc.String())

	// HTTP trigger and inspection surface
	var e *echo.Echo
	if cfg.HTTP.Enabled {
		e = echo.New()
		e.HideBanner = true
		e.HidePort = true

		var mm *metrics.Metrics
		if cfg.Metrics.Enabled {
			mm = m
		}
		api.NewServer(sched, database, mm, logger).Register(e)

		address := fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)
		go func() {
			slog.Info("http api listening", "address", address)
			if err := e.Start(address); err != nil && err != http.ErrServerClosed {
				slog.Error("http server stopped", "error", err)
			}
		}()
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down gracefully")

	// Disarm timers; in-flight runs proceed to natural completion
	sched.StopAll()

	if e != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(ctx); err != nil {
			slog.Error("http shutdown failed", "error", err)
		}
	}
}

// newLogger builds the process logger from configuration
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
