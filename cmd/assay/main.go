package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MikeSquared-Agency/Assay/internal/api"
	"github.com/MikeSquared-Agency/Assay/internal/config"
	"github.com/MikeSquared-Agency/Assay/internal/criteria"
	"github.com/MikeSquared-Agency/Assay/internal/directory"
	"github.com/MikeSquared-Agency/Assay/internal/evaluation"
	"github.com/MikeSquared-Agency/Assay/internal/hermes"
	"github.com/MikeSquared-Agency/Assay/internal/janitor"
	"github.com/MikeSquared-Agency/Assay/internal/metrics"
	"github.com/MikeSquared-Agency/Assay/internal/store"
)

func newLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.URL, cfg.Database.MigrateOnStart)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("store ready", "driver", cfg.Database.Driver)

	// Hermes (optional)
	var hermesClient hermes.Client
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, cfg.HermesStream(), logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")
		}
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	manager := criteria.NewManager(db, logger,
		criteria.WithHermes(hermesClient),
		criteria.WithMetrics(m),
		criteria.WithStrictWeights(cfg.Scoring.StrictWeights),
	)

	evalOpts := []evaluation.Option{evaluation.WithHermes(hermesClient), evaluation.WithMetrics(m)}
	if cfg.Directory.URL != "" {
		evalOpts = append(evalOpts, evaluation.WithDirectory(directory.NewHTTPClient(cfg.Directory.URL, cfg.Directory.Token), cfg.Modules))
		logger.Info("subject directory enabled", "url", cfg.Directory.URL, "modules", len(cfg.Modules))
	} else {
		evalOpts = append(evalOpts, evaluation.WithDirectory(nil, cfg.Modules))
	}
	svc := evaluation.NewService(db, logger, evalOpts...)

	// Janitor
	j := janitor.New(db, hermesClient, m, cfg.JanitorInterval(), logger)
	if cfg.Janitor.Enabled {
		j.Start(ctx)
		defer j.Stop()
		j.SetupSubscriptions()
		logger.Info("janitor started", "interval", cfg.JanitorInterval())
	}

	// API server
	router := api.NewRouter(db, manager, svc, j, cfg, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: api.NewMetricsRouter(),
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}
