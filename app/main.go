package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/explorenyc/eventcomb/app/api"
	"github.com/explorenyc/eventcomb/app/cache"
	"github.com/explorenyc/eventcomb/app/cfg"
	"github.com/explorenyc/eventcomb/app/config"
	"github.com/explorenyc/eventcomb/app/database"
	"github.com/explorenyc/eventcomb/app/events"
	"github.com/explorenyc/eventcomb/app/source"
	"github.com/explorenyc/eventcomb/app/tasks"
)

func main() {
	// Optional .env file for local development; real deployments use the
	// environment directly.
	_ = godotenv.Load()

	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting EventComb server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	configCache := config.NewCache(appCfg.SourcesDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load source configurations", "dir", appCfg.SourcesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Source configurations loaded", "count", configCache.GetConfigCount())

	eventRepo := database.NewEventRepository(db)

	httpClient := source.NewHTTPClient(time.Duration(appCfg.AggregateTimeout) * time.Second)

	sources := make(map[string]events.Source)
	sourceList := make([]events.Source, 0)
	for name, sourceConfig := range configCache.GetEnabledConfigs() {
		src, err := source.New(sourceConfig, httpClient, appCfg.UserAgent)
		if err != nil {
			slog.Error("Failed to build source adapter", "source", name, "error", err)
			os.Exit(1)
		}
		sources[name] = src
		sourceList = append(sourceList, src)
		slog.Info("Source adapter registered", "source", name, "type", sourceConfig.Type, "priority", sourceConfig.Priority)
	}

	priorities := configCache.Priorities()
	deduper := events.NewDeduper(
		events.NewFuzzyMatcher(appCfg.DedupThreshold, events.DefaultStartWindow),
		func(src string) int { return priorities[src] },
	)

	aggregator := events.NewAggregator(events.AggregatorOpts{
		Sources:    sourceList,
		Fallback:   source.NewFallbackSource(),
		Deduper:    deduper,
		Timeout:    time.Duration(appCfg.AggregateTimeout) * time.Second,
		MaxResults: appCfg.MaxResults,
	})

	var resultCache *cache.Cache
	if appCfg.RedisAddr != "" {
		resultCache, err = cache.NewCache(appCfg.RedisAddr, time.Duration(appCfg.CacheTTL)*time.Second)
		if err != nil {
			slog.Error("Failed to connect to Redis", "addr", appCfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer resultCache.Close()
		slog.Info("Result cache enabled", "addr", appCfg.RedisAddr, "ttl", appCfg.CacheTTL)
	}

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval", appCfg.RefreshInterval)
	scheduler := tasks.NewScheduler(sources, eventRepo, eventRepo, httpClient, tasks.NewExtractor())
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(aggregator, sources, configCache, eventRepo, eventRepo,
		scheduler, resultCache, appCfg.MaxResults, appCfg.DefaultPageSize)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	// Scheduler and database are stopped via defer
	slog.Info("Shutdown complete")
}
