package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/pgnvault/internal/api"
	"github.com/vytor/pgnvault/internal/config"
	"github.com/vytor/pgnvault/internal/db"
	"github.com/vytor/pgnvault/internal/jobs"
	"github.com/vytor/pgnvault/internal/logger"
	"github.com/vytor/pgnvault/internal/pgn"
	"github.com/vytor/pgnvault/internal/repository/sqlite"
	"github.com/vytor/pgnvault/internal/services"
	"github.com/vytor/pgnvault/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	log.Info("pgnvault server starting")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("import_worker_count=%d", cfg.ImportWorkerCount)
	log.Debug("import_queue_size=%d", cfg.ImportQueueSize)
	log.Debug("parse_concurrency=%d", cfg.ParseConcurrency)
	log.Debug("max_upload_bytes=%d", cfg.MaxUploadBytes)

	pgn.SetMaxWorkers(cfg.ParseConcurrency)
	patterns, err := pgn.Default()
	if err != nil {
		log.Error("failed to compile PGN patterns: %v", err)
		os.Exit(1)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	gameRepo := sqlite.NewGameRepository(database.DB)
	parseService := services.NewParseService(patterns)
	importService := services.NewImportService(parseService, gameRepo)
	importPool := worker.NewPool(cfg.ImportWorkerCount, cfg.ImportQueueSize)

	srv := &api.Server{
		DB:             database,
		ParseService:   parseService,
		ImportService:  importService,
		GameService:    services.NewGameService(gameRepo),
		JobQueue:       jobs.NewWorkerQueue(importPool, importService),
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	importPool.Start(ctx)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	// Queued imports finish before the catalog closes.
	log.Debug("stopping import pool")
	importPool.Stop()

	log.Info("pgnvault server stopped")
}
