// backend-go/cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/solara-medspa/backend-go/internal/api"
	"github.com/solara-medspa/backend-go/internal/boulevard"
	"github.com/solara-medspa/backend-go/internal/cache"
	"github.com/solara-medspa/backend-go/internal/config"
	"github.com/solara-medspa/backend-go/internal/repository"
	"github.com/solara-medspa/backend-go/internal/repository/postgres"
	"github.com/solara-medspa/backend-go/internal/salesync"
	"github.com/solara-medspa/backend-go/internal/storage"
	"github.com/solara-medspa/backend-go/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetMode(cfg.Server.Mode)
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	syncCache, err := cache.NewSyncCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("cache unavailable, continuing without it")
		syncCache = cache.NewNoopSyncCache()
	}

	var archive storage.ObjectStorage
	if cfg.Archive.Enabled {
		archive, err = storage.NewMinioClient(cfg.Archive)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("archive storage unavailable, continuing without it")
			archive = nil
		}
	}

	blvd := boulevard.NewClient(cfg.Boulevard)
	resolver := boulevard.NewResolver(
		blvd,
		cfg.Boulevard.SalesReportID,
		cfg.Sync.PollAttempts,
		time.Duration(cfg.Sync.PollIntervalSec)*time.Second,
	)

	salesRepo := repository.NewSalesRepository(db, cfg.Sync.ChunkSize)
	orchestrator := salesync.NewOrchestrator(
		resolver,
		blvd,
		salesRepo,
		repository.NewCatalogRepository(db.DB),
		repository.NewClientsRepository(db.DB),
		repository.NewStaffRepository(db.DB),
		syncCache,
		archive,
		cfg.Sync,
	)

	router := api.NewRouter(&api.Services{
		Sync:    orchestrator,
		Sales:   salesRepo,
		Cache:   syncCache,
		Archive: archive,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
