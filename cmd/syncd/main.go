package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/solara-medspa/backend-go/internal/boulevard"
	"github.com/solara-medspa/backend-go/internal/cache"
	"github.com/solara-medspa/backend-go/internal/config"
	"github.com/solara-medspa/backend-go/internal/domain"
	"github.com/solara-medspa/backend-go/internal/repository"
	"github.com/solara-medspa/backend-go/internal/repository/postgres"
	"github.com/solara-medspa/backend-go/internal/salesync"
	"github.com/solara-medspa/backend-go/internal/storage"
	"github.com/solara-medspa/backend-go/pkg/logger"
)

// syncd is the headless deployment: just the sync trigger and a health
// check, for schedulers that only need to kick runs.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	lg := logger.With("syncd")

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		lg.Fatal().Err(err).Msg("Failed to initialize database")
	}

	syncCache, err := cache.NewSyncCache(cfg.Cache)
	if err != nil {
		lg.Warn().Err(err).Msg("Cache unavailable, continuing without it")
		syncCache = cache.NewNoopSyncCache()
	}

	var archive storage.ObjectStorage
	if cfg.Archive.Enabled {
		archive, err = storage.NewMinioClient(cfg.Archive)
		if err != nil {
			lg.Warn().Err(err).Msg("Archive storage unavailable, continuing without it")
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

	orchestrator := salesync.NewOrchestrator(
		resolver,
		blvd,
		repository.NewSalesRepository(db, cfg.Sync.ChunkSize),
		repository.NewCatalogRepository(db.DB),
		repository.NewClientsRepository(db.DB),
		repository.NewStaffRepository(db.DB),
		syncCache,
		archive,
		cfg.Sync,
	)

	r := mux.NewRouter()

	r.HandleFunc("/sync/sales", func(w http.ResponseWriter, req *http.Request) {
		var opts domain.SyncOptions
		if req.Body != nil && req.ContentLength > 0 {
			if err := json.NewDecoder(req.Body).Decode(&opts); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
		}

		summary, err := orchestrator.Sync(req.Context(), opts)
		if err != nil {
			lg.Error().Err(err).Msg("Sales sync failed")
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error":   err.Error(),
				"summary": summary,
			})
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}).Methods("POST")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	lg.Info().Str("addr", addr).Msg("Sync server starting")
	if err := http.ListenAndServe(addr, r); err != nil {
		lg.Fatal().Err(err).Msg("Sync server stopped")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
