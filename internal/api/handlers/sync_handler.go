// backend-go/internal/api/handlers/sync_handler.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/solara-medspa/backend-go/internal/boulevard"
	"github.com/solara-medspa/backend-go/internal/cache"
	"github.com/solara-medspa/backend-go/internal/domain"
	"github.com/solara-medspa/backend-go/internal/storage"
)

// SyncRunner is the orchestrator surface the handler needs.
type SyncRunner interface {
	Sync(ctx context.Context, opts domain.SyncOptions) (*domain.SyncSummary, error)
}

type SyncHandler struct {
	runner  SyncRunner
	cache   cache.SyncCache
	archive storage.ObjectStorage
}

func NewSyncHandler(runner SyncRunner, syncCache cache.SyncCache, archive storage.ObjectStorage) *SyncHandler {
	return &SyncHandler{runner: runner, cache: syncCache, archive: archive}
}

// RunSync triggers a sales sync run. The request body is optional; an empty
// body runs with defaults (latest export, real writes, incremental).
func (h *SyncHandler) RunSync(c *gin.Context) {
	var opts domain.SyncOptions
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&opts); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	if opts.Mode != "" && opts.Mode != domain.SyncModeLatest && opts.Mode != domain.SyncModeCreate {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be latest or create"})
		return
	}

	summary, err := h.runner.Sync(c.Request.Context(), opts)
	if err != nil {
		log.Error().Err(err).Msg("sales sync failed")
		status := http.StatusInternalServerError
		if errors.Is(err, boulevard.ErrNoReportConfigured) {
			status = http.StatusBadRequest
		}
		if errors.Is(err, boulevard.ErrNoExportFound) {
			status = http.StatusBadGateway
		}
		body := gin.H{"error": err.Error()}
		if summary != nil {
			body["summary"] = summary
		}
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// LastSync returns the summary of the most recent completed run, if cached.
func (h *SyncHandler) LastSync(c *gin.Context) {
	summary, found, err := h.cache.GetLastSummary(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to read last sync summary")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read last sync summary"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "no sync has completed yet"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ListArchive lists the raw export payloads kept in the archive bucket,
// optionally narrowed by a key prefix such as exports/2026/02.
func (h *SyncHandler) ListArchive(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "export archive is not configured"})
		return
	}

	prefix := c.DefaultQuery("prefix", "exports/")
	objects, err := h.archive.ListObjects(c.Request.Context(), prefix)
	if err != nil {
		log.Error().Err(err).Str("prefix", prefix).Msg("failed to list archived exports")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list archived exports"})
		return
	}

	items := make([]gin.H, 0, len(objects))
	for _, obj := range objects {
		items = append(items, gin.H{"key": obj.Key, "size": obj.Size})
	}
	c.JSON(http.StatusOK, gin.H{"prefix": prefix, "count": len(items), "objects": items})
}
