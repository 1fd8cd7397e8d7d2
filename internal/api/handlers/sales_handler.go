package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/solara-medspa/backend-go/internal/cache"
	"github.com/solara-medspa/backend-go/internal/domain"
)

// SalesReader is the read side of the synced sales data.
type SalesReader interface {
	SalesSummary(ctx context.Context, from, to time.Time) (*domain.SalesSummary, error)
}

type SalesHandler struct {
	sales SalesReader
	cache cache.SyncCache
}

func NewSalesHandler(sales SalesReader, syncCache cache.SyncCache) *SalesHandler {
	return &SalesHandler{sales: sales, cache: syncCache}
}

// GetSummary returns aggregated sales for a date range. Defaults to the
// trailing 30 days when from/to are omitted.
func (h *SalesHandler) GetSummary(c *gin.Context) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
			return
		}
		// Inclusive end date.
		to = parsed.AddDate(0, 0, 1)
	}
	if !from.Before(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must precede to"})
		return
	}

	fromKey := from.Format("2006-01-02")
	toKey := to.Format("2006-01-02")
	if cached, found, err := h.cache.GetSalesSummary(c.Request.Context(), fromKey, toKey); err == nil && found {
		c.JSON(http.StatusOK, cached)
		return
	}

	summary, err := h.sales.SalesSummary(c.Request.Context(), from, to)
	if err != nil {
		log.Error().Err(err).Msg("failed to build sales summary")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build sales summary"})
		return
	}

	if err := h.cache.SetSalesSummary(c.Request.Context(), fromKey, toKey, summary); err != nil {
		log.Warn().Err(err).Msg("failed to cache sales summary")
	}

	c.JSON(http.StatusOK, summary)
}
