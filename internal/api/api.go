// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/solara-medspa/backend-go/internal/api/handlers"
	"github.com/solara-medspa/backend-go/internal/api/middleware"
	"github.com/solara-medspa/backend-go/internal/cache"
	"github.com/solara-medspa/backend-go/internal/storage"
)

type Services struct {
	Sync    handlers.SyncRunner
	Sales   handlers.SalesReader
	Cache   cache.SyncCache
	Archive storage.ObjectStorage
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Logger(),
		middleware.Recovery(),
	)

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.Sync != nil {
			syncHandler := handlers.NewSyncHandler(services.Sync, services.Cache, services.Archive)
			syncGroup := apiGroup.Group("/sync")
			{
				syncGroup.POST("/sales", syncHandler.RunSync)
				syncGroup.GET("/sales/last", syncHandler.LastSync)
				syncGroup.GET("/sales/archive", syncHandler.ListArchive)
			}
		}

		if services.Sales != nil {
			salesHandler := handlers.NewSalesHandler(services.Sales, services.Cache)
			apiGroup.GET("/sales/summary", salesHandler.GetSummary)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
