package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"pmms-backend/config"
	"pmms-backend/internal/livedata"
	"pmms-backend/internal/metrics"
	"pmms-backend/internal/mw"
	"pmms-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, s store.Store, engine *livedata.Engine) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, engine)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/machines", handler.CreateMachine)
		api.GET("/machines", handler.ListMachines)
		api.GET("/machines/:machine_id", handler.GetMachine)
		api.PUT("/machines/:machine_id", handler.UpdateMachine)
		api.DELETE("/machines/:machine_id", handler.DeleteMachine)

		// Live metrics are always recomputed fresh; only the historical
		// readings graph goes through the response cache.
		api.GET("/live", handler.GetAllLiveData)
		api.GET("/machines/:machine_id/live", handler.GetLiveData)
		api.GET("/machines/:machine_id/readings", caching, handler.GetReadings)
	}

	return r
}
