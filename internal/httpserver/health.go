package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	ServiceName    = "partdesk-agent"
	ServiceVersion = "1.0.0"
)

func (srv *HTTPServer) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": ServiceName,
		"version": ServiceVersion,
		"status":  "running",
		"endpoints": gin.H{
			"chat":        "POST /chat",
			"health":      "GET /health",
			"metrics":     "GET /metrics",
			"session":     "GET|DELETE /session/:id",
			"cache_stats": "GET /debug/cache-stats",
		},
	})
}

// healthCheck reports liveness plus the loaded reference data counts.
func (srv *HTTPServer) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"stats":     srv.stats.Stats(),
	})
}

func (srv *HTTPServer) cacheStats(c *gin.Context) {
	stats := srv.chat.CacheStats()
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"planner_cache": gin.H{
			"cache_size":     stats.Size,
			"max_size":       stats.Capacity,
			"hits":           stats.Hits,
			"misses":         stats.Misses,
			"total_requests": stats.Hits + stats.Misses,
			"hit_rate_pct":   roundPct(stats.HitRate),
		},
	})
}

func roundPct(rate float64) float64 {
	return float64(int64(rate*10000+0.5)) / 100
}
