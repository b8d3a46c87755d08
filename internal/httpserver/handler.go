package httpserver

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	logx "github.com/partdesk-core-poc-v1/server/pkg/logger"
)

func (srv *HTTPServer) mapHandlers() {
	srv.registerMiddlewares()
	srv.registerSystemRoutes()
	srv.registerChatRoutes()
}

func (srv *HTTPServer) registerMiddlewares() {
	srv.gin.Use(gin.Recovery())
	srv.gin.Use(requestLogger())
}

func (srv *HTTPServer) registerSystemRoutes() {
	srv.gin.GET("/", srv.root)
	srv.gin.GET("/health", srv.healthCheck)
	srv.gin.GET("/metrics", gin.WrapH(promhttp.Handler()))
	srv.gin.GET("/debug/cache-stats", srv.cacheStats)
}

func (srv *HTTPServer) registerChatRoutes() {
	srv.gin.POST("/chat", srv.handleChat)

	session := srv.gin.Group("/session")
	session.GET("/:id", srv.getSession)
	session.DELETE("/:id", srv.deleteSession)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logx.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	}
}
