package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	v1 := s.engine.Group("/api/v1")
	v1.Use(apiVersionMiddleware())
	{
		v1.GET("/overview", s.handleOverview)
		v1.GET("/latest", s.handleLatest)
		v1.GET("/analytics", s.handleAnalytics)
		v1.GET("/history", s.handleHistory)
		v1.GET("/history/export", s.handleExport)
		v1.GET("/charts/:name", s.handleChart)
		v1.GET("/snapshots", s.handleSnapshots)
	}
}

func apiVersionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-API-Version", "v1")
		c.Next()
	}
}
