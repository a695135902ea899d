package api

import (
	"github.com/gin-gonic/gin"

	"github.com/ajitpratap0/degenbots/internal/metrics"
)

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleRoot)
	s.router.GET("/health", s.handleGetHealth)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/status", s.handleGetStatus)
		v1.GET("/bots", s.handleListBots)
		v1.GET("/news", s.handleGetNews)
		v1.GET("/market/:coin_id", s.handleGetMarket)
	}
}
