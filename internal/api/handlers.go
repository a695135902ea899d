package api

import (
	"net/http"
	"runtime"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/degenbots/internal/bot"
	"github.com/ajitpratap0/degenbots/internal/market"
)

var startTime = time.Now()

const (
	defaultNewsLimit = 20
	maxNewsLimit     = 100
)

// handleRoot returns service identification
func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "degenbots",
		"version": s.version,
		"status":  "running",
		"time":    time.Now().UTC(),
	})
}

// handleGetHealth returns a simple health check
func (s *Server) handleGetHealth(c *gin.Context) {
	if s.db != nil {
		if err := s.db.Health(c.Request.Context()); err != nil {
			log.Warn().Err(err).Msg("Database health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database unavailable",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC(),
	})
}

// handleGetStatus returns bot states and process statistics
func (s *Server) handleGetStatus(c *gin.Context) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	dbStatus := "not_configured"
	if s.db != nil {
		dbStatus = "healthy"
		if err := s.db.Health(c.Request.Context()); err != nil {
			dbStatus = "unhealthy"
		}
	}

	systemStatus := "healthy"
	if dbStatus == "unhealthy" {
		systemStatus = "degraded"
	}
	for _, b := range s.bots {
		if b.State() != bot.Ready {
			systemStatus = "degraded"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    systemStatus,
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(startTime).Seconds(),
		"version":   s.version,
		"components": gin.H{
			"database": gin.H{"status": dbStatus},
			"bots":     s.botStates(),
		},
		"system": gin.H{
			"goroutines": runtime.NumGoroutine(),
			"memory": gin.H{
				"alloc_mb": toMB(memStats.Alloc),
				"sys_mb":   toMB(memStats.Sys),
				"num_gc":   memStats.NumGC,
			},
			"go_version": runtime.Version(),
		},
	})
}

// handleListBots returns the state of each bot
func (s *Server) handleListBots(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"bots":  s.botStates(),
		"count": len(s.bots),
	})
}

// handleGetNews returns processed news articles
func (s *Server) handleGetNews(c *gin.Context) {
	if s.news == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "news is not configured"})
		return
	}

	limit := defaultNewsLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxNewsLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = parsed
	}

	articles, err := s.news.Collect(c.Request.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to collect news")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to collect news"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": articles,
		"count":    len(articles),
	})
}

// handleGetMarket returns CoinGecko market data for a coin
func (s *Server) handleGetMarket(c *gin.Context) {
	if s.market == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "market data is not configured"})
		return
	}

	coinID := c.Param("coin_id")
	records, err := s.market.FetchMarketData(c.Request.Context(), coinID)
	if err != nil {
		if status, ok := market.AsStatusError(err); ok {
			c.JSON(http.StatusBadGateway, gin.H{
				"error":           "market data provider error",
				"provider_status": status.StatusCode,
			})
			return
		}
		log.Error().Err(err).Str("coin_id", coinID).Msg("Failed to fetch market data")
		c.JSON(http.StatusBadGateway, gin.H{"error": "market data provider unreachable"})
		return
	}
	if records == nil {
		records = []market.MarketRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"coin_id": coinID,
		"markets": records,
		"count":   len(records),
	})
}

func (s *Server) botStates() []gin.H {
	names := make([]string, 0, len(s.bots))
	for name := range s.bots {
		names = append(names, name)
	}
	sort.Strings(names)

	states := make([]gin.H, 0, len(names))
	for _, name := range names {
		states = append(states, gin.H{
			"name":  name,
			"state": s.bots[name].State().String(),
		})
	}
	return states
}

func toMB(bytes uint64) uint64 {
	return bytes / 1024 / 1024
}
