// Package api serves the operations HTTP surface: health, bot status,
// Prometheus metrics and read-only market and news endpoints.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/degenbots/internal/agent"
	"github.com/ajitpratap0/degenbots/internal/bot"
)

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// BotStatus reports the connection state of a running bot
type BotStatus interface {
	State() bot.State
}

// Server represents the ops API server
type Server struct {
	router *gin.Engine
	addr   string
	server *http.Server

	version string
	db      HealthChecker
	market  agent.MarketFetcher
	news    agent.NewsCollector
	bots    map[string]BotStatus
}

// Config contains server configuration. Nil dependencies disable the
// endpoints that need them.
type Config struct {
	Host    string
	Port    int
	Version string

	DB     HealthChecker
	Market agent.MarketFetcher
	News   agent.NewsCollector
	Bots   map[string]BotStatus
}

// NewServer creates a new API server
func NewServer(config Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	bots := config.Bots
	if bots == nil {
		bots = map[string]BotStatus{}
	}

	server := &Server{
		router:  router,
		addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
		version: config.Version,
		db:      config.DB,
		market:  config.Market,
		news:    config.News,
		bots:    bots,
	}
	server.server = &http.Server{
		Addr:         server.addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	server.setupRoutes()

	return server
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops. It returns
// nil at once if Stop already ran.
func (s *Server) Start() error {
	log.Info().Str("addr", s.addr).Msg("Starting API server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	log.Info().Msg("Stopping API server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	return nil
}

// LoggerMiddleware is a custom logging middleware for Gin
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logEvent := log.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP())

		if len(c.Errors) > 0 {
			logEvent.Str("errors", c.Errors.String())
		}

		logEvent.Msg("API request")
	}
}
