// Command mcp-tools serves the agent's market, news and corpus tools to
// MCP clients over stdio.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/degenbots/internal/agent"
	"github.com/ajitpratap0/degenbots/internal/app"
	"github.com/ajitpratap0/degenbots/internal/config"
	"github.com/ajitpratap0/degenbots/internal/metrics"
)

const serverName = "degenbots-tools"

func main() {
	configPath := flag.String("config", "", "Path to config file")
	withRetrieval := flag.Bool("retrieval", true, "Serve the corpus query tool (needs DATABASE_URL)")
	flag.Parse()

	config.LoadDotEnv()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	// stdout is reserved for the MCP protocol
	config.InitLoggerTo(os.Stderr, cfg.App.LogLevel, cfg.App.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tk, err := app.Build(ctx, cfg, app.Needs{News: true, Retrieval: *withRetrieval})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build toolkit")
	}
	defer tk.Close()

	if cfg.Monitoring.Enabled {
		metricsServer := metrics.NewServer(cfg.Monitoring.GetAddr(), log.Logger)
		if err := metricsServer.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start metrics server")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("Failed to stop metrics server")
			}
		}()
	}

	server := agent.NewMCPServer(serverName, config.Version, tk.Tools())

	log.Info().
		Int("tools", len(tk.Tools())).
		Msg("MCP server ready, listening on stdio")

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("MCP server failed")
		return
	}

	log.Info().Msg("MCP server stopped")
}
