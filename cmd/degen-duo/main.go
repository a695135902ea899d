// Command degen-duo runs two Discord bots that talk to each other in one
// channel: a YOLO degen and a tactical trader.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/degenbots/internal/agent"
	"github.com/ajitpratap0/degenbots/internal/api"
	"github.com/ajitpratap0/degenbots/internal/app"
	"github.com/ajitpratap0/degenbots/internal/bot"
	"github.com/ajitpratap0/degenbots/internal/config"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	checkEnv := flag.Bool("check-env", false, "Verify required environment variables, then exit")
	flag.Parse()

	config.LoadDotEnv()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	config.InitLogger(cfg.App.LogLevel, cfg.App.LogFormat)

	creds, err := config.RequireEnv(config.EnvBot1Token, config.EnvBot2Token, config.EnvChannelID)
	if err != nil {
		log.Fatal().Err(err).Msg("Missing bot credentials")
	}
	needs := app.Needs{Reasoner: true, Retrieval: true, News: true}
	if *checkEnv {
		if _, err := config.RequireEnv(needs.RequiredEnv(cfg)...); err != nil {
			log.Error().Err(err).Msg("Environment check failed")
			os.Exit(1)
		}
		log.Info().Msg("Environment check passed")
		return
	}

	log.Info().Str("version", config.Version).Msg("Starting degen duo")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tk, err := app.Build(ctx, cfg, needs)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build toolkit")
	}
	defer tk.Close()

	yolo, err := tk.NewSession("bot1", agent.PersonaYOLO)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot1 session")
	}
	tactical, err := tk.NewSession("bot2", agent.PersonaTactical)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot2 session")
	}

	discord1, err := bot.NewDiscord(creds[config.EnvBot1Token])
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot1 platform")
	}
	discord2, err := bot.NewDiscord(creds[config.EnvBot2Token])
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot2 platform")
	}

	id1, err := discord1.Identity(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve bot1 identity")
	}
	id2, err := discord2.Identity(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve bot2 identity")
	}

	channelID := creds[config.EnvChannelID]
	bot1 := &bot.Loop{
		Name:         "bot1",
		Platform:     discord1,
		Filter:       bot.Filter{ChannelID: channelID, SelfID: id1, PeerID: id2},
		Conversation: yolo,
		Delay:        cfg.Bots.GetReplyDelay(),
		Opener:       cfg.Bots.Opener,
		OpenerDelay:  cfg.Bots.GetOpenerDelay(),
	}
	bot2 := &bot.Loop{
		Name:         "bot2",
		Platform:     discord2,
		Filter:       bot.Filter{ChannelID: channelID, SelfID: id2, PeerID: id1},
		Conversation: tactical,
		Delay:        cfg.Bots.GetReplyDelay(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bot1.Run(gctx) })
	g.Go(func() error { return bot2.Run(gctx) })

	if cfg.Monitoring.Enabled {
		server := tk.NewAPIServer(map[string]api.BotStatus{"bot1": bot1, "bot2": bot2})
		g.Go(server.Start)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Stop(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Degen duo stopped with error")
		os.Exit(1)
	}

	log.Info().Msg("Degen duo stopped")
}
