// Command discord-agent runs the multi-user Q&A crypto agent on Discord,
// optionally mirrored to a Telegram chat.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strconv"
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
	flag.Parse()

	config.LoadDotEnv()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	config.InitLogger(cfg.App.LogLevel, cfg.App.LogFormat)

	creds, err := config.RequireEnv(config.EnvAgentBotToken, config.EnvAgentChannelID)
	if err != nil {
		log.Fatal().Err(err).Msg("Missing bot credentials")
	}

	log.Info().Str("version", config.Version).Msg("Starting discord agent")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tk, err := app.Build(ctx, cfg, app.Needs{Reasoner: true, Retrieval: true, News: true})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build toolkit")
	}
	defer tk.Close()

	session, err := tk.NewSession("qa_agent", agent.PersonaQA)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create agent session")
	}

	discord, err := bot.NewDiscord(creds[config.EnvAgentBotToken])
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create discord platform")
	}

	loops := map[string]*bot.Loop{
		"discord": {
			Name:         "qa_agent",
			Platform:     discord,
			Filter:       bot.Filter{ChannelID: creds[config.EnvAgentChannelID]},
			Conversation: session,
			KeyFunc:      bot.KeyByPlatformAuthor("discord"),
		},
	}

	if cfg.Telegram.Enabled {
		mirror, err := telegramLoop(cfg, session)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create telegram mirror")
		}
		loops["telegram"] = mirror
	}

	g, gctx := errgroup.WithContext(ctx)
	statuses := make(map[string]api.BotStatus, len(loops))
	for name, l := range loops {
		statuses[name] = l
		g.Go(func() error { return l.Run(gctx) })
	}

	if cfg.Monitoring.Enabled {
		server := tk.NewAPIServer(statuses)
		g.Go(server.Start)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Stop(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Discord agent stopped with error")
		os.Exit(1)
	}

	log.Info().Msg("Discord agent stopped")
}

// telegramLoop mirrors the agent to one Telegram chat. Memory keys are
// scoped per platform.
func telegramLoop(cfg *config.Config, session bot.Conversation) (*bot.Loop, error) {
	creds, err := config.RequireEnv(config.EnvTelegramBotToken, config.EnvTelegramChatID)
	if err != nil {
		return nil, err
	}
	chatID, err := config.ParseChatID(config.EnvTelegramChatID, creds[config.EnvTelegramChatID])
	if err != nil {
		return nil, err
	}

	platform, err := bot.NewTelegram(&bot.TelegramConfig{
		BotToken:       creds[config.EnvTelegramBotToken],
		PollingTimeout: cfg.Telegram.PollingTimeout,
		Debug:          cfg.Telegram.Debug,
	})
	if err != nil {
		return nil, err
	}

	return &bot.Loop{
		Name:         "qa_agent_telegram",
		Platform:     platform,
		Filter:       bot.Filter{ChannelID: strconv.FormatInt(chatID, 10)},
		Conversation: session,
		KeyFunc:      bot.KeyByPlatformAuthor("telegram"),
	}, nil
}
