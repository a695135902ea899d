// Command news-digest collects trending and RSS crypto news, tags each
// article's sentiment and writes the batch to a JSON file.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/degenbots/internal/app"
	"github.com/ajitpratap0/degenbots/internal/config"
	"github.com/ajitpratap0/degenbots/internal/news"
	"github.com/ajitpratap0/degenbots/internal/sentiment"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	output := flag.String("output", "", "Output file (defaults to news.output_file)")
	limit := flag.Int("limit", 0, "Maximum number of articles, 0 for all")
	flag.Parse()

	config.LoadDotEnv()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	config.InitLogger(cfg.App.LogLevel, cfg.App.LogFormat)

	path := *output
	if path == "" {
		path = cfg.News.OutputFile
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tk, err := app.Build(ctx, cfg, app.Needs{News: true})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build toolkit")
	}
	defer tk.Close()

	articles, err := tk.News.Collect(ctx, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to collect news")
	}

	if err := news.SaveJSON(path, articles); err != nil {
		log.Fatal().Err(err).Msg("Failed to save news")
	}

	counts := make(map[sentiment.Label]int)
	for _, a := range articles {
		counts[a.Sentiment]++
	}

	log.Info().
		Str("path", path).
		Int("articles", len(articles)).
		Int("bullish", counts[sentiment.Bullish]).
		Int("bearish", counts[sentiment.Bearish]).
		Int("neutral", counts[sentiment.Neutral]).
		Msg("News digest written")
}
