package news

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Source fetches raw articles from the news providers
type Source interface {
	FetchTrendingNews(ctx context.Context) ([]Article, error)
	FetchFeedNews(ctx context.Context, feedURLs []string) []Article
}

// Aggregator merges trending aggregator news with RSS feed news and
// normalizes the result
type Aggregator struct {
	source     Source
	feeds      []string
	normalizer *Normalizer
}

// NewAggregator creates an aggregator over source and feeds
func NewAggregator(source Source, feeds []string, normalizer *Normalizer) *Aggregator {
	if normalizer == nil {
		normalizer = NewNormalizer(AbortBatch)
	}
	return &Aggregator{
		source:     source,
		feeds:      feeds,
		normalizer: normalizer,
	}
}

// Collect returns trending articles followed by feed articles, normalized.
// A trending-news failure is logged and the feeds are still used.
// limit <= 0 means no limit.
func (a *Aggregator) Collect(ctx context.Context, limit int) ([]Article, error) {
	trending, err := a.source.FetchTrendingNews(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Trending news unavailable, continuing with feeds")
		trending = nil
	}

	feed := a.source.FetchFeedNews(ctx, a.feeds)

	all := make([]Article, 0, len(trending)+len(feed))
	all = append(all, trending...)
	all = append(all, feed...)

	processed, err := a.normalizer.Normalize(all)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize news: %w", err)
	}

	if limit > 0 && len(processed) > limit {
		processed = processed[:limit]
	}

	log.Info().
		Int("trending", len(trending)).
		Int("feed", len(feed)).
		Int("processed", len(processed)).
		Msg("Aggregated news")

	return processed, nil
}
