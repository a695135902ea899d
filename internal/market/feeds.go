package market

import (
	"context"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/degenbots/internal/metrics"
	"github.com/ajitpratap0/degenbots/internal/news"
)

// concurrent feed reads per batch
const maxFeedFetches = 4

// FetchFeedNews reads every feed independently and returns their items
// in feed order, then entry order. A feed that cannot be fetched or
// parsed is logged and contributes no articles; the rest of the batch
// is unaffected.
func (c *Client) FetchFeedNews(ctx context.Context, feedURLs []string) []news.Article {
	perFeed := make([][]news.Article, len(feedURLs))

	var g errgroup.Group
	g.SetLimit(maxFeedFetches)

	for i, feedURL := range feedURLs {
		g.Go(func() error {
			articles, err := c.fetchFeed(ctx, feedURL)
			if err != nil {
				log.Warn().
					Err(err).
					Str("feed", feedURL).
					Msg("Feed fetch failed, skipping")
				metrics.RecordFeedFailure(feedURL)
				return nil
			}
			perFeed[i] = articles
			return nil
		})
	}
	_ = g.Wait() // feed goroutines never fail the group

	var all []news.Article
	for _, articles := range perFeed {
		all = append(all, articles...)
	}

	metrics.RecordNewsArticles("feed", len(all))
	return all
}

func (c *Client) fetchFeed(ctx context.Context, feedURL string) ([]news.Article, error) {
	parser := gofeed.NewParser()
	parser.Client = c.http

	start := time.Now()
	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	metrics.RecordOutboundCall(providerRSS, "feed", float64(time.Since(start).Milliseconds()), err)
	if err != nil {
		return nil, err
	}

	articles := make([]news.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		articles = append(articles, news.Article{
			Title:       item.Title,
			URL:         item.Link,
			Source:      feed.Title,
			PublishedAt: item.Published,
			Content:     item.Description,
		})
	}

	log.Debug().
		Str("feed", feedURL).
		Int("count", len(articles)).
		Msg("Fetched feed")

	return articles, nil
}
