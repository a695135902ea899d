package market

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/degenbots/internal/metrics"
	"github.com/ajitpratap0/degenbots/internal/news"
)

const cryptoPanicSource = "CryptoPanic"

type cryptoPanicResponse struct {
	Results []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		PublishedAt string `json:"published_at"`
	} `json:"results"`
}

// FetchTrendingNews returns trending news from CryptoPanic. Any failure
// is reported as an error wrapping ErrNewsFetch.
func (c *Client) FetchTrendingNews(ctx context.Context) ([]news.Article, error) {
	if c.cfg.CryptoPanicToken == "" {
		return nil, fmt.Errorf("%w: auth token not configured", ErrNewsFetch)
	}

	params := url.Values{}
	params.Set("auth_token", c.cfg.CryptoPanicToken)
	params.Set("filter", "trending")
	params.Set("kind", "news")

	var payload cryptoPanicResponse
	start := time.Now()
	err := c.getJSON(ctx, providerCryptoPanic, "/posts", c.cfg.CryptoPanicURL+"?"+params.Encode(), &payload)
	metrics.RecordOutboundCall(providerCryptoPanic, "/posts", float64(time.Since(start).Milliseconds()), err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNewsFetch, err)
	}

	articles := make([]news.Article, 0, len(payload.Results))
	for _, item := range payload.Results {
		articles = append(articles, news.Article{
			Title:       item.Title,
			URL:         item.URL,
			Source:      cryptoPanicSource,
			PublishedAt: item.PublishedAt,
		})
	}

	metrics.RecordNewsArticles("trending", len(articles))
	log.Debug().Int("count", len(articles)).Msg("Fetched trending news from CryptoPanic")

	return articles, nil
}
