// Package news normalizes crypto news from aggregators and RSS feeds
// into a single article shape with sentiment and canonical timestamps.
package news

import (
	"github.com/ajitpratap0/degenbots/internal/sentiment"
)

// Article is a news item from any provider. Values are treated as
// immutable: the Normalizer returns new articles instead of editing
// its input.
type Article struct {
	Title       string          `json:"title"`
	URL         string          `json:"url"`
	Source      string          `json:"source"`
	PublishedAt string          `json:"published_at,omitempty"`
	Sentiment   sentiment.Label `json:"sentiment,omitempty"`
	Content     string          `json:"content,omitempty"`
}

// Subject returns the text used for sentiment analysis: the content
// when present, otherwise the title.
func (a Article) Subject() string {
	if a.Content != "" {
		return a.Content
	}
	return a.Title
}
