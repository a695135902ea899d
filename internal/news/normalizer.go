package news

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/degenbots/internal/sentiment"
)

// Policy decides what happens to a batch when a timestamp cannot be parsed
type Policy int

const (
	// AbortBatch fails the whole batch on the first unparseable timestamp
	AbortBatch Policy = iota
	// SkipArticle drops the offending article and keeps the rest
	SkipArticle
)

// ParsePolicy maps a configuration value to a Policy
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "abort":
		return AbortBatch, nil
	case "skip":
		return SkipArticle, nil
	default:
		return AbortBatch, fmt.Errorf("unknown parse policy %q", s)
	}
}

func (p Policy) String() string {
	if p == SkipArticle {
		return "skip"
	}
	return "abort"
}

// Tagger classifies article text
type Tagger interface {
	Classify(text string) sentiment.Label
}

// Normalizer attaches sentiment and canonical timestamps to articles
type Normalizer struct {
	Tagger Tagger
	Policy Policy
}

// NewNormalizer creates a normalizer over the default sentiment lexicon
func NewNormalizer(policy Policy) *Normalizer {
	return &Normalizer{
		Tagger: sentiment.NewTagger(),
		Policy: policy,
	}
}

// Normalize returns a copy of articles with sentiment set from
// Article.Subject and PublishedAt rewritten into CanonicalLayout.
// Articles without a timestamp keep an empty PublishedAt.
func (n *Normalizer) Normalize(articles []Article) ([]Article, error) {
	tagger := n.Tagger
	if tagger == nil {
		tagger = sentiment.NewTagger()
	}

	out := make([]Article, 0, len(articles))
	for i, article := range articles {
		article.Sentiment = tagger.Classify(article.Subject())

		if article.PublishedAt != "" {
			ts, err := FormatTimestamp(article.PublishedAt)
			if err != nil {
				if n.Policy == AbortBatch {
					return nil, fmt.Errorf("article %d (%q): %w", i, article.Title, err)
				}
				log.Warn().
					Err(err).
					Str("title", article.Title).
					Str("source", article.Source).
					Msg("Skipping article with unparseable timestamp")
				continue
			}
			article.PublishedAt = ts
		}

		out = append(out, article)
	}

	return out, nil
}
