package news

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/degenbots/internal/sentiment"
)

// stubTagger records what it was asked to classify
type stubTagger struct {
	subjects []string
	label    sentiment.Label
}

func (s *stubTagger) Classify(text string) sentiment.Label {
	s.subjects = append(s.subjects, text)
	return s.label
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"iso with colon offset", "2024-03-01T12:30:00+00:00", "2024-03-01 12:30:00"},
		{"iso with Z", "2024-03-01T12:30:00Z", "2024-03-01 12:30:00"},
		{"iso with compact offset", "2024-03-01T14:30:00+0200", "2024-03-01 12:30:00"},
		{"rfc822 numeric zone", "Fri, 01 Mar 2024 12:30:00 +0000", "2024-03-01 12:30:00"},
		{"rfc822 GMT", "Fri, 01 Mar 2024 12:30:00 GMT", "2024-03-01 12:30:00"},
		{"rfc822 negative offset", "Fri, 01 Mar 2024 07:30:00 -0500", "2024-03-01 12:30:00"},
		{"rfc822 single digit day", "Mon, 7 Oct 2024 14:30:00 +0000", "2024-10-07 14:30:00"},
		{"rfc822 single digit day GMT", "Mon, 7 Oct 2024 14:30:00 GMT", "2024-10-07 14:30:00"},
		{"already canonical", "2024-03-01 12:30:00", "2024-03-01 12:30:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatTimestamp(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatTimestamp_Unrecognised(t *testing.T) {
	_, err := FormatTimestamp("yesterday at noon")
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "yesterday at noon", perr.Value)
}

func TestNormalize_EquivalentInstantsMatch(t *testing.T) {
	n := NewNormalizer(AbortBatch)
	out, err := n.Normalize([]Article{
		{Title: "a", PublishedAt: "2024-05-10T08:15:30+02:00"},
		{Title: "b", PublishedAt: "Fri, 10 May 2024 06:15:30 +0000"},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, out[0].PublishedAt, out[1].PublishedAt)
	assert.Equal(t, "2024-05-10 06:15:30", out[0].PublishedAt)
}

func TestNormalize_Idempotent(t *testing.T) {
	n := NewNormalizer(AbortBatch)
	first, err := n.Normalize([]Article{
		{Title: "Bitcoin rallies", PublishedAt: "2024-05-10T08:15:30Z"},
		{Title: "Exchange hacked", PublishedAt: "Fri, 10 May 2024 06:15:30 GMT"},
		{Title: "No date"},
	})
	require.NoError(t, err)

	second, err := n.Normalize(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNormalize_SubjectPrefersContent(t *testing.T) {
	tagger := &stubTagger{label: sentiment.Bullish}
	n := &Normalizer{Tagger: tagger}

	out, err := n.Normalize([]Article{
		{Title: "title one", Content: "summary one"},
		{Title: "title two"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"summary one", "title two"}, tagger.subjects)
	for _, a := range out {
		assert.Equal(t, sentiment.Bullish, a.Sentiment)
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	in := []Article{{Title: "x", PublishedAt: "2024-05-10T08:15:30Z"}}
	_, err := NewNormalizer(AbortBatch).Normalize(in)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-10T08:15:30Z", in[0].PublishedAt)
	assert.Empty(t, in[0].Sentiment)
}

func TestNormalize_AbortBatchOnBadTimestamp(t *testing.T) {
	n := NewNormalizer(AbortBatch)
	out, err := n.Normalize([]Article{
		{Title: "good", PublishedAt: "2024-05-10T08:15:30Z"},
		{Title: "bad", PublishedAt: "10/05/2024"},
		{Title: "after", PublishedAt: "2024-05-10T09:00:00Z"},
	})
	require.Error(t, err)
	assert.Nil(t, out)

	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
	assert.Contains(t, err.Error(), `"bad"`)
}

func TestNormalize_SkipArticleOnBadTimestamp(t *testing.T) {
	n := NewNormalizer(SkipArticle)
	out, err := n.Normalize([]Article{
		{Title: "good", PublishedAt: "2024-05-10T08:15:30Z"},
		{Title: "bad", PublishedAt: "10/05/2024"},
		{Title: "after", PublishedAt: "2024-05-10T09:00:00Z"},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "good", out[0].Title)
	assert.Equal(t, "after", out[1].Title)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("skip")
	require.NoError(t, err)
	assert.Equal(t, SkipArticle, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, AbortBatch, p)

	_, err = ParsePolicy("retry")
	assert.Error(t, err)
}

type fakeSource struct {
	trending    []Article
	trendingErr error
	feed        []Article
	feedURLs    []string
}

func (f *fakeSource) FetchTrendingNews(ctx context.Context) ([]Article, error) {
	return f.trending, f.trendingErr
}

func (f *fakeSource) FetchFeedNews(ctx context.Context, feedURLs []string) []Article {
	f.feedURLs = feedURLs
	return f.feed
}

func TestAggregator_TrendingFirstThenFeeds(t *testing.T) {
	src := &fakeSource{
		trending: []Article{{Title: "trend", Source: "CryptoPanic", PublishedAt: "2024-05-10T08:15:30Z"}},
		feed:     []Article{{Title: "rss", Source: "Decrypt", PublishedAt: "Fri, 10 May 2024 06:15:30 +0000"}},
	}
	agg := NewAggregator(src, []string{"https://example.com/rss"}, nil)

	out, err := agg.Collect(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "trend", out[0].Title)
	assert.Equal(t, "rss", out[1].Title)
	assert.Equal(t, []string{"https://example.com/rss"}, src.feedURLs)
}

func TestAggregator_TrendingFailureKeepsFeeds(t *testing.T) {
	src := &fakeSource{
		trendingErr: errors.New("boom"),
		feed:        []Article{{Title: "rss one"}, {Title: "rss two"}, {Title: "rss three"}},
	}
	agg := NewAggregator(src, nil, nil)

	out, err := agg.Collect(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "rss one", out[0].Title)
}

func TestSaveJSON_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crypto_news.json")
	articles := []Article{
		{Title: "t", URL: "https://x", Source: "CryptoPanic", PublishedAt: "2024-05-10 06:15:30", Sentiment: sentiment.Neutral},
	}

	require.NoError(t, SaveJSON(path, articles))

	loaded, err := LoadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, articles, loaded)
}
