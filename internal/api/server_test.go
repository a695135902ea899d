package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/degenbots/internal/bot"
	"github.com/ajitpratap0/degenbots/internal/market"
	"github.com/ajitpratap0/degenbots/internal/news"
	"github.com/ajitpratap0/degenbots/internal/sentiment"
)

type stubHealth struct{ err error }

func (s stubHealth) Health(context.Context) error { return s.err }

type stubBot struct{ state bot.State }

func (s stubBot) State() bot.State { return s.state }

type stubMarket struct {
	records []market.MarketRecord
	err     error
}

func (s *stubMarket) FetchMarketData(context.Context, string) ([]market.MarketRecord, error) {
	return s.records, s.err
}

type stubNews struct {
	articles []news.Article
	err      error
	limit    int
}

func (s *stubNews) Collect(_ context.Context, limit int) ([]news.Article, error) {
	s.limit = limit
	return s.articles, s.err
}

func doRequest(t *testing.T, s *Server, path string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var body map[string]interface{}
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec.Code, body
}

func TestHealth(t *testing.T) {
	code, body := doRequest(t, NewServer(Config{}), "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])

	code, body = doRequest(t, NewServer(Config{DB: stubHealth{err: errors.New("down")}}), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body["status"])
}

func TestStatusAndBots(t *testing.T) {
	s := NewServer(Config{
		Version: "1.2.3",
		DB:      stubHealth{},
		Bots: map[string]BotStatus{
			"bot2": stubBot{state: bot.Connecting},
			"bot1": stubBot{state: bot.Ready},
		},
	})

	code, body := doRequest(t, s, "/api/v1/status")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "1.2.3", body["version"])

	code, body = doRequest(t, s, "/api/v1/bots")
	assert.Equal(t, http.StatusOK, code)
	bots := body["bots"].([]interface{})
	require.Len(t, bots, 2)
	assert.Equal(t, "bot1", bots[0].(map[string]interface{})["name"])
	assert.Equal(t, "ready", bots[0].(map[string]interface{})["state"])
	assert.Equal(t, "connecting", bots[1].(map[string]interface{})["state"])
}

func TestGetNews(t *testing.T) {
	feed := &stubNews{articles: []news.Article{{Title: "Pepe flips doge", Sentiment: sentiment.Bullish}}}
	s := NewServer(Config{News: feed})

	code, body := doRequest(t, s, "/api/v1/news")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, defaultNewsLimit, feed.limit)

	code, _ = doRequest(t, s, "/api/v1/news?limit=5")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 5, feed.limit)

	code, _ = doRequest(t, s, "/api/v1/news?limit=abc")
	assert.Equal(t, http.StatusBadRequest, code)

	feed.err = errors.New("parse failure")
	code, _ = doRequest(t, s, "/api/v1/news")
	assert.Equal(t, http.StatusInternalServerError, code)

	code, _ = doRequest(t, NewServer(Config{}), "/api/v1/news")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestGetMarket(t *testing.T) {
	m := &stubMarket{records: []market.MarketRecord{{ID: "bitcoin", CurrentPrice: 65000}}}
	s := NewServer(Config{Market: m})

	code, body := doRequest(t, s, "/api/v1/market/bitcoin")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "bitcoin", body["coin_id"])
	assert.Equal(t, float64(1), body["count"])

	m.records = nil
	code, body = doRequest(t, s, "/api/v1/market/not-a-coin")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{}, body["markets"])

	m.err = &market.StatusError{Provider: "coingecko", Endpoint: "coins/markets", StatusCode: 429}
	code, body = doRequest(t, s, "/api/v1/market/bitcoin")
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, float64(429), body["provider_status"])
}

func TestMetricsRoute(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	NewServer(Config{}).Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# HELP")
}

func TestStopBeforeStart(t *testing.T) {
	s := NewServer(Config{Host: "127.0.0.1", Port: 0})
	require.NoError(t, s.Stop(context.Background()))

	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start kept serving after Stop")
	}
}

func TestStartThenStop(t *testing.T) {
	s := NewServer(Config{Host: "127.0.0.1", Port: 0})

	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}
