// Package market fetches market data, ticker prices and crypto news from
// public providers. Every call is a single network round trip: there
// are no retries and no caching.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/ajitpratap0/degenbots/internal/metrics"
)

const (
	DefaultCoinGeckoURL   = "https://api.coingecko.com/api/v3"
	DefaultBinanceURL     = "https://api.binance.com"
	DefaultCryptoPanicURL = "https://cryptopanic.com/api/v1/posts/"

	providerCoinGecko   = "coingecko"
	providerBinance     = "binance"
	providerCryptoPanic = "cryptopanic"
	providerRSS         = "rss"
)

// ClientConfig configures the provider endpoints
type ClientConfig struct {
	CoinGeckoURL     string
	BinanceURL       string
	CryptoPanicURL   string
	CryptoPanicToken string

	// HTTPClient is shared by every provider. Its Timeout bounds each call,
	// including each individual feed read.
	HTTPClient *http.Client

	// RequestsPerMinute throttles CoinGecko calls; 0 disables throttling
	RequestsPerMinute int
}

// Client talks to CoinGecko, Binance, CryptoPanic and RSS feeds
type Client struct {
	cfg     ClientConfig
	http    *http.Client
	binance *binance.Client
	limiter *rate.Limiter
}

// NewClient creates a market client, filling unset endpoints with the
// public defaults
func NewClient(cfg ClientConfig) *Client {
	if cfg.CoinGeckoURL == "" {
		cfg.CoinGeckoURL = DefaultCoinGeckoURL
	}
	if cfg.BinanceURL == "" {
		cfg.BinanceURL = DefaultBinanceURL
	}
	if cfg.CryptoPanicURL == "" {
		cfg.CryptoPanicURL = DefaultCryptoPanicURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	cfg.CoinGeckoURL = strings.TrimRight(cfg.CoinGeckoURL, "/")

	// Public ticker endpoints need no credentials
	bc := binance.NewClient("", "")
	bc.BaseURL = strings.TrimRight(cfg.BinanceURL, "/")
	bc.HTTPClient = &http.Client{
		Timeout:   cfg.HTTPClient.Timeout,
		Transport: &statusRecorder{next: cfg.HTTPClient.Transport},
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	return &Client{
		cfg:     cfg,
		http:    cfg.HTTPClient,
		binance: bc,
		limiter: limiter,
	}
}

// MarketRecord is one entry of the CoinGecko /coins/markets reply
type MarketRecord struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	Image                    string  `json:"image,omitempty"`
	CurrentPrice             float64 `json:"current_price"`
	MarketCap                float64 `json:"market_cap"`
	MarketCapRank            int     `json:"market_cap_rank"`
	TotalVolume              float64 `json:"total_volume"`
	High24h                  float64 `json:"high_24h"`
	Low24h                   float64 `json:"low_24h"`
	PriceChange24h           float64 `json:"price_change_24h"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
	CirculatingSupply        float64 `json:"circulating_supply"`
	ATH                      float64 `json:"ath"`
	ATL                      float64 `json:"atl"`
	LastUpdated              string  `json:"last_updated"`
}

// CoinListEntry is one entry of the CoinGecko /coins/list reply
type CoinListEntry struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// FetchMarketData returns USD market data for coinID. An unknown coin
// yields an empty slice, since the provider still answers 200.
func (c *Client) FetchMarketData(ctx context.Context, coinID string) ([]MarketRecord, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("ids", coinID)

	records := make([]MarketRecord, 0)
	if err := c.getCoinGecko(ctx, "/coins/markets", params, &records); err != nil {
		return nil, err
	}

	log.Debug().
		Str("coin_id", coinID).
		Int("records", len(records)).
		Msg("Fetched market data")

	return records, nil
}

// FetchCoinList returns every coin CoinGecko supports
func (c *Client) FetchCoinList(ctx context.Context) ([]CoinListEntry, error) {
	coins := make([]CoinListEntry, 0)
	if err := c.getCoinGecko(ctx, "/coins/list", nil, &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

func (c *Client) getCoinGecko(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("coingecko rate limiter: %w", err)
		}
	}

	u := c.cfg.CoinGeckoURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	start := time.Now()
	err := c.getJSON(ctx, providerCoinGecko, endpoint, u, out)
	metrics.RecordOutboundCall(providerCoinGecko, endpoint, float64(time.Since(start).Milliseconds()), err)
	return err
}

// getJSON issues a single GET and decodes a 200 reply into out
func (c *Client) getJSON(ctx context.Context, provider, endpoint, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s request failed: %w", provider, endpoint, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("Failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		log.Warn().
			Str("provider", provider).
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Msg("Provider returned non-success status")
		return &StatusError{Provider: provider, Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", provider, endpoint, err)
	}
	return nil
}
