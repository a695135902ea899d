package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/degenbots/internal/metrics"
)

const binanceTickerEndpoint = "/api/v3/ticker/price"

// PriceRecord is the latest traded price of a symbol
type PriceRecord struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// statusKey carries a *statusHolder through the request context so the
// HTTP status survives go-binance's error translation
type statusKey struct{}

type statusHolder struct {
	code int
}

// statusRecorder stores the response status in the holder found on the
// request context
type statusRecorder struct {
	next http.RoundTripper
}

func (s *statusRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	next := s.next
	if next == nil {
		next = http.DefaultTransport
	}
	resp, err := next.RoundTrip(req)
	if err == nil {
		if h, ok := req.Context().Value(statusKey{}).(*statusHolder); ok {
			h.code = resp.StatusCode
		}
	}
	return resp, err
}

// FetchLatestPrice returns the latest Binance ticker price for symbol,
// e.g. "BTCUSDT". A non-200 reply yields a *StatusError.
func (c *Client) FetchLatestPrice(ctx context.Context, symbol string) (*PriceRecord, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	holder := &statusHolder{}
	ctx = context.WithValue(ctx, statusKey{}, holder)

	start := time.Now()
	prices, err := c.binance.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		err = c.translateBinanceError(holder.code, err)
	}
	metrics.RecordOutboundCall(providerBinance, binanceTickerEndpoint, float64(time.Since(start).Milliseconds()), err)
	if err != nil {
		return nil, err
	}

	for _, p := range prices {
		if p.Symbol != symbol {
			continue
		}
		price, err := strconv.ParseFloat(p.Price, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q for %s: %w", p.Price, symbol, err)
		}

		log.Debug().
			Str("symbol", symbol).
			Float64("price", price).
			Msg("Fetched latest price")

		return &PriceRecord{Symbol: symbol, Price: price}, nil
	}

	return nil, fmt.Errorf("binance returned no price for %s", symbol)
}

func (c *Client) translateBinanceError(status int, err error) error {
	if status != 0 && status != http.StatusOK {
		var apiErr *common.APIError
		if errors.As(err, &apiErr) {
			log.Warn().
				Int64("code", apiErr.Code).
				Str("message", apiErr.Message).
				Int("status", status).
				Msg("Binance API error")
		}
		return &StatusError{Provider: providerBinance, Endpoint: binanceTickerEndpoint, StatusCode: status}
	}
	return fmt.Errorf("binance %s request failed: %w", binanceTickerEndpoint, err)
}
