// Package binance provides a small client for the public market data
// endpoints of the Binance REST API.
package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the production REST endpoint.
const DefaultBaseURL = "https://api.binance.com"

// ErrUpstream is returned when the exchange can't be reached or answers
// with something other than a success.
var ErrUpstream = errors.New("price feed unavailable")

// Intervals lists the candlestick intervals the proxy accepts.
var Intervals = map[string]string{
	"1m":  "1m",
	"5m":  "5m",
	"30m": "30m",
	"1h":  "1h",
	"4h":  "4h",
	"8h":  "8h",
	"1w":  "1w",
}

// DefaultInterval is used when an unknown timeframe is requested.
const DefaultInterval = "1h"

// Config represents the settings for the client.
type Config struct {
	BaseURL string
	Symbol  string
	Timeout time.Duration
}

// Client provides access to the market data endpoints.
type Client struct {
	baseURL string
	symbol  string
	http    *http.Client
}

// New constructs a client for the configured symbol.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Symbol == "" {
		cfg.Symbol = "BTCUSDT"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	return &Client{
		baseURL: cfg.BaseURL,
		symbol:  cfg.Symbol,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// Price returns the latest ticker price for the configured symbol.
func (c *Client) Price(ctx context.Context) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("symbol", c.symbol)

	data, err := c.get(ctx, "/api/v3/ticker/price", q)
	if err != nil {
		return decimal.Zero, err
	}

	var ticker struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.Unmarshal(data, &ticker); err != nil {
		return decimal.Zero, fmt.Errorf("%w: decoding ticker: %s", ErrUpstream, err)
	}

	price, err := decimal.NewFromString(ticker.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: parsing price %q: %s", ErrUpstream, ticker.Price, err)
	}

	return price, nil
}

// Klines returns the raw candlestick data for the timeframe. Unknown
// timeframes fall back to DefaultInterval.
func (c *Client) Klines(ctx context.Context, timeframe string, limit int) (json.RawMessage, error) {
	interval, exists := Intervals[timeframe]
	if !exists {
		interval = DefaultInterval
	}

	q := url.Values{}
	q.Set("symbol", c.symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))

	data, err := c.get(ctx, "/api/v3/klines", q)
	if err != nil {
		return nil, err
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: klines response is not json", ErrUpstream)
	}

	return json.RawMessage(data), nil
}

// =============================================================================

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	endpoint := c.baseURL + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %s", ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, data)
	}

	return data, nil
}
