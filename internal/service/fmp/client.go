// Package fmp is the client for the Financial Modeling Prep REST API, the
// upstream source for intraday bars and treasury rates.
package fmp

import (
	"context"
	"fmt"
	"time"

	"MarketPulse/internal/ingest"
	"MarketPulse/internal/service/ratelimit"
	xhttp "MarketPulse/pkg/http"
	applogger "MarketPulse/pkg/logger"
)

const defaultBaseURL = "https://financialmodelingprep.com/stable"

// Client fetches market data over the stable REST endpoints. Calls go
// through a per-host token bucket so scheduled extraction stays inside the
// plan's request quota.
type Client struct {
	apiKey    string
	baseURL   string
	rateLimit float64

	http    *xhttp.Client
	limiter *ratelimit.Limiter
	l       *applogger.Logger
}

// Option configures Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithRateLimit sets the allowed requests per second.
func WithRateLimit(perSec float64) Option {
	return func(c *Client) { c.rateLimit = perSec }
}

// WithLogger injects a structured logger.
func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) { c.l = l }
}

// New creates a new FMP client.
func New(apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		apiKey:    apiKey,
		baseURL:   defaultBaseURL,
		rateLimit: 5,
		http:      xhttp.NewClient(xhttp.WithTimeout(timeout)),
		limiter:   ratelimit.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IntradayBars fetches the historical chart for one symbol at the given
// resolution ("5min" or "15min") over [from, to]. Rows come back raw; the
// caller parses and validates them.
func (c *Client) IntradayBars(ctx context.Context, interval, symbol string, from, to time.Time) ([]ingest.RawBar, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	var rows []ingest.RawBar
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/historical-chart/%s", c.baseURL, interval),
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"from":   {from.Format("2006-01-02")},
			"to":     {to.Format("2006-01-02")},
			"apikey": {c.apiKey},
		},
	}, &rows)
	if err != nil {
		if c.l != nil {
			c.l.Error("fmp intraday fetch failed",
				applogger.String("symbol", symbol),
				applogger.String("interval", interval),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("fetch %s %s: %w", interval, symbol, err)
	}
	if c.l != nil {
		c.l.Debug("fmp intraday fetch ok",
			applogger.String("symbol", symbol),
			applogger.String("interval", interval),
			applogger.Int("rows", len(rows)),
		)
	}
	return rows, nil
}

// TreasuryRates fetches the treasury rate ladder over [from, to], newest
// first as the API returns it.
func (c *Client) TreasuryRates(ctx context.Context, from, to time.Time) ([]ingest.RawTreasury, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	var rows []ingest.RawTreasury
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/treasury", c.baseURL),
		QueryParams: map[string][]string{
			"from":   {from.Format("2006-01-02")},
			"to":     {to.Format("2006-01-02")},
			"apikey": {c.apiKey},
		},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("fetch treasury rates: %w", err)
	}
	return rows, nil
}

// wait blocks until a request token is available or the context ends.
func (c *Client) wait(ctx context.Context) error {
	for !c.limiter.Allow("fmp", c.rateLimit, c.rateLimit) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil
}
