// Package provider implements the live upstream data sources: a market data
// aggregator (DexScreener) and a security scanner (GoPlus).
//
// Providers never fail a check. Any transport error, timeout, non-200 status
// or unusable payload is logged and reported as an absent (nil) payload.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"token-safety-oracle/internal/chain"
	"token-safety-oracle/internal/domain"
	"token-safety-oracle/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout      = 5 * time.Second
	DefaultMaxBodyBytes = 4 << 20
)

// ErrUnexpectedStatus is returned for non-200 upstream responses.
var ErrUnexpectedStatus = errors.New("unexpected status")

// MarketProvider fetches live market data for a token.
type MarketProvider interface {
	// FetchMarket returns nil when no usable pair is found.
	// poolHint, when non-empty, selects a specific pair address.
	FetchMarket(ctx context.Context, d chain.Descriptor, address, poolHint string) *domain.MarketData
}

// SecurityProvider fetches a live security scan for a token.
type SecurityProvider interface {
	// FetchSecurity returns nil when the scan is unavailable.
	FetchSecurity(ctx context.Context, d chain.Descriptor, address string) *domain.SecurityData
}

// httpClient is the plumbing shared by all providers.
type httpClient struct {
	name    string
	baseURL string
	client  *http.Client
	logger  *log.Logger
	now     func() time.Time
}

// Option configures a provider client.
type Option func(*httpClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *httpClient) {
		c.client = client
	}
}

// WithLogger sets the logger used for upstream failures.
func WithLogger(logger *log.Logger) Option {
	return func(c *httpClient) {
		c.logger = logger
	}
}

// WithClock sets the time source used to compute ages.
func WithClock(now func() time.Time) Option {
	return func(c *httpClient) {
		c.now = now
	}
}

func newHTTPClient(name, baseURL string, opts []Option) httpClient {
	c := httpClient{
		name:    name,
		baseURL: baseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
		logger:  log.New(io.Discard, "", 0),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// getJSON performs a GET request and decodes a JSON body into out.
func (c *httpClient) getJSON(ctx context.Context, url string, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		observability.RecordUpstream(c.name, err, time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, DefaultMaxBodyBytes))
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, DefaultMaxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
