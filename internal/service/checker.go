// Package service orchestrates a token safety check: validation, cache,
// parallel upstream fetches and scoring.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"token-safety-oracle/internal/chain"
	"token-safety-oracle/internal/domain"
	"token-safety-oracle/internal/observability"
	"token-safety-oracle/internal/provider"
	"token-safety-oracle/internal/safety"
	"token-safety-oracle/internal/storage"
)

// DefaultUpstreamTimeout bounds each upstream call.
const DefaultUpstreamTimeout = 5 * time.Second

// MintInspector resolves on-chain mint data for Solana tokens.
type MintInspector interface {
	Inspect(ctx context.Context, mint string) (*domain.ChainData, error)
}

// CheckRequest is one safety check request.
type CheckRequest struct {
	Chain        string          `json:"chain"`
	TokenAddress string          `json:"token_address"`
	PoolAddress  string          `json:"pool_address,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
}

// Report is a check result plus whether it came from the cache.
type Report struct {
	Result domain.SafetyResult
	Cached bool
}

// Checker runs safety checks. Safe for concurrent use.
type Checker struct {
	registry *chain.Registry
	cache    storage.ResultCache
	engine   *safety.Engine
	market   provider.MarketProvider
	security provider.SecurityProvider
	mints    MintInspector
	timeout  time.Duration
	logger   *log.Logger
	flights  singleflight.Group
}

// Option configures Checker.
type Option func(*Checker)

// WithMarketProvider sets the live market data source.
func WithMarketProvider(p provider.MarketProvider) Option {
	return func(c *Checker) {
		c.market = p
	}
}

// WithSecurityProvider sets the live security scan source.
func WithSecurityProvider(p provider.SecurityProvider) Option {
	return func(c *Checker) {
		c.security = p
	}
}

// WithMintInspector sets the Solana on-chain mint reader.
func WithMintInspector(m MintInspector) Option {
	return func(c *Checker) {
		c.mints = m
	}
}

// WithUpstreamTimeout sets the per-call upstream timeout.
func WithUpstreamTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithEngine sets the scoring engine.
func WithEngine(e *safety.Engine) Option {
	return func(c *Checker) {
		c.engine = e
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// NewChecker creates a checker. Without providers, checks score caller metadata only.
func NewChecker(registry *chain.Registry, cache storage.ResultCache, opts ...Option) *Checker {
	c := &Checker{
		registry: registry,
		cache:    cache,
		engine:   safety.NewEngine(),
		timeout:  DefaultUpstreamTimeout,
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chains returns the supported chain listing.
func (c *Checker) Chains() []chain.Info {
	return c.registry.List()
}

// CacheLen returns the number of cached results.
func (c *Checker) CacheLen() int {
	return c.cache.Len()
}

// Check validates the request and returns a cached or freshly computed result.
func (c *Checker) Check(ctx context.Context, req CheckRequest) (Report, error) {
	start := time.Now()

	address := strings.TrimSpace(req.TokenAddress)
	if address == "" {
		observability.RecordCheckFailure("validation")
		return Report{}, &ValidationError{Err: ErrMissingAddress}
	}

	desc, ok := c.registry.Lookup(req.Chain)
	if !ok {
		observability.RecordCheckFailure("validation")
		return Report{}, &ValidationError{Err: ErrUnsupportedChain, Value: req.Chain, Supported: c.registry.Keys()}
	}

	if err := validateAddress(desc, address); err != nil {
		observability.RecordCheckFailure("validation")
		return Report{}, err
	}
	address = canonicalAddress(desc, address)

	// Parsed ahead of the cache so a malformed request fails the same way
	// whether or not the token is cached.
	metadata, err := domain.ParseMetadata(req.Metadata)
	if err != nil {
		observability.RecordCheckFailure("internal")
		return Report{}, fmt.Errorf("%w: %v", ErrCheckFailed, err)
	}

	if cached, ok := c.cache.Lookup(ctx, desc.Key, address); ok {
		observability.RecordCacheLookup(true)
		c.record(cached, true, start)
		return Report{Result: cached, Cached: true}, nil
	}
	observability.RecordCacheLookup(false)

	// Concurrent misses for one key share a computation. The shared work must
	// not die with whichever caller started it.
	key := desc.Key + "/" + address
	v, err, _ := c.flights.Do(key, func() (interface{}, error) {
		return c.compute(context.WithoutCancel(ctx), desc, address, req.PoolAddress, metadata)
	})
	if err != nil {
		observability.RecordCheckFailure("internal")
		return Report{}, err
	}

	result := v.(domain.SafetyResult).Clone()
	c.record(result, false, start)
	return Report{Result: result}, nil
}

// compute fetches every live source in parallel, scores and caches the result.
func (c *Checker) compute(ctx context.Context, desc chain.Descriptor, address, poolHint string, metadata domain.Metadata) (domain.SafetyResult, error) {
	src := c.fetchSources(ctx, desc, address, poolHint)
	src.Metadata = metadata

	result := c.engine.Evaluate(desc, address, src)

	if err := c.cache.Store(ctx, desc.Key, address, result); err != nil {
		return domain.SafetyResult{}, fmt.Errorf("%w: store result: %v", ErrCheckFailed, err)
	}
	observability.UpdateCacheEntries(c.cache.Len())

	c.logger.Printf("%s %s: score=%d risk=%d honeypot=%v source=%s",
		desc.Key, address, result.SafetyScore, result.RugPullRisk, result.IsHoneypot, result.Provenance)
	return result, nil
}

// fetchSources runs all upstream calls concurrently, each under its own timeout.
// A failed source is left nil.
func (c *Checker) fetchSources(ctx context.Context, desc chain.Descriptor, address, poolHint string) safety.Sources {
	var (
		src safety.Sources
		g   errgroup.Group
	)

	if c.market != nil {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			src.Market = c.market.FetchMarket(callCtx, desc, address, poolHint)
			return nil
		})
	}

	if c.security != nil {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			src.Security = c.security.FetchSecurity(callCtx, desc, address)
			return nil
		})
	}

	if c.mints != nil && desc.Family == chain.FamilySolana {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			data, err := c.mints.Inspect(callCtx, address)
			if err != nil {
				c.logger.Printf("mint inspection failed for %s: %v", address, err)
				return nil
			}
			src.Chain = data
			return nil
		})
	}

	g.Wait()
	return src
}

func (c *Checker) record(r domain.SafetyResult, cached bool, start time.Time) {
	observability.RecordCheck(r.Chain, r.Tier, cached, r.IsHoneypot, r.SafetyScore, time.Since(start).Seconds())
}
