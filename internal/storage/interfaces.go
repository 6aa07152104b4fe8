package storage

import (
	"context"
	"time"

	"token-safety-oracle/internal/domain"
)

// ResultTTL is how long a computed result is served from cache.
const ResultTTL = 300 * time.Second

// ResultCache memoizes safety results per (chain, token address).
type ResultCache interface {
	// Lookup returns the cached result if it is younger than ResultTTL.
	// Stale entries are evicted by the lookup that finds them.
	Lookup(ctx context.Context, chain, address string) (domain.SafetyResult, bool)

	// Store saves a result, overwriting any entry for the same key.
	// Returns ErrInvalidInput if chain or address is empty.
	Store(ctx context.Context, chain, address string, result domain.SafetyResult) error

	// Len returns the number of entries held, stale ones included.
	Len() int
}
