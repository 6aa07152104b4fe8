package safety

import (
	"time"

	"token-safety-oracle/internal/chain"
	"token-safety-oracle/internal/domain"
)

// Engine scores tokens. It holds no per-request state and is safe for concurrent use.
type Engine struct {
	now func() time.Time
}

// EngineOption configures Engine.
type EngineOption func(*Engine)

// WithClock sets the time source used for result timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a new scoring engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs normalize → rules → verdict for one token.
func (e *Engine) Evaluate(d chain.Descriptor, tokenAddress string, src Sources) domain.SafetyResult {
	sig := Normalize(src)
	tally := RunRules(sig, d.Family)
	return Synthesize(tally, sig, Subject{
		Chain:        d.Key,
		TokenAddress: tokenAddress,
		CreatedAt:    e.now(),
	})
}
