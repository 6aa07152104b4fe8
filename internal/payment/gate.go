// Package payment implements the x402 micropayment gate in front of /check.
package payment

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Defaults for the advertised price.
var (
	DefaultPrice = decimal.RequireFromString("0.01")
	DefaultToken = "USDC"
)

const bearerPrefix = "Bearer "

// Terms are the payment conditions advertised to callers.
type Terms struct {
	Price    decimal.Decimal
	Token    string
	FreeMode bool
}

// MarshalJSON encodes the price as a JSON number.
func (t Terms) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Price    json.Number `json:"price"`
		Token    string      `json:"token"`
		FreeMode bool        `json:"free_mode"`
	}{
		Price:    json.Number(t.Price.String()),
		Token:    t.Token,
		FreeMode: t.FreeMode,
	})
}

// Gate decides whether a request may be served.
type Gate interface {
	// Authorize checks the raw Authorization header value.
	Authorize(proof string) bool
	// Terms returns the advertised payment terms.
	Terms() Terms
}

// New returns a FreeGate in free mode, otherwise a BearerGate.
func New(freeMode bool, price decimal.Decimal, token string) Gate {
	if freeMode {
		return NewFreeGate(price, token)
	}
	return NewBearerGate(price, token)
}

// FreeGate authorizes every request.
type FreeGate struct {
	terms Terms
}

// NewFreeGate creates a gate that never asks for payment.
func NewFreeGate(price decimal.Decimal, token string) *FreeGate {
	return &FreeGate{terms: Terms{Price: price, Token: token, FreeMode: true}}
}

func (g *FreeGate) Authorize(string) bool { return true }

func (g *FreeGate) Terms() Terms { return g.terms }

// BearerGate requires an "Authorization: Bearer <proof>" header.
// The proof itself is not settled on-chain.
type BearerGate struct {
	terms Terms
}

// NewBearerGate creates a gate that requires a bearer proof.
func NewBearerGate(price decimal.Decimal, token string) *BearerGate {
	return &BearerGate{terms: Terms{Price: price, Token: token}}
}

func (g *BearerGate) Authorize(proof string) bool {
	if !strings.HasPrefix(proof, bearerPrefix) {
		return false
	}
	return strings.TrimSpace(proof[len(bearerPrefix):]) != ""
}

func (g *BearerGate) Terms() Terms { return g.terms }

var (
	_ Gate = (*FreeGate)(nil)
	_ Gate = (*BearerGate)(nil)
)
