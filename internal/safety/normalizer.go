// Package safety implements the token safety-scoring engine: signal
// normalization, the ordered rule checklist and the final verdict.
package safety

import (
	"math"
	"strings"

	"token-safety-oracle/internal/domain"
)

// Sources bundles every signal source available for one token.
// Nil payloads are absent (not fetched, failed or timed out).
type Sources struct {
	Metadata domain.Metadata
	Chain    *domain.ChainData
	Market   *domain.MarketData
	Security *domain.SecurityData
}

// Owner addresses that mean ownership was given up.
var renouncedOwners = map[string]bool{
	"":   true,
	"0x": true,
	"0x0000000000000000000000000000000000000000": true,
	"0x000000000000000000000000000000000000dead": true,
}

// Normalize merges all sources into one TokenSignals.
// Precedence, lowest first: caller metadata, on-chain mint data, live market
// data, live security data. A source only overrides fields it carries.
func Normalize(src Sources) domain.TokenSignals {
	sig := domain.TokenSignals{
		Honeypot:   domain.HoneypotUnknown,
		Provenance: domain.ProvenanceMetadata,
	}

	// 1. Caller metadata
	m := src.Metadata
	if m.HolderCount != nil {
		sig.HolderCount = nonNegativeInt(*m.HolderCount)
		sig.HolderCountSet = true
	}
	if m.LiquidityUSD != nil {
		sig.LiquidityUSD = nonNegative(*m.LiquidityUSD)
	}
	if m.AgeMinutes != nil {
		sig.AgeMinutes = nonNegative(*m.AgeMinutes)
	}
	if m.Volume24h != nil {
		v := nonNegative(*m.Volume24h)
		sig.Volume24h = &v
	}
	if m.Name != nil {
		sig.Name = *m.Name
	}
	if m.IsVerified != nil {
		sig.Verified = *m.IsVerified
	}
	if m.HasMint != nil {
		sig.Mintable = *m.HasMint
	}
	if m.OwnerRenounced != nil {
		sig.OwnerRenounced = *m.OwnerRenounced
	}
	if m.BuyTax != nil {
		sig.BuyTaxPct = nonNegative(*m.BuyTax)
	}
	if m.SellTax != nil {
		sig.SellTaxPct = nonNegative(*m.SellTax)
	}

	// 2. On-chain mint account
	if c := src.Chain; c != nil {
		if c.Name != nil && strings.TrimSpace(*c.Name) != "" {
			sig.Name = *c.Name
		}
		sig.Mintable = c.MintAuthority
		sig.OwnerRenounced = !c.MintAuthority
	}

	// 3. Live market data
	if mk := src.Market; mk != nil {
		if mk.LiquidityUSD != nil {
			sig.LiquidityUSD = nonNegative(*mk.LiquidityUSD)
		}
		if mk.AgeMinutes != nil {
			sig.AgeMinutes = nonNegative(*mk.AgeMinutes)
		}
		if mk.Volume24h != nil {
			v := nonNegative(*mk.Volume24h)
			sig.Volume24h = &v
		}
		sig.Provenance = domain.ProvenanceLive
	}

	// 4. Live security data
	if s := src.Security; s != nil {
		sig.HasSecurityData = true
		sig.Honeypot = s.Honeypot
		if s.HolderCount != nil {
			sig.HolderCount = max(*s.HolderCount, 0)
			sig.HolderCountSet = true
		}
		if s.TokenName != nil && strings.TrimSpace(*s.TokenName) != "" {
			sig.Name = *s.TokenName
		}
		if s.BuyTaxPct != nil {
			sig.BuyTaxPct = nonNegative(*s.BuyTaxPct)
		}
		if s.SellTaxPct != nil {
			sig.SellTaxPct = nonNegative(*s.SellTaxPct)
		}
		if s.IsMintable != nil {
			sig.Mintable = *s.IsMintable
		}
		if s.IsOpenSource != nil {
			sig.Verified = *s.IsOpenSource
		}
		if s.OwnerAddress != nil {
			sig.OwnerRenounced = IsRenouncedOwner(*s.OwnerAddress)
		}
	}

	sig.Name = strings.ToLower(strings.TrimSpace(sig.Name))
	return sig
}

// IsRenouncedOwner reports whether an owner address means no owner.
func IsRenouncedOwner(owner string) bool {
	return renouncedOwners[strings.ToLower(strings.TrimSpace(owner))]
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

func nonNegativeInt(v float64) int {
	v = nonNegative(v)
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}
