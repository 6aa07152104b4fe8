package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Metadata is the caller-supplied signal set. Absent fields are nil.
type Metadata struct {
	HolderCount    *float64 `json:"holder_count"`
	LiquidityUSD   *float64 `json:"liquidity_usd"`
	AgeMinutes     *float64 `json:"age_minutes"`
	Volume24h      *float64 `json:"volume_24h"`
	Name           *string  `json:"name"`
	IsVerified     *bool    `json:"is_verified"`
	HasMint        *bool    `json:"has_mint_function"`
	HasBurn        *bool    `json:"has_burn_function"`
	OwnerRenounced *bool    `json:"owner_renounced"`
	BuyTax         *float64 `json:"buy_tax"`
	SellTax        *float64 `json:"sell_tax"`
}

// ParseMetadata decodes an untyped caller metadata object.
// Empty input and JSON null yield empty metadata.
func ParseMetadata(raw json.RawMessage) (Metadata, error) {
	var m Metadata
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return m, nil
	}
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return Metadata{}, fmt.Errorf("decode metadata: %w", err)
	}
	return m, nil
}

// MarketData is the live payload from the market data provider.
// Nil fields were not reported by the selected pair.
type MarketData struct {
	LiquidityUSD   *float64 // pair liquidity in USD (nullable)
	AgeMinutes     *float64 // minutes since pair creation (nullable)
	Volume24h      *float64 // 24h volume in USD (nullable)
	PriceUSD       *float64 // last price in USD (nullable)
	PriceChange24h *float64 // 24h price change percent (nullable)
	Txns24h        int      // buys + sells over 24h
	Dex            string   // dex identifier
	PairAddress    string   // selected pair
}

// SecurityData is the live payload from the security provider.
// Nil fields were not reported.
type SecurityData struct {
	Honeypot     HoneypotState
	BuyTaxPct    *float64 // percent, 0-100
	SellTaxPct   *float64 // percent, 0-100
	IsMintable   *bool
	IsOpenSource *bool // verified source code
	OwnerAddress *string
	HolderCount  *int
	TokenName    *string
}

// ChainData is what an on-chain mint inspection could resolve.
type ChainData struct {
	Name            *string // Metaplex name (nullable)
	Symbol          *string // Metaplex symbol (nullable)
	MintAuthority   bool    // mint authority still set
	FreezeAuthority bool    // freeze authority still set
	Decimals        int     // token decimals
	Supply          float64 // supply adjusted for decimals
}
