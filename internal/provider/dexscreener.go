package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"token-safety-oracle/internal/chain"
	"token-safety-oracle/internal/domain"
)

// DefaultDexScreenerURL is the public DexScreener API.
const DefaultDexScreenerURL = "https://api.dexscreener.com"

// DexScreener implements MarketProvider.
type DexScreener struct {
	httpClient
}

// NewDexScreener creates a DexScreener client. An empty baseURL uses the public API.
func NewDexScreener(baseURL string, opts ...Option) *DexScreener {
	if baseURL == "" {
		baseURL = DefaultDexScreenerURL
	}
	return &DexScreener{httpClient: newHTTPClient("dexscreener", strings.TrimRight(baseURL, "/"), opts)}
}

type dexTokensResponse struct {
	Pairs []dexPair `json:"pairs"`
}

type dexPair struct {
	ChainID     string `json:"chainId"`
	DexID       string `json:"dexId"`
	PairAddress string `json:"pairAddress"`
	PriceUSD    string `json:"priceUsd"`
	Txns        struct {
		H24 struct {
			Buys  int `json:"buys"`
			Sells int `json:"sells"`
		} `json:"h24"`
	} `json:"txns"`
	Volume struct {
		H24 *float64 `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		H24 *float64 `json:"h24"`
	} `json:"priceChange"`
	Liquidity *struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	PairCreatedAt int64 `json:"pairCreatedAt"` // unix ms
}

func (p dexPair) liquidityUSD() float64 {
	if p.Liquidity == nil {
		return 0
	}
	return p.Liquidity.USD
}

// FetchMarket returns the deepest pair on the chain, or the pair matching poolHint.
func (d *DexScreener) FetchMarket(ctx context.Context, desc chain.Descriptor, address, poolHint string) *domain.MarketData {
	endpoint := fmt.Sprintf("%s/latest/dex/tokens/%s", d.baseURL, url.PathEscape(address))

	var resp dexTokensResponse
	if err := d.getJSON(ctx, endpoint, &resp); err != nil {
		d.logger.Printf("market data unavailable for %s/%s: %v", desc.Key, address, err)
		return nil
	}

	pair, ok := selectPair(resp.Pairs, desc.MarketID, poolHint)
	if !ok {
		return nil
	}
	return d.toMarketData(pair)
}

// selectPair filters pairs to one chain and picks the hinted pair if present,
// otherwise the one with the highest liquidity. Ties keep the first pair.
func selectPair(pairs []dexPair, marketID, poolHint string) (dexPair, bool) {
	var (
		best  dexPair
		found bool
	)
	for _, p := range pairs {
		if !strings.EqualFold(p.ChainID, marketID) {
			continue
		}
		if poolHint != "" && strings.EqualFold(p.PairAddress, poolHint) {
			return p, true
		}
		if !found || p.liquidityUSD() > best.liquidityUSD() {
			best = p
			found = true
		}
	}
	return best, found
}

func (d *DexScreener) toMarketData(p dexPair) *domain.MarketData {
	md := &domain.MarketData{
		Volume24h:      p.Volume.H24,
		PriceChange24h: p.PriceChange.H24,
		Txns24h:        p.Txns.H24.Buys + p.Txns.H24.Sells,
		Dex:            p.DexID,
		PairAddress:    p.PairAddress,
	}

	if p.Liquidity != nil {
		liquidity := p.Liquidity.USD
		md.LiquidityUSD = &liquidity
	}
	if price, err := strconv.ParseFloat(p.PriceUSD, 64); err == nil {
		md.PriceUSD = &price
	}

	// Unknown creation time leaves the age unset. Clock skew clamps to zero.
	if p.PairCreatedAt > 0 {
		age := max(d.now().Sub(time.UnixMilli(p.PairCreatedAt)).Minutes(), 0)
		md.AgeMinutes = &age
	}
	return md
}

var _ MarketProvider = (*DexScreener)(nil)
