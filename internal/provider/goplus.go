package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"token-safety-oracle/internal/chain"
	"token-safety-oracle/internal/domain"
)

// DefaultGoPlusURL is the public GoPlus Security API.
const DefaultGoPlusURL = "https://api.gopluslabs.io"

// goPlusOK is the success code of a GoPlus envelope.
const goPlusOK = 1

// GoPlus implements SecurityProvider.
type GoPlus struct {
	httpClient
}

// NewGoPlus creates a GoPlus client. An empty baseURL uses the public API.
func NewGoPlus(baseURL string, opts ...Option) *GoPlus {
	if baseURL == "" {
		baseURL = DefaultGoPlusURL
	}
	return &GoPlus{httpClient: newHTTPClient("goplus", strings.TrimRight(baseURL, "/"), opts)}
}

// goPlusEnvelope wraps every GoPlus response. Result is keyed by token address.
type goPlusEnvelope[T any] struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Result  map[string]T `json:"result"`
}

// evmSecurity holds the EVM token_security fields we read. GoPlus encodes
// flags as "0"/"1" strings and taxes as fractional strings.
type evmSecurity struct {
	IsHoneypot   string  `json:"is_honeypot"`
	BuyTax       string  `json:"buy_tax"`
	SellTax      string  `json:"sell_tax"`
	IsMintable   string  `json:"is_mintable"`
	IsOpenSource string  `json:"is_open_source"`
	OwnerAddress *string `json:"owner_address"` // empty when renounced
	HolderCount  string  `json:"holder_count"`
	TokenName    string  `json:"token_name"`
}

type solanaSecurity struct {
	Mintable struct {
		Status string `json:"status"`
	} `json:"mintable"`
	HolderCount string `json:"holder_count"`
	Metadata    struct {
		Name string `json:"name"`
	} `json:"metadata"`
}

// FetchSecurity returns the security scan for a token on any supported chain.
func (g *GoPlus) FetchSecurity(ctx context.Context, d chain.Descriptor, address string) *domain.SecurityData {
	if d.IsEVM() {
		return g.fetchEVM(ctx, d, address)
	}
	return g.fetchSolana(ctx, d, address)
}

func (g *GoPlus) fetchEVM(ctx context.Context, d chain.Descriptor, address string) *domain.SecurityData {
	endpoint := fmt.Sprintf("%s/api/v1/token_security/%s?contract_addresses=%s",
		g.baseURL, url.PathEscape(d.SecurityID), url.QueryEscape(address))

	var env goPlusEnvelope[evmSecurity]
	entry, ok := lookupEntry(ctx, g, endpoint, d, address, &env)
	if !ok {
		return nil
	}

	return &domain.SecurityData{
		Honeypot:     honeypotState(entry.IsHoneypot),
		BuyTaxPct:    parsePercent(entry.BuyTax),
		SellTaxPct:   parsePercent(entry.SellTax),
		IsMintable:   parseFlag(entry.IsMintable),
		IsOpenSource: parseFlag(entry.IsOpenSource),
		OwnerAddress: entry.OwnerAddress,
		HolderCount:  parseCount(entry.HolderCount),
		TokenName:    nonEmpty(entry.TokenName),
	}
}

func (g *GoPlus) fetchSolana(ctx context.Context, d chain.Descriptor, address string) *domain.SecurityData {
	endpoint := fmt.Sprintf("%s/api/v1/solana/token_security?contract_addresses=%s",
		g.baseURL, url.QueryEscape(address))

	var env goPlusEnvelope[solanaSecurity]
	entry, ok := lookupEntry(ctx, g, endpoint, d, address, &env)
	if !ok {
		return nil
	}

	return &domain.SecurityData{
		Honeypot:    domain.HoneypotUnknown,
		IsMintable:  parseFlag(entry.Mintable.Status),
		HolderCount: parseCount(entry.HolderCount),
		TokenName:   nonEmpty(entry.Metadata.Name),
	}
}

// lookupEntry fetches an envelope and returns the entry for address.
// EVM result keys are lower-case hex, so keys are matched case-insensitively.
func lookupEntry[T any](ctx context.Context, g *GoPlus, endpoint string, d chain.Descriptor, address string, env *goPlusEnvelope[T]) (T, bool) {
	var zero T
	if err := g.getJSON(ctx, endpoint, env); err != nil {
		g.logger.Printf("security scan unavailable for %s/%s: %v", d.Key, address, err)
		return zero, false
	}
	if env.Code != goPlusOK {
		g.logger.Printf("security scan rejected for %s/%s: code=%d %s", d.Key, address, env.Code, env.Message)
		return zero, false
	}
	if entry, ok := env.Result[address]; ok {
		return entry, true
	}
	for key, entry := range env.Result {
		if strings.EqualFold(key, address) {
			return entry, true
		}
	}
	return zero, false
}

func honeypotState(flag string) domain.HoneypotState {
	switch flag {
	case "1":
		return domain.HoneypotConfirmed
	case "0":
		return domain.HoneypotNotConfirmed
	default:
		return domain.HoneypotUnknown
	}
}

func parseFlag(s string) *bool {
	switch s {
	case "1":
		v := true
		return &v
	case "0":
		v := false
		return &v
	default:
		return nil
	}
}

// parsePercent converts a GoPlus fraction ("0.05") into percent (5).
func parsePercent(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	pct := f * 100
	return &pct
}

func parseCount(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func nonEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

var _ SecurityProvider = (*GoPlus)(nil)
