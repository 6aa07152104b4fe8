package api

import (
	"encoding/json"
	"net/http"
	"time"

	"token-safety-oracle/internal/chain"
	"token-safety-oracle/internal/domain"
	"token-safety-oracle/internal/payment"
	"token-safety-oracle/internal/service"
)

// CheckOutcome is the wire form of one rule verdict.
type CheckOutcome struct {
	Status domain.CheckStatus `json:"status"`
	Detail string             `json:"detail,omitempty"`
	Value  interface{}        `json:"value"`
}

// CheckResponse is the body of a successful /check call.
type CheckResponse struct {
	Safe           bool                    `json:"safe"`
	SafetyScore    int                     `json:"safety_score"`
	RugPullRisk    int                     `json:"rug_pull_risk"`
	IsHoneypot     bool                    `json:"is_honeypot"`
	Recommendation string                  `json:"recommendation"`
	Checks         map[string]CheckOutcome `json:"checks"`
	Chain          string                  `json:"chain"`
	TokenAddress   string                  `json:"token_address"`
	DataSource     domain.Provenance       `json:"data_source"`
	Cached         bool                    `json:"cached"`
	Timestamp      float64                 `json:"timestamp"` // unix seconds of computation
	X402           payment.Terms           `json:"x402"`
}

// NewCheckResponse builds the wire form of a check report.
func NewCheckResponse(report service.Report, terms payment.Terms) CheckResponse {
	r := report.Result
	checks := make(map[string]CheckOutcome, len(r.Checks))
	for name, c := range r.Checks {
		checks[name] = CheckOutcome{Status: c.Status, Detail: c.Detail, Value: c.Value}
	}
	return CheckResponse{
		Safe:           r.Safe,
		SafetyScore:    r.SafetyScore,
		RugPullRisk:    r.RugPullRisk,
		IsHoneypot:     r.IsHoneypot,
		Recommendation: r.Recommendation,
		Checks:         checks,
		Chain:          r.Chain,
		TokenAddress:   r.TokenAddress,
		DataSource:     r.Provenance,
		Cached:         report.Cached,
		Timestamp:      unixSeconds(r.CreatedAt),
		X402:           terms,
	}
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error           string      `json:"error"`
	Message         string      `json:"message,omitempty"`
	SupportedChains []string    `json:"supported_chains,omitempty"`
	Price           json.Number `json:"price,omitempty"`
	Token           string      `json:"token,omitempty"`
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status          string   `json:"status"`
	Service         string   `json:"service"`
	Version         string   `json:"version"`
	FreeMode        bool     `json:"free_mode"`
	SupportedChains int      `json:"supported_chains"`
	ChainIDs        []string `json:"chain_ids"`
	CacheEntries    int      `json:"cache_entries"`
}

// ChainsResponse is the body of /chains.
type ChainsResponse struct {
	Chains []chain.Info `json:"chains"`
}

// IndexResponse documents the API.
type IndexResponse struct {
	Service         string            `json:"service"`
	Version         string            `json:"version"`
	Description     string            `json:"description"`
	Endpoints       map[string]string `json:"endpoints"`
	SupportedChains []string          `json:"supported_chains"`
	X402            IndexX402         `json:"x402"`
}

// IndexX402 is the payment block of the index page.
type IndexX402 struct {
	Enabled       bool        `json:"enabled"`
	PricePerCheck json.Number `json:"price_per_check"`
	PaymentToken  string      `json:"payment_token"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
