package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-safety-oracle/internal/chain"
	"token-safety-oracle/internal/payment"
	"token-safety-oracle/internal/service"
	"token-safety-oracle/internal/storage/memory"
)

const (
	solMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	evmAddr = "0x6B175474E89094C44Da98b954EedeAC495271d0F"
)

func newTestServer(t *testing.T, gate payment.Gate, opts ...Option) *httptest.Server {
	t.Helper()
	checker := service.NewChecker(chain.Default(), memory.NewResultCache())
	srv := NewServer(checker, gate, opts...)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func freeGate() payment.Gate {
	return payment.New(true, payment.DefaultPrice, payment.DefaultToken)
}

func postCheck(t *testing.T, ts *httptest.Server, body string, header http.Header) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/check", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func getJSON(t *testing.T, url string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

const safeEVMBody = `{
  "chain": "ethereum",
  "token_address": "0x6B175474E89094C44Da98b954EedeAC495271d0F",
  "metadata": {
    "holder_count": 500,
    "liquidity_usd": 50000,
    "age_minutes": 120,
    "is_verified": true,
    "has_mint_function": false,
    "owner_renounced": true,
    "name": "SafeToken"
  }
}`

func TestHealth(t *testing.T) {
	ts := newTestServer(t, freeGate())

	status, body := getJSON(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, ServiceName, body["service"])
	assert.Equal(t, ServiceVersion, body["version"])
	assert.Equal(t, true, body["free_mode"])
	assert.Equal(t, float64(5), body["supported_chains"])
	assert.Equal(t, []interface{}{"solana", "ethereum", "base", "arbitrum", "polygon"}, body["chain_ids"])
	assert.Equal(t, float64(0), body["cache_entries"])
}

func TestChains(t *testing.T) {
	ts := newTestServer(t, freeGate())

	status, body := getJSON(t, ts.URL+"/chains")
	assert.Equal(t, http.StatusOK, status)

	chains, ok := body["chains"].([]interface{})
	require.True(t, ok)
	require.Len(t, chains, 5)

	first := chains[0].(map[string]interface{})
	assert.Equal(t, "solana", first["key"])
	assert.Equal(t, "Solana", first["name"])
	assert.Equal(t, "solana-mainnet", first["chain_id"])

	base := chains[2].(map[string]interface{})
	assert.Equal(t, float64(8453), base["chain_id"])
}

func TestIndex(t *testing.T) {
	ts := newTestServer(t, payment.New(false, payment.DefaultPrice, "USDC"))

	status, body := getJSON(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["endpoints"], "/check")

	x402 := body["x402"].(map[string]interface{})
	assert.Equal(t, true, x402["enabled"])
	assert.Equal(t, 0.01, x402["price_per_check"])
	assert.Equal(t, "USDC", x402["payment_token"])
}

func TestCheck_SafeEVMToken(t *testing.T) {
	ts := newTestServer(t, freeGate())

	resp, body := postCheck(t, ts, safeEVMBody, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	assert.Equal(t, true, body["safe"])
	assert.Equal(t, float64(100), body["safety_score"])
	assert.Equal(t, float64(0), body["rug_pull_risk"])
	assert.Equal(t, false, body["is_honeypot"])
	assert.Equal(t, "SAFE - Low risk, recommended for trading", body["recommendation"])
	assert.Equal(t, "ethereum", body["chain"])
	assert.Equal(t, strings.ToLower(evmAddr), body["token_address"])
	assert.Equal(t, "metadata", body["data_source"])
	assert.Equal(t, false, body["cached"])
	assert.Greater(t, body["timestamp"], float64(0))

	checks := body["checks"].(map[string]interface{})
	for name, raw := range checks {
		check := raw.(map[string]interface{})
		assert.Equal(t, "PASS", check["status"], name)
	}
	assert.NotContains(t, checks, "volume_check")

	x402 := body["x402"].(map[string]interface{})
	assert.Equal(t, true, x402["free_mode"])
	assert.Equal(t, 0.01, x402["price"])

	_, again := postCheck(t, ts, safeEVMBody, nil)
	assert.Equal(t, true, again["cached"])
}

func TestCheck_Errors(t *testing.T) {
	ts := newTestServer(t, freeGate())

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"invalid json", `{"chain":`, http.StatusBadRequest, "Invalid JSON"},
		{"empty object", `{}`, http.StatusBadRequest, "Invalid JSON"},
		{"null body", `null`, http.StatusBadRequest, "Invalid JSON"},
		{"empty body", ``, http.StatusBadRequest, "Invalid JSON"},
		{"array body", `[{"chain":"solana"}]`, http.StatusBadRequest, "Invalid JSON"},
		{"missing address", `{"chain":"solana"}`, http.StatusBadRequest, "token_address is required"},
		{"unsupported chain", `{"chain":"bsc","token_address":"` + evmAddr + `"}`, http.StatusBadRequest, "Unsupported chain: bsc"},
		{"bad address", `{"chain":"solana","token_address":"not-a-mint"}`, http.StatusBadRequest, "invalid token address: not-a-mint"},
		{"bad metadata", `{"chain":"solana","token_address":"` + solMint + `","metadata":"oops"}`, http.StatusInternalServerError, "Safety check failed: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postCheck(t, ts, tt.body, nil)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.True(t, strings.HasPrefix(body["error"].(string), tt.wantError), "error %q", body["error"])
		})
	}
}

func TestCheck_UnsupportedChainListsKeys(t *testing.T) {
	ts := newTestServer(t, freeGate())

	_, body := postCheck(t, ts, `{"chain":"bsc","token_address":"`+evmAddr+`"}`, nil)
	assert.Equal(t, []interface{}{"solana", "ethereum", "base", "arbitrum", "polygon"}, body["supported_chains"])
}

func TestCheck_PaymentRequired(t *testing.T) {
	ts := newTestServer(t, payment.New(false, payment.DefaultPrice, "USDC"))

	resp, body := postCheck(t, ts, safeEVMBody, nil)
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, "Payment required", body["error"])
	assert.Equal(t, 0.01, body["price"])
	assert.Equal(t, "USDC", body["token"])

	resp, body = postCheck(t, ts, safeEVMBody, http.Header{"Authorization": {"Bearer proof-123"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	x402 := body["x402"].(map[string]interface{})
	assert.Equal(t, false, x402["free_mode"])
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, freeGate())

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/check", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://bot.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestMetricsEndpoint(t *testing.T) {
	enabled := newTestServer(t, freeGate(), WithMetrics(true))
	postCheck(t, enabled, safeEVMBody, nil)

	resp, err := http.Get(enabled.URL + "/metrics")
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, bytes.Contains(data, []byte("token_safety_oracle_check_total")))

	disabled := newTestServer(t, freeGate())
	resp, err = http.Get(disabled.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
