package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"token-safety-oracle/internal/observability"
)

// Default configuration values. A check waits on this client inline, so the
// budget is a single quick retry rather than a patient backoff.
const (
	DefaultTimeout     = 5 * time.Second
	DefaultMaxRetries  = 1
	DefaultRetryDelay  = 250 * time.Millisecond
	DefaultMaxDelay    = 2 * time.Second
	DefaultBackoffMult = 2.0
	DefaultCommitment  = "confirmed"
)

// maxResponseBytes caps one RPC response. Mint and metadata accounts are
// well under a kilobyte.
const maxResponseBytes = 1 << 20

// codeNodeUnhealthy is returned by a node lagging behind the cluster.
const codeNodeUnhealthy = -32005

var (
	// ErrRateLimited is returned when the node keeps answering 429.
	ErrRateLimited = errors.New("rpc rate limited")
	// ErrRPCStatus is returned for a non-200 HTTP status.
	ErrRPCStatus = errors.New("rpc unexpected status")
)

// HTTPClient implements AccountReader over HTTP JSON-RPC 2.0.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	commitment  string
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	requestID   atomic.Uint64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithCommitment sets the commitment level for account reads.
func WithCommitment(level string) ClientOption {
	return func(c *HTTPClient) {
		c.commitment = level
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a Solana RPC client for account reads.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		commitment:  DefaultCommitment,
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type rpcResponse struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// attemptError is a failed attempt plus whether another one may help.
type attemptError struct {
	err        error
	retryable  bool
	retryAfter time.Duration // server hint, zero if none
}

// call performs one JSON-RPC call. Only transient failures are retried, and
// never once the caller's context is done or its deadline would pass during
// the backoff.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) (err error) {
	start := time.Now()
	defer func() {
		observability.RecordUpstream("solana_rpc", err, time.Since(start).Seconds())
	}()

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	for attempt := 0; ; attempt++ {
		raw, aerr := c.attempt(ctx, body)
		if aerr == nil {
			if result != nil && raw != nil {
				if err := json.Unmarshal(raw, result); err != nil {
					return fmt.Errorf("unmarshal result: %w", err)
				}
			}
			return nil
		}

		if !aerr.retryable || attempt >= c.maxRetries {
			if aerr.retryable {
				return fmt.Errorf("%s failed after %d attempts: %w", method, attempt+1, aerr.err)
			}
			return aerr.err
		}

		wait := min(max(delay, aerr.retryAfter), c.maxDelay)
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < wait {
			return fmt.Errorf("%s: no time left to retry: %w", method, aerr.err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		delay = min(time.Duration(float64(delay)*c.backoffMult), c.maxDelay)
	}
}

// attempt sends one request and classifies the outcome.
func (c *HTTPClient) attempt(ctx context.Context, body []byte) (json.RawMessage, *attemptError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &attemptError{err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &attemptError{err: ctxErr}
		}
		return nil, &attemptError{err: fmt.Errorf("http request: %w", err), retryable: true}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &attemptError{
			err:        ErrRateLimited,
			retryable:  true,
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, &attemptError{err: fmt.Errorf("%w: %d", ErrRPCStatus, resp.StatusCode), retryable: true}
	case resp.StatusCode != http.StatusOK:
		return nil, &attemptError{err: fmt.Errorf("%w: %d", ErrRPCStatus, resp.StatusCode)}
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&rpcResp); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &attemptError{err: ctxErr}
		}
		return nil, &attemptError{err: fmt.Errorf("decode response: %w", err)}
	}
	if rpcResp.Error != nil {
		return nil, &attemptError{err: rpcResp.Error, retryable: rpcResp.Error.Code == codeNodeUnhealthy}
	}
	return rpcResp.Result, nil
}

// parseRetryAfter reads a delay-seconds Retry-After value.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// GetAccountInfo retrieves account info by public key.
// Returns nil if account not found.
func (c *HTTPClient) GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error) {
	params := []interface{}{
		pubkey,
		map[string]interface{}{
			"encoding":   "base64",
			"commitment": c.commitment,
		},
	}

	var result getAccountInfoResult
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return nil, err
	}
	if result.Value == nil {
		return nil, nil
	}

	info := &AccountInfo{
		Lamports:   result.Value.Lamports,
		Owner:      result.Value.Owner,
		Executable: result.Value.Executable,
		RentEpoch:  result.Value.RentEpoch,
	}
	if len(result.Value.Data) >= 1 {
		info.Data = result.Value.Data[0]
	}
	return info, nil
}

type getAccountInfoResult struct {
	Value *getAccountInfoValue `json:"value"`
}

type getAccountInfoValue struct {
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
	Data       []string `json:"data"` // [base64_data, encoding]
	Executable bool     `json:"executable"`
	RentEpoch  uint64   `json:"rentEpoch"`
}

var _ AccountReader = (*HTTPClient)(nil)
