// Package api exposes the safety checker over HTTP and WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"token-safety-oracle/internal/chain"
	"token-safety-oracle/internal/observability"
	"token-safety-oracle/internal/payment"
	"token-safety-oracle/internal/service"
)

// Service identity reported by / and /health.
const (
	ServiceName    = "token-safety-oracle"
	ServiceVersion = "2.0.0"
)

// maxBodyBytes caps a /check request body.
const maxBodyBytes = 1 << 20

// Checker is the check service as seen by the HTTP layer.
type Checker interface {
	Check(ctx context.Context, req service.CheckRequest) (service.Report, error)
	Chains() []chain.Info
	CacheLen() int
}

// Server holds the HTTP handlers.
type Server struct {
	checker        Checker
	gate           payment.Gate
	logger         *log.Logger
	ws             WSConfig
	metrics        bool
	requestTimeout time.Duration
}

// Option configures Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithWSConfig sets the websocket session configuration.
func WithWSConfig(cfg WSConfig) Option {
	return func(s *Server) {
		s.ws = cfg
	}
}

// WithMetrics mounts /metrics when enabled.
func WithMetrics(enabled bool) Option {
	return func(s *Server) {
		s.metrics = enabled
	}
}

// WithRequestTimeout bounds plain HTTP requests. Websocket sessions are exempt.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.requestTimeout = d
	}
}

// NewServer creates the HTTP server handlers.
func NewServer(checker Checker, gate payment.Gate, opts ...Option) *Server {
	s := &Server{
		checker:        checker,
		gate:           gate,
		logger:         log.New(io.Discard, "", 0),
		ws:             DefaultWSConfig(),
		requestTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.requestTimeout))

		r.Get("/", s.handleIndex)
		r.Get("/health", s.handleHealth)
		r.Get("/chains", s.handleChains)
		r.Post("/check", s.handleCheck)
	})

	r.Get("/ws", s.handleWS)

	if s.metrics {
		r.Handle("/metrics", observability.Handler())
	}

	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	terms := s.gate.Terms()
	writeJSON(w, http.StatusOK, IndexResponse{
		Service:     "x402 Token Safety Oracle",
		Version:     ServiceVersion,
		Description: "Multi-chain token safety analysis with x402 micropayment support",
		Endpoints: map[string]string{
			"/health":  "Health check",
			"/check":   "Check token safety (POST)",
			"/chains":  "Get supported chains",
			"/ws":      "Streaming token checks for bots (WebSocket)",
			"/metrics": "Prometheus metrics",
			"/":        "This documentation",
		},
		SupportedChains: s.chainKeys(),
		X402: IndexX402{
			Enabled:       !terms.FreeMode,
			PricePerCheck: json.Number(terms.Price.String()),
			PaymentToken:  terms.Token,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	keys := s.chainKeys()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:          "healthy",
		Service:         ServiceName,
		Version:         ServiceVersion,
		FreeMode:        s.gate.Terms().FreeMode,
		SupportedChains: len(keys),
		ChainIDs:        keys,
		CacheEntries:    s.checker.CacheLen(),
	})
}

func (s *Server) handleChains(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ChainsResponse{Chains: s.checker.Chains()})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}

	var req service.CheckRequest
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err == nil {
		err = decodeObject(data, &req)
	}
	if err != nil {
		observability.RecordCheckFailure("invalid_json")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON"})
		return
	}

	report, err := s.checker.Check(r.Context(), req)
	if err != nil {
		status, body := s.errorResponse(err)
		writeJSON(w, status, body)
		return
	}

	writeJSON(w, http.StatusOK, NewCheckResponse(report, s.gate.Terms()))
}

var errEmptyRequest = errors.New("empty request object")

// decodeObject decodes a non-empty JSON object into v. Null, an empty object
// and any non-object value are rejected.
func decodeObject(data []byte, v interface{}) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if len(fields) == 0 {
		return errEmptyRequest
	}
	return json.Unmarshal(data, v)
}

// authorize enforces the payment gate, writing a 402 on refusal.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request) bool {
	if s.gate.Authorize(r.Header.Get("Authorization")) {
		return true
	}
	observability.RecordPaymentRejected()
	terms := s.gate.Terms()
	writeJSON(w, http.StatusPaymentRequired, ErrorResponse{
		Error:   "Payment required",
		Message: "Valid x402 payment proof required",
		Price:   json.Number(terms.Price.String()),
		Token:   terms.Token,
	})
	return false
}

// errorResponse maps a checker error to a status code and body.
func (s *Server) errorResponse(err error) (int, ErrorResponse) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		if errors.Is(err, service.ErrUnsupportedChain) {
			return http.StatusBadRequest, ErrorResponse{
				Error:           "Unsupported chain: " + ve.Value,
				SupportedChains: ve.Supported,
			}
		}
		return http.StatusBadRequest, ErrorResponse{Error: ve.Error()}
	}

	s.logger.Printf("check failed: %v", err)
	msg := strings.TrimPrefix(err.Error(), service.ErrCheckFailed.Error()+": ")
	return http.StatusInternalServerError, ErrorResponse{Error: "Safety check failed: " + msg}
}

func (s *Server) chainKeys() []string {
	chains := s.checker.Chains()
	keys := make([]string, len(chains))
	for i, c := range chains {
		keys[i] = c.Key
	}
	return keys
}
