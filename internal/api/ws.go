package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"token-safety-oracle/internal/observability"
	"token-safety-oracle/internal/service"
)

// WSConfig configures bot websocket sessions.
type WSConfig struct {
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is how long a session may stay silent, pongs included.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// MaxMessageBytes caps one inbound frame.
	MaxMessageBytes int64
}

// DefaultWSConfig returns default websocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		PingInterval:    30 * time.Second,
		ReadTimeout:     60 * time.Second,
		WriteTimeout:    10 * time.Second,
		MaxMessageBytes: maxBodyBytes,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsRequest is one check request frame. ID is echoed back; an empty ID is
// replaced with a generated one.
type wsRequest struct {
	ID string `json:"id"`
	service.CheckRequest
}

type wsResponse struct {
	ID              string         `json:"id"`
	Result          *CheckResponse `json:"result,omitempty"`
	Error           string         `json:"error,omitempty"`
	Status          int            `json:"status,omitempty"`
	SupportedChains []string       `json:"supported_chains,omitempty"`
}

// wsSession serializes writes to one connection.
type wsSession struct {
	id     string
	conn   *websocket.Conn
	config WSConfig
	mu     sync.Mutex
}

func (ws *wsSession) write(v interface{}) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.conn.SetWriteDeadline(time.Now().Add(ws.config.WriteTimeout))
	return ws.conn.WriteJSON(v)
}

func (ws *wsSession) ping() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ws.config.WriteTimeout))
}

// handleWS upgrades to a websocket and answers check frames in order.
// The payment gate is applied once, at upgrade time.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("ws upgrade failed: %v", err)
		return
	}

	session := &wsSession{id: uuid.NewString(), conn: conn, config: s.ws}
	observability.WSSessionOpened()
	s.logger.Printf("ws session %s opened from %s", session.id, r.RemoteAddr)

	done := make(chan struct{})
	defer func() {
		close(done)
		conn.Close()
		observability.WSSessionClosed()
		s.logger.Printf("ws session %s closed", session.id)
	}()

	conn.SetReadLimit(s.ws.MaxMessageBytes)
	conn.SetReadDeadline(time.Now().Add(s.ws.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.ws.ReadTimeout))
	})

	go s.pingLoop(session, done)

	ctx := r.Context()
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Printf("ws session %s read error: %v", session.id, err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(s.ws.ReadTimeout))

		if msgType != websocket.TextMessage {
			continue
		}

		resp := s.handleWSFrame(ctx, data)
		if err := session.write(resp); err != nil {
			s.logger.Printf("ws session %s write error: %v", session.id, err)
			return
		}
	}
}

func (s *Server) handleWSFrame(ctx context.Context, data []byte) wsResponse {
	var req wsRequest
	if err := decodeObject(data, &req); err != nil {
		observability.RecordWSMessage("invalid_json")
		return wsResponse{ID: uuid.NewString(), Error: "Invalid JSON", Status: http.StatusBadRequest}
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	report, err := s.checker.Check(ctx, req.CheckRequest)
	if err != nil {
		status, body := s.errorResponse(err)
		outcome := "error"
		if service.IsValidation(err) {
			outcome = "invalid"
		}
		observability.RecordWSMessage(outcome)
		return wsResponse{ID: req.ID, Error: body.Error, Status: status, SupportedChains: body.SupportedChains}
	}

	observability.RecordWSMessage("ok")
	result := NewCheckResponse(report, s.gate.Terms())
	return wsResponse{ID: req.ID, Result: &result}
}

// pingLoop sends periodic ping frames to keep the session alive.
func (s *Server) pingLoop(session *wsSession, done <-chan struct{}) {
	ticker := time.NewTicker(session.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := session.ping(); err != nil {
				// The read loop notices the dead connection.
				return
			}
		}
	}
}
