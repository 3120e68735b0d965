package webui

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/alantheprice/stackpilot/pkg/assistant"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	maxMessageBytes = 64 * 1024
	readIdleTimeout = 60 * time.Second
)

// QueryMessage is what clients send on /ws.
type QueryMessage struct {
	Query string `json:"query"`
}

// ReplyMessage is sent back for every QueryMessage. Exactly one of Response and Error is set.
type ReplyMessage struct {
	Response *assistant.Response `json:"response,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// SafeConn wraps a websocket connection with a write mutex
type SafeConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	closed  bool
}

func NewSafeConn(conn *websocket.Conn) *SafeConn {
	return &SafeConn{conn: conn}
}

// WriteJSON writes v unless the connection has been closed
func (sc *SafeConn) WriteJSON(v interface{}) error {
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()
	if sc.closed {
		return nil
	}
	return sc.conn.WriteJSON(v)
}

func (sc *SafeConn) Close() error {
	sc.writeMu.Lock()
	sc.closed = true
	sc.writeMu.Unlock()
	return sc.conn.Close()
}

// handleWebSocket answers queries one message at a time until the client disconnects
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Logf("WebSocket upgrade error: %v", err)
		return
	}

	safeConn := NewSafeConn(conn)
	defer safeConn.Close()

	sessionID := "ws_" + uuid.NewString()
	s.connections.Store(conn, sessionID)
	defer s.connections.Delete(conn)
	s.logger.Logf("WebSocket client connected: %s", sessionID)

	conn.SetReadLimit(maxMessageBytes)
	for {
		conn.SetReadDeadline(time.Now().Add(readIdleTimeout))

		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Logf("WebSocket %s closed", sessionID)
			} else if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				s.logger.Logf("WebSocket %s idle, closing", sessionID)
			} else {
				s.logger.Logf("WebSocket %s read error: %v", sessionID, err)
			}
			return
		}

		var msg QueryMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if err := safeConn.WriteJSON(ReplyMessage{Error: fmt.Sprintf("invalid message: %v", err)}); err != nil {
				return
			}
			continue
		}

		reply := s.answer(r.Context(), msg)
		if err := safeConn.WriteJSON(reply); err != nil {
			s.logger.Logf("WebSocket %s write error: %v", sessionID, err)
			return
		}
	}
}

func (s *Server) answer(ctx context.Context, msg QueryMessage) ReplyMessage {
	query := strings.TrimSpace(msg.Query)
	if query == "" {
		return ReplyMessage{Error: "query is required"}
	}

	s.queryMu.Lock()
	resp, err := s.handler.HandleQuery(ctx, query)
	s.queryMu.Unlock()

	s.mutex.Lock()
	s.queryCount++
	s.mutex.Unlock()

	if err != nil {
		s.logger.LogError(err)
		return ReplyMessage{Error: err.Error()}
	}
	return ReplyMessage{Response: resp}
}
