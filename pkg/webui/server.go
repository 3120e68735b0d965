// Package webui serves the assistant over a websocket endpoint
package webui

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/alantheprice/stackpilot/pkg/assistant"
	"github.com/alantheprice/stackpilot/pkg/utils"
	"github.com/gorilla/websocket"
)

// DefaultPort is used when no port is configured.
const DefaultPort = 54321

// listenHost keeps the server on the loopback interface.
const listenHost = "127.0.0.1"

// QueryHandler answers a single query. *assistant.Assistant implements it.
type QueryHandler interface {
	HandleQuery(ctx context.Context, query string) (*assistant.Response, error)
}

// Server exposes the assistant on /ws and reports liveness on /health
type Server struct {
	handler     QueryHandler
	port        int
	server      *http.Server
	upgrader    websocket.Upgrader
	connections sync.Map // map[*websocket.Conn]string
	logger      *utils.Logger

	// queryMu serializes HandleQuery across connections
	queryMu sync.Mutex

	isRunning  bool
	mutex      sync.RWMutex
	startTime  time.Time
	queryCount int
}

// NewServer creates a server for handler on port
func NewServer(handler QueryHandler, port int, logger *utils.Logger) *Server {
	if port == 0 {
		port = DefaultPort
	}

	return &Server{
		handler: handler,
		port:    port,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return allowedOrigin(r.Header.Get("Origin"))
			},
		},
		startTime: time.Now(),
	}
}

// allowedOrigin accepts direct clients, which send no Origin, and pages served from
// the local machine.
func allowedOrigin(origin string) bool {
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

func listenAddr(port int) string {
	return net.JoinHostPort(listenHost, strconv.Itoa(port))
}

// Handler returns the routes without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mutex.RLock()
	count := s.queryCount
	s.mutex.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":      "ok",
		"port":        s.port,
		"uptime":      time.Since(s.startTime).String(),
		"queries":     count,
		"connections": s.countConnections(),
	})
}

// Start binds the port and serves until ctx is cancelled or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.mutex.Lock()
	if s.isRunning {
		s.mutex.Unlock()
		return fmt.Errorf("server is already running")
	}

	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", listenAddr(s.port))
	if err != nil {
		s.mutex.Unlock()
		return fmt.Errorf("could not listen on port %d: %w", s.port, err)
	}
	s.server = &http.Server{Handler: s.Handler()}
	s.isRunning = true
	s.mutex.Unlock()

	go func() {
		s.logger.LogProcessStep(fmt.Sprintf("Serving queries at ws://%s/ws", listenAddr(s.port)))
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Logf("Server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	return nil
}

// Shutdown closes open websockets and stops the server, waiting up to 5 seconds.
func (s *Server) Shutdown() error {
	s.mutex.Lock()
	if !s.isRunning {
		s.mutex.Unlock()
		return nil
	}
	s.isRunning = false
	s.mutex.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.connections.Range(func(conn, _ interface{}) bool {
		if wsConn, ok := conn.(*websocket.Conn); ok {
			wsConn.Close()
		}
		return true
	})

	return s.server.Shutdown(ctx)
}

// IsRunning returns true if the server is running
func (s *Server) IsRunning() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.isRunning
}

func (s *Server) GetPort() int {
	return s.port
}

func (s *Server) countConnections() int {
	count := 0
	s.connections.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}

// CheckPortAvailable checks if the server could bind port on the loopback interface
func CheckPortAvailable(port int) bool {
	listener, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", listenAddr(port))
	if err != nil {
		return false
	}
	listener.Close()
	return true
}

// FindAvailablePort finds an available port starting from a base port
func FindAvailablePort(basePort int) int {
	port := basePort
	for port < basePort+100 {
		if CheckPortAvailable(port) {
			return port
		}
		port++
	}
	return basePort + 100 // Return last attempt even if not available
}
