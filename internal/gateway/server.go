// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

// Package gateway serves the bidirectional websocket channel: per-connection
// framing, origin policy, payload limits, and dispatch into the game engine.
package gateway

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/oops"

	"github.com/warrenmud/warren/internal/game"
	"github.com/warrenmud/warren/internal/observability"
)

// Websocket keepalive and framing limits.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Config holds the gateway's listen settings.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string

	// Path is the websocket endpoint path.
	Path string

	// AllowedOrigins lists acceptable Origin headers. A single "*" entry
	// allows every origin; an absent Origin header (non-browser client) is
	// always accepted.
	AllowedOrigins []string
}

// Server upgrades websocket connections and runs one client per socket.
type Server struct {
	cfg      Config
	engine   *game.Engine
	metrics  *observability.Metrics
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	listener net.Listener
}

// NewServer creates a gateway server. metrics may be nil.
func NewServer(cfg Config, engine *game.Engine, metrics *observability.Metrics) *Server {
	if cfg.Path == "" {
		cfg.Path = "/ws"
	}
	s := &Server{
		cfg:     cfg,
		engine:  engine,
		metrics: metrics,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originAllowed,
	}
	return s
}

// Addr returns the bound listen address, or empty before Run.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Handler returns the gateway's HTTP handler; exposed for tests that mount
// it on their own server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.handleWS)
	return mux
}

// Run starts the server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return oops.Code("GATEWAY_LISTEN_FAILED").With("addr", s.cfg.Addr).Wrap(err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			slog.Debug("gateway shutdown error", "error", err)
		}
	}()

	slog.Info("gateway started", "addr", listener.Addr().String(), "path", s.cfg.Path)

	if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
		return oops.Code("GATEWAY_SERVE_FAILED").Wrap(err)
	}
	return nil
}

// handleWS upgrades one connection and runs its pumps.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error; origin rejections land
		// here too.
		s.countConnection("rejected")
		slog.Warn("websocket upgrade failed", "error", err, "origin", r.Header.Get("Origin"))
		return
	}
	s.countConnection("accepted")

	c := newClient(conn, s.engine, s.metrics)
	go c.writePump()
	c.readPump(r.Context())
}

// originAllowed applies the configured origin policy.
func (s *Server) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func (s *Server) countConnection(outcome string) {
	if s.metrics != nil {
		s.metrics.ConnectionsTotal.WithLabelValues(outcome).Inc()
	}
}
