// Package server exposes a table engine over HTTP and WebSocket. Every
// connection shares the one engine, so several tabs watch and drive the
// same table.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/lox/blackjackstats/internal/game"
)

// Terms records whether the player has accepted the terms of play
type Terms interface {
	TermsAccepted(ctx context.Context) bool
	AcceptTerms(ctx context.Context) error
}

// Server serves one engine
type Server struct {
	engine      *game.Engine
	terms       Terms
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewServer creates a server for engine. terms may be nil.
func NewServer(engine *game.Engine, terms Terms, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		engine: engine,
		terms:  terms,
		upgrader: websocket.Upgrader{
			// The table is a local single-player simulator
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Routes returns the HTTP handler
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Get("/snapshot", s.handleSnapshot)
		r.Post("/commands/{command}", s.handleCommand)
		r.Patch("/players/{id}", s.handleUpdatePlayer)
		r.Get("/replays", s.handleReplays)
		r.Get("/terms", s.handleGetTerms)
		r.Post("/terms", s.handleAcceptTerms)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Stop()
		return err
	case <-ctx.Done():
	}

	s.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop closes every connection
func (s *Server) Stop() {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.connections {
		_ = conn.Close()
		delete(s.connections, conn)
	}
}

// ConnectionCount returns the number of open WebSocket clients
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := newConnection(conn, s)
	s.mu.Lock()
	s.connections[client] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "total", total)

	client.Start()

	go func() {
		<-client.Done()
		s.mu.Lock()
		delete(s.connections, client)
		total := len(s.connections)
		s.mu.Unlock()
		s.logger.Info("Client disconnected", "total", total)
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

// commandResponse is returned by POST /api/commands/{command}
type commandResponse struct {
	Applied  bool          `json:"applied"`
	Snapshot game.Snapshot `json:"snapshot"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	command := chi.URLParam(r, "command")

	var body struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	applied, err := s.engine.Execute(command, body.Action)
	switch {
	case errors.Is(err, game.ErrUnknownCommand):
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := http.StatusOK
	if !applied {
		status = http.StatusConflict
	}
	s.logger.Debug("HTTP command", "command", command, "applied", applied, "request", middleware.GetReqID(r.Context()))
	s.writeJSON(w, status, commandResponse{Applied: applied, Snapshot: s.engine.Snapshot()})
}

// playerUpdate is the body of PATCH /api/players/{id}. Omitted fields are
// left alone.
type playerUpdate struct {
	Name *string          `json:"name"`
	Type *game.PlayerType `json:"type"`
}

func (s *Server) handleUpdatePlayer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body playerUpdate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Name == nil && body.Type == nil {
		s.writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	applied := true
	if body.Name != nil {
		applied = s.engine.RenamePlayer(id, *body.Name)
	}
	if applied && body.Type != nil {
		applied = s.engine.SetPlayerType(id, *body.Type)
	}

	status := http.StatusOK
	if !applied {
		status = http.StatusConflict
	}
	s.writeJSON(w, status, commandResponse{Applied: applied, Snapshot: s.engine.Snapshot()})
}

func (s *Server) handleReplays(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Replays())
}

func (s *Server) handleGetTerms(w http.ResponseWriter, r *http.Request) {
	accepted := s.terms != nil && s.terms.TermsAccepted(r.Context())
	s.writeJSON(w, http.StatusOK, TermsData{Accepted: accepted})
}

func (s *Server) handleAcceptTerms(w http.ResponseWriter, r *http.Request) {
	if s.terms == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no storage configured")
		return
	}
	if err := s.terms.AcceptTerms(r.Context()); err != nil {
		s.logger.Error("Failed to record terms", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to record terms")
		return
	}
	s.writeJSON(w, http.StatusOK, TermsData{Accepted: true})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Debug("Failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
