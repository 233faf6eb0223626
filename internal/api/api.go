// Package api exposes the turn API over HTTP: session creation, message
// turns, and a diagnostic state read.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/quotepilot/quotepilot/internal/flow"
	"github.com/quotepilot/quotepilot/internal/models"
	"github.com/quotepilot/quotepilot/internal/store"
)

// Default server timeouts.
const (
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
)

// Server hosts the turn API.
type Server struct {
	engine *flow.Engine
	addr   string
}

// NewServer creates the API server around a flow engine.
func NewServer(engine *flow.Engine, addr string) *Server {
	return &Server{engine: engine, addr: addr}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("POST /sessions/{id}/messages", s.handleSendMessage)
	mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		slog.Info("Server.Run: shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("ok", nil))
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("invalid request body"))
			return
		}
	}

	sess, err := s.engine.CreateSession(r.Context(), req.UserID)
	if err != nil {
		slog.Error("Server.handleCreateSession failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("failed to create session"))
		return
	}
	slog.Info("Server.handleCreateSession: session created", "sessionID", sess.ID)
	writeJSONResponse(w, http.StatusCreated, models.Success(sess))
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if err := store.ValidateSessionID(sessionID); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("malformed session id"))
		return
	}

	var req models.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	result, err := s.engine.Turn(r.Context(), sessionID, req.Message)
	if err != nil {
		slog.Error("Server.handleSendMessage: turn failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("failed to process message; please resend"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(models.TurnResponse{
		SessionID:     sessionID,
		Message:       result.Reply,
		Quote:         result.State.QuoteData,
		RequiresHuman: result.State.RequiresHuman,
		State:         result.State,
	}))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if err := store.ValidateSessionID(sessionID); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("malformed session id"))
		return
	}

	state, err := s.engine.GetState(r.Context(), sessionID)
	if err != nil {
		slog.Error("Server.handleGetSession failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("failed to load session"))
		return
	}
	if state == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("session not found"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(state))
}

// writeJSONResponse writes the envelope; a marshal failure falls back to a
// pre-encoded error body.
func writeJSONResponse(w http.ResponseWriter, statusCode int, resp models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	body, err := json.Marshal(resp)
	if err != nil {
		slog.Error("writeJSONResponse: marshal failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status":"error","message":"internal error"}`))
		return
	}
	w.WriteHeader(statusCode)
	w.Write(body)
}
