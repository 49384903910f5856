// Package server exposes the current board over HTTP for displays that pull.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/busboard/internal/board"
	"github.com/busboard/internal/common/logger"
)

// StatusSource reports the poller's latest outcome
type StatusSource interface {
	Status() board.Status
}

// ErrorResponse is the JSON body of a failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

type Server struct {
	source StatusSource
	logger logger.Logger
	srv    *http.Server
}

func New(addr string, source StatusSource, log logger.Logger) *Server {
	s := &Server{source: source, logger: log}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router builds the chi routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	r.Get("/api/board", s.board)
	return r
}

// ListenAndServe blocks until ctx is done, then shuts the server down
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Status server listening", "addr", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	st := s.source.Status()

	code := http.StatusOK
	state := "ok"
	switch {
	case st.LastPassAt.IsZero():
		state = "starting"
	case st.ConsecutiveFailures > 0:
		state = "degraded"
		code = http.StatusServiceUnavailable
	}

	s.writeJSON(w, code, map[string]interface{}{
		"status":               state,
		"last_code":            st.LastCode,
		"last_pass_at":         st.LastPassAt,
		"consecutive_failures": st.ConsecutiveFailures,
		"timestamp":            time.Now().UTC(),
	})
}

func (s *Server) board(w http.ResponseWriter, r *http.Request) {
	st := s.source.Status()
	if st.Board == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error: "no board available",
			Code:  st.LastCode,
		})
		return
	}

	s.writeJSON(w, http.StatusOK, st)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("Failed to write response", "status", code, "error", err)
	}
}
