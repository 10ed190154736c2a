// Package server exposes the concierge over HTTP and WebSocket.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/skinbuddy/concierge/agents"
)

// Server routes HTTP and WebSocket traffic to the orchestrator.
type Server struct {
	orchestrator *agents.Orchestrator
	router       *mux.Router
}

// APIResponse is the envelope for all JSON endpoints.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RunRequest is the POST /api/v1/run payload.
type RunRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// New builds a server around the orchestrator.
func New(orchestrator *agents.Orchestrator) *Server {
	s := &Server{
		orchestrator: orchestrator,
		router:       mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(s.loggingMiddleware)
	api.Use(s.corsMiddleware)

	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/run", s.handleRun).Methods("POST")

	s.router.HandleFunc("/ws/{user_id}", s.handleWebSocket)
	s.router.HandleFunc("/", s.handleHome).Methods("GET")
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("%s %s %s", r.Method, r.RequestURI, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("Completed %s %s in %v", r.Method, r.RequestURI, time.Since(start))
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// handleRun answers one message without a persistent connection.
// Interactive profile intake is unavailable here; clients that need it
// use the WebSocket endpoint.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.UserID == "" || req.Message == "" {
		s.writeError(w, http.StatusBadRequest, "user_id and message are required")
		return
	}

	reply, err := s.orchestrator.Handle(r.Context(), req.UserID, req.Message, nil)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("handling failed: %v", err))
		return
	}
	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: reply})
}

func (s *Server) handleHome(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, homePage)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, APIResponse{Success: false, Error: msg})
}
