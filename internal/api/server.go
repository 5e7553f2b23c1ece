// Package api exposes a small admin HTTP surface over the running server
// process: health, Prometheus metrics, and read-only lobby introspection.
// Adapted from the teacher's gorilla/mux REST gateway.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ocx/backend/internal/lobby"
	"github.com/ocx/backend/internal/observer"
)

// Server exposes the admin HTTP API backed by a running lobby.Manager.
type Server struct {
	manager   *lobby.Manager
	dashboard *observer.DashboardStreamer
	logger    *slog.Logger
}

func NewServer(manager *lobby.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{manager: manager, logger: logger}
}

// SetDashboard mounts a live dashboard websocket feed at /ws/dashboard. A
// nil dashboard (the default) leaves that route unregistered.
func (s *Server) SetDashboard(ds *observer.DashboardStreamer) {
	s.dashboard = ds
}

// Router builds the mux.Router serving every admin endpoint, so callers can
// mount it behind their own http.Server (and, e.g., attach a
// observer.DashboardStreamer's websocket handler alongside it).
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware)

	r.HandleFunc("/healthz", s.handleHealthz).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/lobbies", s.handleLobbies).Methods("GET")
	r.HandleFunc("/lobbies/{code}", s.handleLobbyDetail).Methods("GET")
	if s.dashboard != nil {
		r.HandleFunc("/ws/dashboard", s.dashboard.HandleWebSocket)
	}
	return r
}

// ListenAndServe starts the admin HTTP server on addr. It blocks until the
// server errors or is shut down by the caller canceling the underlying
// listener (typical usage: run in its own goroutine from main).
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("api: admin server listening", "addr", addr)
	return http.ListenAndServe(addr, s.Router())
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type lobbySummary struct {
	Code        string `json:"code"`
	State       string `json:"state"`
	PlayerCount int    `json:"player_count"`
}

func (s *Server) handleLobbies(w http.ResponseWriter, r *http.Request) {
	lobbies := s.manager.Lobbies()
	out := make([]lobbySummary, 0, len(lobbies))
	for _, l := range lobbies {
		out = append(out, lobbySummary{
			Code:        l.Code(),
			State:       l.GetState().String(),
			PlayerCount: l.PlayerCount(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (s *Server) handleLobbyDetail(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	l, ok := s.manager.GetLobby(code)
	if !ok {
		http.Error(w, fmt.Sprintf("no lobby with code %q", code), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"code":         l.Code(),
		"state":        l.GetState().String(),
		"player_count": l.PlayerCount(),
		"clients":      l.Clients(),
		"difficulty":   l.Difficulty().String(),
	})
}
