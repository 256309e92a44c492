package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chipsock/chipsock/server"
)

// StatusServer serves a read-only HTTP view of the command server:
// liveness plus the current sessions and their stored state.
type StatusServer struct {
	registry *server.SessionRegistry
	server   *http.Server
}

func NewStatusServer(addr string, registry *server.SessionRegistry) *StatusServer {
	s := &StatusServer{registry: registry}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/api/sessions", s.handleSessions)

	s.server = &http.Server{Addr: addr, Handler: r}
	return s
}

func (s *StatusServer) Start() error {
	slog.Info("Starting status server", "addr", s.server.Addr)
	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *StatusServer) Shutdown() error {
	slog.Info("Shutting down status server", "addr", s.server.Addr)
	return s.server.Close()
}

// Handler exposes the router for tests.
func (s *StatusServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *StatusServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *StatusServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.registry.List()

	infos := make([]server.SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		infos = append(infos, sess.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Id < infos[j].Id })

	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(infos),
		"sessions": infos,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode status response", "error", err.Error())
	}
}
