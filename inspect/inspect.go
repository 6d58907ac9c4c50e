// Package inspect exposes a read-only JSON view of a running sync engine:
// the busy/degraded indicators, live cache entries, recent notifications and
// the registered offline fragments. It exists for operators and tests, not
// for the console UI.
//
// It exposes both a chi-compatible [Server.Handler] and a standard
// [Server.RegisterMux] so callers can pick whichever router they use.
package inspect

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ordernow/consync/notify"
	"github.com/ordernow/consync/offline"
	"github.com/ordernow/consync/signals"
	"github.com/ordernow/consync/viewcache"
)

// Config holds the engine components the server reads from. Nil fields are
// allowed; their endpoints answer with empty payloads.
type Config struct {
	Hub    *signals.Hub
	Center *notify.Center
	Cache  *viewcache.Cache
	Store  *offline.Store
	Logger *slog.Logger
}

// Server serves the inspect endpoints.
type Server struct {
	cfg Config
}

// New creates a Server.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Server{cfg: cfg}
}

// Handler returns a chi router serving:
//
//	GET /health         — liveness probe
//	GET /signals        — busy counter and degraded flag
//	GET /cache          — live cache entries
//	GET /notifications  — recent notifications
//	GET /offline        — registered substitution fragments
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Get("/signals", s.handleSignals)
	r.Get("/cache", s.handleCache)
	r.Get("/notifications", s.handleNotifications)
	r.Get("/offline", s.handleOffline)
	return r
}

// RegisterMux mounts the inspect endpoints on a standard ServeMux under
// prefix (e.g. "/inspect").
func (s *Server) RegisterMux(mux *http.ServeMux, prefix string) {
	prefix = strings.TrimRight(prefix, "/")
	mux.Handle(prefix+"/", http.StripPrefix(prefix, s.Handler()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Hub == nil {
		s.writeJSON(w, signals.Snapshot{})
		return
	}
	s.writeJSON(w, s.cfg.Hub.Snapshot())
}

func (s *Server) handleCache(w http.ResponseWriter, r *http.Request) {
	entries := []viewcache.EntryInfo{}
	if s.cfg.Cache != nil {
		for info := range s.cfg.Cache.Entries() {
			entries = append(entries, info)
		}
	}
	s.writeJSON(w, entries)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	recent := []notify.Notification{}
	if s.cfg.Center != nil {
		recent = s.cfg.Center.Recent()
	}
	s.writeJSON(w, recent)
}

func (s *Server) handleOffline(w http.ResponseWriter, r *http.Request) {
	fragments := []string{}
	if s.cfg.Store != nil {
		fragments = s.cfg.Store.Fragments()
	}
	s.writeJSON(w, fragments)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.cfg.Logger.Warn("inspect: encode response", "error", err)
	}
}
