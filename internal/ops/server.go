// Package ops exposes the operational HTTP surface: process health
// and the API usage counters.
package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nik997414-ui/Contragent-bot/internal/quota"
	"github.com/nik997414-ui/Contragent-bot/internal/store"
)

// Server is the ops HTTP server.
type Server struct {
	router  *chi.Mux
	server  *http.Server
	store   store.Store
	meter   *quota.Meter
	start   time.Time
	version string
}

// NewServer wires the ops routes.
func NewServer(addr string, st store.Store, meter *quota.Meter, version string) *Server {
	s := &Server{
		store:   st,
		meter:   meter,
		start:   time.Now(),
		version: version,
	}
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/health", s.health)
	router.Get("/usage", s.usage)
	s.router = router
	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Start starts the HTTP server. Blocks until Shutdown.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if err := s.store.Ping(r.Context()); err != nil {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": s.version,
		"uptime":  time.Since(s.start).Round(time.Second).String(),
	})
}

func (s *Server) usage(w http.ResponseWriter, r *http.Request) {
	usages, err := s.meter.Snapshot(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	type usageRow struct {
		Service   string `json:"service"`
		Limit     int    `json:"limit"`
		Used      int    `json:"used"`
		Remaining int    `json:"remaining"`
		LastAlert string `json:"lastAlert,omitempty"`
	}
	rows := make([]usageRow, 0, len(usages))
	for _, u := range usages {
		rows = append(rows, usageRow{
			Service:   u.Service,
			Limit:     u.TotalLimit,
			Used:      u.UsedCount,
			Remaining: u.Remaining(),
			LastAlert: u.LastAlertDate,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"services": rows})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
