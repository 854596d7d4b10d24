// Package api provides the HTTP server for splitflow.
// It exposes the settlement ingress endpoint (hit by the verified webhook
// forwarder) and report retrieval for operators.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/splitflow/splitflow/internal/app/orchestrator"
	"github.com/splitflow/splitflow/internal/domain"
)

// Server is the splitflow HTTP API server.
type Server struct {
	orch           *orchestrator.Orchestrator
	store          domain.SettlementStore // nil disables report retrieval
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(orch *orchestrator.Orchestrator, store domain.SettlementStore) *Server {
	return &Server{orch: orch, store: store}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Longer than the payout poll timeout so a slow rail leg is reported,
	// not cut off mid-settlement.
	r.Use(middleware.Timeout(3 * time.Minute))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/settlements", s.handleSettle)
		r.Get("/settlements", s.handleListSettlements)
		r.Get("/settlements/{paymentID}", s.handleGetSettlement)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}
