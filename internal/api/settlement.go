package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/splitflow/splitflow/internal/domain"
)

// ─── Settlement API ─────────────────────────────────────────────────────────
// POST /v1/settlements              — settle one confirmed incoming payment
// GET  /v1/settlements              — recent settlement reports
// GET  /v1/settlements/{paymentID}  — one stored report
//
// Status mapping: 400 on invalid input, 200 with deduped=true on duplicate
// delivery, 200 with per-channel results otherwise. Channel failures live
// inside the report and never change the outer status — the orchestration
// itself succeeded.

// settleRequest is the validated-webhook payload: signature verification
// happened upstream, redelivery has not been filtered.
type settleRequest struct {
	PaymentID string  `json:"payment_id"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}

// handleSettle runs one settlement.
// POST /v1/settlements
func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	report, err := s.orch.Settle(r.Context(), req.PaymentID, req.Amount, req.Currency)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidPayment),
			errors.Is(err, domain.ErrNegativeAmount),
			errors.Is(err, domain.ErrInvalidCurrency):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrGuardUnavailable):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			log.Printf("[api] settle %s failed: %v", req.PaymentID, err)
			writeError(w, http.StatusInternalServerError, "settlement failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// handleGetSettlement returns one stored report.
// GET /v1/settlements/{paymentID}
func (s *Server) handleGetSettlement(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "settlement store not configured")
		return
	}

	paymentID := chi.URLParam(r, "paymentID")
	report, err := s.store.GetReport(paymentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if report == nil {
		writeError(w, http.StatusNotFound, "no settlement for "+paymentID)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleListSettlements returns recent reports, newest first.
// GET /v1/settlements?limit=N
func (s *Server) handleListSettlements(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "settlement store not configured")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	reports, err := s.store.ListReports(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"settlements": reports,
		"count":       len(reports),
	})
}
