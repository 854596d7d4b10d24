package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/splitflow/splitflow/internal/app/orchestrator"
	"github.com/splitflow/splitflow/internal/domain"
	"github.com/splitflow/splitflow/internal/infra/channels"
	"github.com/splitflow/splitflow/internal/infra/dedup"
	"github.com/splitflow/splitflow/internal/infra/sqlite"
)

// newTestServer wires an orchestrator whose only live leg is the reserve
// channel; onchain and fiat are disabled so no network is touched.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	orch := orchestrator.New(
		dedup.NewMemoryGuard(0),
		domain.DefaultWeights(),
		channels.NewReserveChannel(),
		channels.NewOnChainChannel(nil, false, ""),
	)
	orch.SetStore(db)
	return NewServer(orch, db)
}

func postSettlement(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/settlements", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleSettle_OK(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := postSettlement(t, h, `{"payment_id":"pi_123","amount":100.0,"currency":"eur"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body)
	}

	var report domain.SettlementReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.PaymentID != "pi_123" {
		t.Errorf("PaymentID = %q, want pi_123", report.PaymentID)
	}
	if report.Deduped {
		t.Error("first delivery should not be deduped")
	}
	if report.Results[domain.ChannelReserve].Kind != domain.ResultReserved {
		t.Errorf("reserve result = %+v, want RESERVED", report.Results[domain.ChannelReserve])
	}
	// onchain disabled by config → skipped, not an error, still HTTP 200
	if report.Results[domain.ChannelOnChain].Kind != domain.ResultSkipped {
		t.Errorf("onchain result = %+v, want SKIPPED", report.Results[domain.ChannelOnChain])
	}
}

func TestHandleSettle_InvalidInputIs400(t *testing.T) {
	h := newTestServer(t).Handler()

	tests := []struct {
		name string
		body string
	}{
		{"missing payment id", `{"amount":100,"currency":"EUR"}`},
		{"zero amount", `{"payment_id":"pi_1","amount":0,"currency":"EUR"}`},
		{"bad currency", `{"payment_id":"pi_1","amount":100,"currency":"EURO"}`},
		{"malformed json", `{"payment_id":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postSettlement(t, h, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandleSettle_DuplicateIs200Deduped(t *testing.T) {
	h := newTestServer(t).Handler()
	body := `{"payment_id":"pi_dup","amount":100,"currency":"EUR"}`

	if rec := postSettlement(t, h, body); rec.Code != http.StatusOK {
		t.Fatalf("first delivery status = %d", rec.Code)
	}
	rec := postSettlement(t, h, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("duplicate delivery status = %d, want 200", rec.Code)
	}
	var report domain.SettlementReport
	json.Unmarshal(rec.Body.Bytes(), &report)
	if !report.Deduped {
		t.Error("duplicate delivery should report deduped=true")
	}
}

func TestHandleGetSettlement(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	postSettlement(t, h, `{"payment_id":"pi_123","amount":100,"currency":"EUR"}`)

	req := httptest.NewRequest(http.MethodGet, "/v1/settlements/pi_123", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body)
	}
	var report domain.SettlementReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report.PaymentID != "pi_123" {
		t.Errorf("PaymentID = %q, want pi_123", report.PaymentID)
	}
}

func TestHandleGetSettlement_NotFound(t *testing.T) {
	h := newTestServer(t).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/settlements/pi_missing", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleListSettlements(t *testing.T) {
	h := newTestServer(t).Handler()

	postSettlement(t, h, `{"payment_id":"pi_a","amount":10,"currency":"EUR"}`)
	postSettlement(t, h, `{"payment_id":"pi_b","amount":20,"currency":"EUR"}`)

	req := httptest.NewRequest(http.MethodGet, "/v1/settlements?limit=10", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 2 {
		t.Errorf("count = %d, want 2", out.Count)
	}
}

func TestHealth(t *testing.T) {
	h := newTestServer(t).Handler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
