package sqlite

import (
	"testing"
	"time"

	"github.com/splitflow/splitflow/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// ─── Reservations ───────────────────────────────────────────────────────────

func TestReservePayment_FirstWins(t *testing.T) {
	db := newTestDB(t)

	first, err := db.ReservePayment("pi_123", time.Hour)
	if err != nil {
		t.Fatalf("ReservePayment() error: %v", err)
	}
	if !first {
		t.Error("first reservation should return true")
	}

	again, err := db.ReservePayment("pi_123", time.Hour)
	if err != nil {
		t.Fatalf("ReservePayment() second call error: %v", err)
	}
	if again {
		t.Error("duplicate reservation should return false")
	}
}

func TestReservePayment_ExpiredIsReclaimed(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.ReservePayment("pi_old", -time.Second); err != nil {
		t.Fatal(err)
	}

	// The expired row must not block a fresh settlement of the same id.
	first, err := db.ReservePayment("pi_old", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if !first {
		t.Error("expired reservation should have been reclaimed")
	}
}

func TestReservePayment_DistinctIDs(t *testing.T) {
	db := newTestDB(t)

	for _, id := range []string{"pi_1", "pi_2", "pi_3"} {
		first, err := db.ReservePayment(id, time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		if !first {
			t.Errorf("ReservePayment(%q) = false, want true", id)
		}
	}

	n, err := db.ReservationCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("ReservationCount() = %d, want 3", n)
	}
}

// ─── Settlement Reports ─────────────────────────────────────────────────────

func sampleReport() domain.SettlementReport {
	return domain.SettlementReport{
		PaymentID: "pi_123",
		Input:     domain.MoneyFromFloat(100, "EUR"),
		PerChannel: map[domain.ChannelKind]domain.Money{
			domain.ChannelReserve: domain.MoneyFromFloat(50, "EUR"),
			domain.ChannelOnChain: domain.MoneyFromFloat(30, "EUR"),
			domain.ChannelProfit:  domain.MoneyFromFloat(20, "EUR"),
		},
		Results: map[domain.ChannelKind]domain.PayoutResult{
			domain.ChannelReserve: domain.Reserved("50.00 EUR held for fulfillment"),
			domain.ChannelOnChain: domain.Succeeded("tx_abc", "confirmed"),
			domain.ChannelProfit:  domain.TimedOut("po_xyz", "queued"),
		},
		DurationMs: 4200,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
}

func TestSaveReport_RoundTrip(t *testing.T) {
	db := newTestDB(t)

	want := sampleReport()
	if err := db.SaveReport(want); err != nil {
		t.Fatalf("SaveReport() error: %v", err)
	}

	got, err := db.GetReport("pi_123")
	if err != nil {
		t.Fatalf("GetReport() error: %v", err)
	}
	if got == nil {
		t.Fatal("GetReport() = nil, want report")
	}

	if got.PaymentID != want.PaymentID {
		t.Errorf("PaymentID = %q, want %q", got.PaymentID, want.PaymentID)
	}
	if !got.Input.Equal(want.Input) {
		t.Errorf("Input = %s, want %s", got.Input, want.Input)
	}
	if got.DurationMs != want.DurationMs {
		t.Errorf("DurationMs = %d, want %d", got.DurationMs, want.DurationMs)
	}
	if got.Deduped {
		t.Error("Deduped = true, want false")
	}
	if len(got.Results) != 3 {
		t.Fatalf("Results has %d entries, want 3", len(got.Results))
	}
	if res := got.Results[domain.ChannelOnChain]; res.Kind != domain.ResultSucceeded || res.ExternalID != "tx_abc" {
		t.Errorf("onchain result = %+v, want SUCCEEDED tx_abc", res)
	}
	if res := got.Results[domain.ChannelProfit]; res.Kind != domain.ResultTimedOut || res.Status != "queued" {
		t.Errorf("profit result = %+v, want TIMED_OUT queued", res)
	}
	if !got.PerChannel[domain.ChannelReserve].Equal(want.PerChannel[domain.ChannelReserve]) {
		t.Errorf("reserve amount = %s, want %s",
			got.PerChannel[domain.ChannelReserve], want.PerChannel[domain.ChannelReserve])
	}
}

func TestSaveReport_FirstWriteWins(t *testing.T) {
	db := newTestDB(t)

	first := sampleReport()
	if err := db.SaveReport(first); err != nil {
		t.Fatal(err)
	}

	second := sampleReport()
	second.DurationMs = 9999
	if err := db.SaveReport(second); err != nil {
		t.Fatalf("SaveReport() duplicate error: %v", err)
	}

	got, err := db.GetReport("pi_123")
	if err != nil {
		t.Fatal(err)
	}
	if got.DurationMs != first.DurationMs {
		t.Errorf("DurationMs = %d, want first write %d", got.DurationMs, first.DurationMs)
	}
}

func TestGetReport_NotFound(t *testing.T) {
	db := newTestDB(t)

	got, err := db.GetReport("pi_missing")
	if err != nil {
		t.Fatalf("GetReport() error: %v", err)
	}
	if got != nil {
		t.Errorf("GetReport() = %+v, want nil", got)
	}
}

func TestListReports_NewestFirst(t *testing.T) {
	db := newTestDB(t)

	for i, id := range []string{"pi_a", "pi_b", "pi_c"} {
		r := sampleReport()
		r.PaymentID = id
		r.CreatedAt = time.Date(2026, 8, 1, 0, 0, i, 0, time.UTC)
		if err := db.SaveReport(r); err != nil {
			t.Fatal(err)
		}
	}

	got, err := db.ListReports(2)
	if err != nil {
		t.Fatalf("ListReports() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListReports() returned %d, want 2", len(got))
	}
	if got[0].PaymentID != "pi_c" || got[1].PaymentID != "pi_b" {
		t.Errorf("order = [%s %s], want [pi_c pi_b]", got[0].PaymentID, got[1].PaymentID)
	}
}
