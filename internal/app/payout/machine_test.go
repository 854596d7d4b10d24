package payout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/splitflow/splitflow/internal/domain"
)

// fakeRail scripts a status sequence: each GetPayout call returns the next
// entry, sticking on the last one.
type fakeRail struct {
	mu        sync.Mutex
	createErr error
	createRes domain.CreatedPayout
	statuses  []string
	calls     int
	getErr    error
}

func (f *fakeRail) CreatePayout(_ context.Context, req domain.PayoutRequest) (domain.CreatedPayout, error) {
	if f.createErr != nil {
		return domain.CreatedPayout{}, f.createErr
	}
	return f.createRes, nil
}

func (f *fakeRail) GetPayout(_ context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", f.getErr
	}
	i := f.calls
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	f.calls++
	return f.statuses[i], nil
}

// recordingSink captures emitted stages.
type recordingSink struct {
	mu     sync.Mutex
	stages []string
}

func (s *recordingSink) Emit(stage string, _ map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages = append(s.stages, stage)
}

func (s *recordingSink) count(stage string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, st := range s.stages {
		if st == stage {
			n++
		}
	}
	return n
}

func fastConfig() Config {
	return Config{PollInterval: 5 * time.Millisecond, PollTimeout: 100 * time.Millisecond}
}

func testRequest() domain.PayoutRequest {
	return domain.PayoutRequest{
		Channel:        domain.ChannelProfit,
		Destination:    domain.Destination{WalletID: "w_1"},
		Amount:         domain.MoneyFromFloat(20, "EUR"),
		IdempotencyKey: "idem-1",
	}
}

func TestMachine_CreatedQueuedPaid_Succeeds(t *testing.T) {
	rail := &fakeRail{
		createRes: domain.CreatedPayout{ID: "po_1", Status: "created"},
		statuses:  []string{"created", "queued", "paid"},
	}
	sink := &recordingSink{}
	m := NewMachine(rail, sink, fastConfig())

	got := m.Run(context.Background(), testRequest())

	if got.Kind != domain.ResultSucceeded {
		t.Fatalf("Kind = %s, want SUCCEEDED (result %+v)", got.Kind, got)
	}
	if got.ExternalID != "po_1" {
		t.Errorf("ExternalID = %q, want po_1", got.ExternalID)
	}
	if got.Status != "paid" {
		t.Errorf("Status = %q, want paid", got.Status)
	}
	if sink.count("payout_created") != 1 {
		t.Errorf("payout_created emitted %d times, want 1", sink.count("payout_created"))
	}
	if sink.count("payout_status") < 1 {
		t.Error("expected at least one payout_status emission")
	}
}

func TestMachine_StuckInQueued_TimesOut(t *testing.T) {
	rail := &fakeRail{
		createRes: domain.CreatedPayout{ID: "po_2", Status: "created"},
		statuses:  []string{"queued"},
	}
	m := NewMachine(rail, nil, fastConfig())

	start := time.Now()
	got := m.Run(context.Background(), testRequest())
	elapsed := time.Since(start)

	if got.Kind != domain.ResultTimedOut {
		t.Fatalf("Kind = %s, want TIMED_OUT", got.Kind)
	}
	if got.Status != "queued" {
		t.Errorf("last known status = %q, want queued", got.Status)
	}
	if elapsed < 90*time.Millisecond {
		t.Errorf("returned after %s, before the %s timeout", elapsed, fastConfig().PollTimeout)
	}
}

func TestMachine_TerminalStatusValues(t *testing.T) {
	tests := []struct {
		status string
		want   domain.ResultKind
	}{
		{"paid", domain.ResultSucceeded},
		{"complete", domain.ResultSucceeded},
		{"completed", domain.ResultSucceeded},
		{"confirmed", domain.ResultSucceeded},
		{"succeeded", domain.ResultSucceeded},
		{"success", domain.ResultSucceeded},
		{"PAID", domain.ResultSucceeded}, // classification is case-insensitive
		{"failed", domain.ResultFailed},
		{"rejected", domain.ResultFailed},
		{"canceled", domain.ResultFailed},
		{"cancelled", domain.ResultFailed},
		{"error", domain.ResultFailed},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			rail := &fakeRail{
				createRes: domain.CreatedPayout{ID: "po_3", Status: "created"},
				statuses:  []string{tt.status},
			}
			m := NewMachine(rail, nil, fastConfig())
			got := m.Run(context.Background(), testRequest())
			if got.Kind != tt.want {
				t.Errorf("status %q resolved to %s, want %s", tt.status, got.Kind, tt.want)
			}
		})
	}
}

func TestMachine_CreateAlreadyTerminal_SkipsPolling(t *testing.T) {
	rail := &fakeRail{
		createRes: domain.CreatedPayout{ID: "po_4", Status: "paid"},
	}
	m := NewMachine(rail, nil, fastConfig())

	got := m.Run(context.Background(), testRequest())

	if got.Kind != domain.ResultSucceeded {
		t.Fatalf("Kind = %s, want SUCCEEDED", got.Kind)
	}
	if rail.calls != 0 {
		t.Errorf("GetPayout called %d times, want 0", rail.calls)
	}
}

func TestMachine_CreateFailure_IsFailedResult(t *testing.T) {
	rail := &fakeRail{createErr: errors.New("payout create returned 422")}
	m := NewMachine(rail, nil, fastConfig())

	got := m.Run(context.Background(), testRequest())

	if got.Kind != domain.ResultFailed {
		t.Fatalf("Kind = %s, want FAILED", got.Kind)
	}
	if got.Error == "" {
		t.Error("Failed result should carry the error message")
	}
}

func TestMachine_StatusFetchErrorsDoNotFailLeg(t *testing.T) {
	// Fetch errors are observation failures: the machine keeps polling and
	// the timeout bounds the wait.
	rail := &fakeRail{
		createRes: domain.CreatedPayout{ID: "po_5", Status: "created"},
		getErr:    errors.New("connection reset"),
	}
	m := NewMachine(rail, nil, fastConfig())

	got := m.Run(context.Background(), testRequest())

	if got.Kind != domain.ResultTimedOut {
		t.Fatalf("Kind = %s, want TIMED_OUT", got.Kind)
	}
	if got.Status != "created" {
		t.Errorf("last known status = %q, want created (from creation response)", got.Status)
	}
}

func TestMachine_CancelledContextAbandonsPolling(t *testing.T) {
	rail := &fakeRail{
		createRes: domain.CreatedPayout{ID: "po_6", Status: "created"},
		statuses:  []string{"queued"},
	}
	m := NewMachine(rail, nil, Config{PollInterval: 5 * time.Millisecond, PollTimeout: 10 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	got := m.Run(ctx, testRequest())

	if got.Kind != domain.ResultTimedOut {
		t.Fatalf("Kind = %s, want TIMED_OUT on abandonment", got.Kind)
	}
	if time.Since(start) > time.Second {
		t.Error("abandonment should return promptly, not wait for the poll timeout")
	}
}
