// Package logsink ships stage events to a telemetry endpoint on a
// best-effort basis. Emit never blocks the settlement path beyond a short
// bound, and sink failures are swallowed — telemetry must never affect
// settlement correctness.
package logsink

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"
)

// event is one stage observation queued for shipping.
type event struct {
	Stage string         `json:"stage"`
	Data  map[string]any `json:"data,omitempty"`
	At    time.Time      `json:"at"`
}

// Sink drains events to an HTTP endpoint from a background goroutine.
// A full queue drops the event rather than stalling the caller.
type Sink struct {
	url     string
	client  *http.Client
	queue   chan event
	done    chan struct{}
	wg      sync.WaitGroup
	dropped int64
	mu      sync.Mutex
}

// enqueueBound is the longest Emit will wait for queue space.
const enqueueBound = 250 * time.Millisecond

// New creates a sink shipping to url. An empty url yields a sink that
// discards everything (channels still call Emit unconditionally).
func New(url string) *Sink {
	s := &Sink{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
		queue:  make(chan event, 256),
		done:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.drain()
	return s
}

// Emit queues a stage event. Returns immediately once the event is queued,
// dropped, or the bound elapses.
func (s *Sink) Emit(stage string, data map[string]any) {
	ev := event{Stage: stage, Data: data, At: time.Now().UTC()}
	select {
	case s.queue <- ev:
	case <-time.After(enqueueBound):
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
	case <-s.done:
	}
}

// Close stops the drain goroutine. Queued events are abandoned; the sink is
// best-effort by contract.
func (s *Sink) Close() {
	close(s.done)
	s.wg.Wait()
}

// Dropped returns how many events were discarded (diagnostic).
func (s *Sink) Dropped() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Sink) drain() {
	defer s.wg.Done()
	for {
		select {
		case ev := <-s.queue:
			s.ship(ev)
		case <-s.done:
			return
		}
	}
}

// ship posts one event. Any failure is logged once and swallowed.
func (s *Sink) ship(ev event) {
	if s.url == "" {
		return
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return
	}
	resp, err := s.client.Post(s.url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[logsink] ship %s failed: %v", ev.Stage, err)
		return
	}
	resp.Body.Close()
}
