package notify

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/pipedesk/clientsync/internal/router"
	"github.com/pipedesk/clientsync/internal/wire"
)

type captureSink struct {
	mu     sync.Mutex
	alerts []Alert
}

func (s *captureSink) Deliver(a Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, a)
}

func (s *captureSink) all() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

type nopSender struct{}

func (nopSender) Send(string, map[string]any) {}

func newTestRouter() *router.Router {
	return router.New(nopSender{}, nil)
}

func TestBridge_DealUpdateProducesOneAlert(t *testing.T) {
	r := newTestRouter()
	sink := &captureSink{}
	b := NewBridge(sink, 0, nil)
	b.Bind(r)
	defer b.Close()

	r.Dispatch(wire.New("deal_update", map[string]any{
		"id":     "d-1",
		"name":   "Acme",
		"stage":  "Proposal",
		"amount": 50000.0,
	}))

	alerts := sink.all()
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want exactly 1", len(alerts))
	}
	a := alerts[0]
	if a.Kind != wire.KindDealUpdate {
		t.Errorf("Kind = %q, want %q", a.Kind, wire.KindDealUpdate)
	}
	text := a.Title + " " + a.Body
	if !strings.Contains(text, "Acme") {
		t.Errorf("alert %q does not mention the deal name", text)
	}
	if !strings.Contains(text, "Proposal") {
		t.Errorf("alert %q does not mention the new stage", text)
	}
	if a.ID == "" {
		t.Error("alert ID should be set")
	}
}

func TestBridge_NotificationAlert(t *testing.T) {
	r := newTestRouter()
	sink := &captureSink{}
	b := NewBridge(sink, 0, nil)
	b.Bind(r)
	defer b.Close()

	r.Dispatch(wire.New("notification", map[string]any{
		"title": "Quota reached",
		"body":  "You hit 100% of quota",
	}))

	alerts := sink.all()
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}
	if alerts[0].Title != "Quota reached" {
		t.Errorf("Title = %q, want %q", alerts[0].Title, "Quota reached")
	}
}

func TestBridge_AchievementAlert(t *testing.T) {
	r := newTestRouter()
	sink := &captureSink{}
	b := NewBridge(sink, 0, nil)
	b.Bind(r)
	defer b.Close()

	r.Dispatch(wire.New("achievement_unlocked", map[string]any{
		"name":        "Closer",
		"description": "Closed 10 deals",
	}))

	alerts := sink.all()
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}
	if !strings.Contains(alerts[0].Title, "Closer") {
		t.Errorf("Title = %q, want it to name the achievement", alerts[0].Title)
	}
}

func TestBridge_MalformedPayloadProducesGenericAlert(t *testing.T) {
	r := newTestRouter()
	sink := &captureSink{}
	b := NewBridge(sink, 0, nil)
	b.Bind(r)
	defer b.Close()

	// Missing required title field.
	r.Dispatch(wire.New("notification", map[string]any{"body": "orphan body"}))

	alerts := sink.all()
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1 generic alert", len(alerts))
	}
	if alerts[0].Title != "New activity" {
		t.Errorf("Title = %q, want generic fallback", alerts[0].Title)
	}
}

func TestBridge_RecentBufferCapped(t *testing.T) {
	r := newTestRouter()
	b := NewBridge(nil, 0, nil)
	b.Bind(r)
	defer b.Close()

	for i := 0; i < DefaultRecentLimit+10; i++ {
		r.Dispatch(wire.New("notification", map[string]any{
			"title": fmt.Sprintf("n-%d", i),
		}))
	}

	recent := b.Recent()
	if len(recent) != DefaultRecentLimit {
		t.Fatalf("retained %d alerts, want %d", len(recent), DefaultRecentLimit)
	}
	// Oldest ten were evicted.
	if recent[0].Title != "n-10" {
		t.Errorf("oldest retained = %q, want %q", recent[0].Title, "n-10")
	}
	if recent[len(recent)-1].Title != fmt.Sprintf("n-%d", DefaultRecentLimit+9) {
		t.Errorf("newest retained = %q, want %q", recent[len(recent)-1].Title, fmt.Sprintf("n-%d", DefaultRecentLimit+9))
	}
}

func TestBridge_CloseStopsAlerts(t *testing.T) {
	r := newTestRouter()
	sink := &captureSink{}
	b := NewBridge(sink, 0, nil)
	b.Bind(r)

	r.Dispatch(wire.New("mention", map[string]any{
		"author":  "Sam",
		"snippet": "see the Acme notes",
	}))
	b.Close()
	r.Dispatch(wire.New("mention", map[string]any{
		"author":  "Sam",
		"snippet": "another one",
	}))

	if got := len(sink.all()); got != 1 {
		t.Errorf("got %d alerts after Close, want 1", got)
	}
}

func TestBridge_CloseIdempotent(t *testing.T) {
	b := NewBridge(nil, 0, nil)
	b.Bind(newTestRouter())
	b.Close()
	b.Close()
}

func TestBridge_ResourceEventsNotAlerted(t *testing.T) {
	r := newTestRouter()
	sink := &captureSink{}
	b := NewBridge(sink, 0, nil)
	b.Bind(r)
	defer b.Close()

	r.Dispatch(wire.New("resource_changed", map[string]any{
		"resource": "contact",
		"id":       "c-1",
		"action":   "updated",
	}))

	if got := len(sink.all()); got != 0 {
		t.Errorf("got %d alerts for resource_changed, want 0", got)
	}
}
