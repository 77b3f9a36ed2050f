package cache

import (
	"testing"

	"github.com/pipedesk/clientsync/internal/router"
	"github.com/pipedesk/clientsync/internal/wire"
)

type nopSender struct{}

func (nopSender) Send(string, map[string]any) {}

func TestBindRouter_DealUpdateInvalidatesOpportunities(t *testing.T) {
	s := newTestStore(t)
	r := router.New(nopSender{}, nil)

	seed(t, s, "opportunity:9", "v")
	seed(t, s, "contact:1", "v")

	unbind := s.BindRouter(r, DefaultRules())
	defer unbind()

	r.Dispatch(wire.Envelope{
		Type:    "deal_update",
		Payload: map[string]any{"id": "9", "name": "Acme", "stage": "Proposal"},
	})

	if res, _ := s.Peek("opportunity:9"); !res.Stale {
		t.Error("opportunity:9 should be stale after deal_update")
	}
	if res, _ := s.Peek("contact:1"); res.Stale {
		t.Error("contact:1 should be untouched by deal_update")
	}
}

func TestBindRouter_LeadConversionFansOut(t *testing.T) {
	s := newTestStore(t)
	r := router.New(nopSender{}, nil)

	seed(t, s, "lead:7", "v")
	seed(t, s, "contact:1", "v")
	seed(t, s, "opportunity:9", "v")
	seed(t, s, "task:3", "v")

	unbind := s.BindRouter(r, DefaultRules())
	defer unbind()

	r.Dispatch(wire.Envelope{Type: "lead_converted", Payload: map[string]any{"id": "7"}})

	for _, key := range []string{"lead:7", "contact:1", "opportunity:9"} {
		if res, _ := s.Peek(key); !res.Stale {
			t.Errorf("%s should be stale after lead_converted", key)
		}
	}
	if res, _ := s.Peek("task:3"); res.Stale {
		t.Error("task:3 should be untouched by lead_converted")
	}
}

func TestBindRouter_ResourceChangedDeleteEvicts(t *testing.T) {
	s := newTestStore(t)
	r := router.New(nopSender{}, nil)

	seed(t, s, "contact:42", "v")

	unbind := s.BindRouter(r, DefaultRules())
	defer unbind()

	r.Dispatch(wire.Envelope{
		Type:    "resource_changed",
		Payload: map[string]any{"resource": "contact", "id": "42", "action": "deleted"},
	})

	if _, ok := s.Peek("contact:42"); ok {
		t.Error("contact:42 should be evicted after a deleted resource_changed")
	}
}

func TestBindRouter_ResourceChangedUpdateInvalidates(t *testing.T) {
	s := newTestStore(t)
	r := router.New(nopSender{}, nil)

	seed(t, s, "task:3", "v")

	unbind := s.BindRouter(r, DefaultRules())
	defer unbind()

	r.Dispatch(wire.Envelope{
		Type:    "resource_changed",
		Payload: map[string]any{"resource": "task", "action": "updated"},
	})

	if res, _ := s.Peek("task:3"); !res.Stale {
		t.Error("task:3 should be stale after resource_changed")
	}
}

func TestBindRouter_UnbindStopsInvalidation(t *testing.T) {
	s := newTestStore(t)
	r := router.New(nopSender{}, nil)

	seed(t, s, "opportunity:9", "v")

	unbind := s.BindRouter(r, DefaultRules())
	unbind()

	r.Dispatch(wire.Envelope{
		Type:    "deal_update",
		Payload: map[string]any{"name": "Acme", "stage": "Won"},
	})

	if res, _ := s.Peek("opportunity:9"); res.Stale {
		t.Error("unbound store should not react to push events")
	}
}
