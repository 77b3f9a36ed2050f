package cache

import (
	"github.com/pipedesk/clientsync/internal/model"
	"github.com/pipedesk/clientsync/internal/router"
	"github.com/pipedesk/clientsync/internal/wire"
)

// InvalidationRule maps a realtime channel to the cache key prefixes it
// invalidates. This is what keeps the cache correct for changes made by
// other sessions, which optimistic mutation alone cannot see.
type InvalidationRule struct {
	Channel  string
	Prefixes []string
}

// DefaultRules covers the known push channels. A lead conversion fans out
// to contacts and opportunities, so the caller never has to cross-reference
// dependent resource classes manually.
func DefaultRules() []InvalidationRule {
	return []InvalidationRule{
		{Channel: "deal_update", Prefixes: []string{model.OpportunityKeyPrefix}},
		{Channel: "contact_changed", Prefixes: []string{model.ContactKeyPrefix}},
		{Channel: "lead_changed", Prefixes: []string{model.LeadKeyPrefix}},
		{Channel: "lead_converted", Prefixes: []string{
			model.LeadKeyPrefix,
			model.ContactKeyPrefix,
			model.OpportunityKeyPrefix,
		}},
		{Channel: "task_changed", Prefixes: []string{model.TaskKeyPrefix}},
		{Channel: "resource_changed", Prefixes: nil}, // prefixes come from the payload
	}
}

// BindRouter subscribes the store to the given push channels and returns a
// closure that removes all of the subscriptions.
func (s *Store) BindRouter(r *router.Router, rules []InvalidationRule) func() {
	unsubs := make([]func(), 0, len(rules))
	for _, rule := range rules {
		rule := rule
		unsubs = append(unsubs, r.Subscribe(rule.Channel, func(env wire.Envelope) {
			s.handlePush(rule, env)
		}))
	}

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

func (s *Store) handlePush(rule InvalidationRule, env wire.Envelope) {
	if wire.KindOf(env) == wire.KindResource {
		rc, err := wire.DecodeResourceChange(env)
		if err != nil {
			s.logger.Warn("unusable resource_changed event", "error", err)
			return
		}
		prefix := rc.Resource + ":"
		if rc.Action == "deleted" && rc.ID != "" {
			s.Evict(prefix + rc.ID)
			return
		}
		s.Invalidate(prefix)
		return
	}

	for _, prefix := range rule.Prefixes {
		s.Invalidate(prefix)
	}
}
