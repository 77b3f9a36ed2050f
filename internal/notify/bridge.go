package notify

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pipedesk/clientsync/internal/router"
	"github.com/pipedesk/clientsync/internal/wire"
)

// DefaultRecentLimit is the number of alerts retained for the
// notification center when no limit is configured.
const DefaultRecentLimit = 50

// Alert is a single user-facing system notification.
type Alert struct {
	ID    string    `json:"id"`
	Kind  wire.Kind `json:"kind"`
	Title string    `json:"title"`
	Body  string    `json:"body"`
	Time  time.Time `json:"time"`
}

// Sink receives alerts as they are produced. Implementations hand off
// to the host platform's notification facility.
type Sink interface {
	Deliver(Alert)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Alert)

// Deliver calls f(a).
func (f SinkFunc) Deliver(a Alert) { f(a) }

// Bridge subscribes to user-facing event channels and forwards each
// event to a Sink as one Alert.
type Bridge struct {
	sink   Sink
	logger *slog.Logger
	limit  int

	mu     sync.Mutex
	recent []Alert
	unsubs []func()
	closed bool
}

// NewBridge creates a Bridge delivering to sink. The bridge produces no
// alerts until Bind attaches it to a router. If logger is nil,
// slog.Default() is used.
func NewBridge(sink Sink, limit int, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return &Bridge{
		sink:   sink,
		logger: logger,
		limit:  limit,
	}
}

// Bind subscribes the bridge to the user-facing channels on r.
// Calling Bind on a closed bridge is a no-op.
func (b *Bridge) Bind(r *router.Router) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	channels := []wire.Kind{
		wire.KindNotification,
		wire.KindAchievement,
		wire.KindMention,
		wire.KindDealUpdate,
	}
	for _, ch := range channels {
		b.unsubs = append(b.unsubs, r.Subscribe(string(ch), b.handleEvent))
	}
}

// Close unsubscribes from all channels. No alerts are produced after
// Close returns. Close is idempotent.
func (b *Bridge) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	unsubs := b.unsubs
	b.unsubs = nil
	b.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

// Recent returns a copy of the retained alerts, oldest first.
func (b *Bridge) Recent() []Alert {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Alert, len(b.recent))
	copy(out, b.recent)
	return out
}

func (b *Bridge) handleEvent(env wire.Envelope) {
	alert := b.build(env)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.recent = append(b.recent, alert)
	if len(b.recent) > b.limit {
		b.recent = b.recent[len(b.recent)-b.limit:]
	}
	b.mu.Unlock()

	if b.sink != nil {
		b.sink.Deliver(alert)
	}
}

// build maps one envelope to one alert. Decode failures degrade to a
// generic alert rather than dropping the event.
func (b *Bridge) build(env wire.Envelope) Alert {
	alert := Alert{
		ID:   ulid.Make().String(),
		Kind: wire.KindOf(env),
		Time: env.Timestamp,
	}
	if alert.Time.IsZero() {
		alert.Time = time.Now().UTC()
	}

	switch alert.Kind {
	case wire.KindNotification:
		n, err := wire.DecodeNotification(env)
		if err != nil {
			return b.generic(alert, env, err)
		}
		alert.Title = n.Title
		alert.Body = n.Body
	case wire.KindAchievement:
		a, err := wire.DecodeAchievement(env)
		if err != nil {
			return b.generic(alert, env, err)
		}
		alert.Title = "Achievement unlocked: " + a.Name
		alert.Body = a.Description
	case wire.KindMention:
		m, err := wire.DecodeMention(env)
		if err != nil {
			return b.generic(alert, env, err)
		}
		alert.Title = m.Author + " mentioned you"
		alert.Body = m.Snippet
	case wire.KindDealUpdate:
		d, err := wire.DecodeDealUpdate(env)
		if err != nil {
			return b.generic(alert, env, err)
		}
		alert.Title = "Deal updated: " + d.Name
		alert.Body = fmt.Sprintf("%s moved to %s", d.Name, d.Stage)
	default:
		return b.generic(alert, env, nil)
	}

	return alert
}

func (b *Bridge) generic(alert Alert, env wire.Envelope, err error) Alert {
	if err != nil {
		b.logger.Warn("malformed event payload, delivering generic alert",
			"type", env.Type,
			"error", err,
		)
	}
	alert.Title = "New activity"
	alert.Body = "You have a new " + env.Type + " event"
	return alert
}
