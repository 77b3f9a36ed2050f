package router

import (
	"log/slog"
	"sync"

	"github.com/pipedesk/clientsync/internal/wire"
)

// ChannelAll is the reserved wildcard channel; its subscribers receive
// every envelope regardless of type.
const ChannelAll = "all"

// Handler receives dispatched envelopes.
type Handler func(wire.Envelope)

// Sender is the outbound surface of the connection layer.
type Sender interface {
	Send(msgType string, payload map[string]any)
}

type registration struct {
	id int64
	fn Handler
}

// Router multiplexes the single connection into per-type subscription
// channels.
type Router struct {
	logger *slog.Logger
	sender Sender

	mu       sync.Mutex
	nextID   int64
	channels map[string][]registration
	live     map[int64]struct{}
}

// New creates a Router. Callers wire Dispatch to the connection's
// envelope handler.
func New(sender Sender, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		logger:   logger,
		sender:   sender,
		channels: make(map[string][]registration),
		live:     make(map[int64]struct{}),
	}
}

// Subscribe registers fn under channel and returns a closure that removes
// exactly this registration. Many registrations may share a channel; they
// are dispatched in registration order.
func (r *Router) Subscribe(channel string, fn Handler) func() {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.channels[channel] = append(r.channels[channel], registration{id: id, fn: fn})
	r.live[id] = struct{}{}
	r.mu.Unlock()

	return func() {
		r.unsubscribe(channel, id)
	}
}

// Send passes through to the connection layer.
func (r *Router) Send(msgType string, payload map[string]any) {
	r.sender.Send(msgType, payload)
}

// Dispatch delivers env to its type's subscribers, then to the wildcard
// subscribers. Wire this to the Connection Manager's OnEnvelope.
func (r *Router) Dispatch(env wire.Envelope) {
	r.mu.Lock()
	regs := make([]registration, 0, len(r.channels[env.Type])+len(r.channels[ChannelAll]))
	regs = append(regs, r.channels[env.Type]...)
	if env.Type != ChannelAll {
		regs = append(regs, r.channels[ChannelAll]...)
	}
	r.mu.Unlock()

	for _, reg := range regs {
		// Re-check liveness so an unsubscribe during this cycle silences
		// the callback even for the envelope already in flight.
		r.mu.Lock()
		_, ok := r.live[reg.id]
		r.mu.Unlock()
		if !ok {
			continue
		}
		r.invoke(reg.fn, env)
	}
}

// invoke runs one callback, containing panics so the rest of the dispatch
// cycle proceeds.
func (r *Router) invoke(fn Handler, env wire.Envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("subscriber panicked",
				"type", env.Type,
				"panic", rec,
			)
		}
	}()
	fn(env)
}

// unsubscribe removes one registration and drops the channel entry when it
// becomes empty, so dead channels do not accumulate.
func (r *Router) unsubscribe(channel string, id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.live, id)

	regs := r.channels[channel]
	for i, reg := range regs {
		if reg.id == id {
			r.channels[channel] = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}
	if len(r.channels[channel]) == 0 {
		delete(r.channels, channel)
	}
}

// subscriberCount reports registrations for a channel (tests only).
func (r *Router) subscriberCount(channel string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels[channel])
}

// channelCount reports how many channels have registrations (tests only).
func (r *Router) channelCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels)
}
