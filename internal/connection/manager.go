package connection

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pipedesk/clientsync/internal/wire"
)

// Manager owns the single realtime connection: it authenticates with the
// stored token, decodes inbound frames, and reconnects with capped
// exponential backoff. The close path is the only source of truth for state
// transitions; read errors just log and feed into it.
type Manager struct {
	cfg    ManagerConfig
	tokens TokenSource
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	attempts  int
	reconnect *time.Timer
	client    *Client

	onEnvelope func(wire.Envelope)
	onState    func(State)
}

// NewManager creates a Connection Manager. It does not connect; callers
// decide when (after login, on app foreground, etc).
func NewManager(cfg ManagerConfig, tokens TokenSource, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TokenParam == "" {
		cfg.TokenParam = "token"
	}

	return &Manager{
		cfg:    cfg,
		tokens: tokens,
		logger: logger,
		state:  StateDisconnected,
	}
}

// OnEnvelope registers the inbound envelope handler. Set before Connect.
func (m *Manager) OnEnvelope(fn func(wire.Envelope)) {
	m.mu.Lock()
	m.onEnvelope = fn
	m.mu.Unlock()
}

// OnStateChange registers an observer for connection state transitions.
func (m *Manager) OnStateChange(fn func(State)) {
	m.mu.Lock()
	m.onState = fn
	m.mu.Unlock()
}

// Connect establishes the connection. No-op when already connected or
// connecting, and silently no-op when no usable token is stored: the core
// tolerates being built before login completes.
func (m *Manager) Connect() {
	m.mu.Lock()
	if m.state != StateDisconnected {
		m.mu.Unlock()
		return
	}
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}

	token, ok := m.tokens.Token()
	if !ok || token == "" {
		m.mu.Unlock()
		m.logger.Debug("connect skipped, no auth token")
		return
	}
	if tokenExpired(token) {
		m.mu.Unlock()
		m.logger.Debug("connect skipped, token expired")
		return
	}

	dialURL, err := m.dialURL(token)
	if err != nil {
		m.mu.Unlock()
		m.logger.Error("invalid realtime endpoint", "url", m.cfg.URL, "error", err)
		return
	}

	client := NewClient(ClientConfig{
		URL:              dialURL,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     m.cfg.WriteTimeout,
		PingInterval:     m.cfg.PingInterval,
		PingTimeout:      m.cfg.PingTimeout,
		BufferSize:       m.cfg.BufferSize,
	}, m.logger)
	m.client = client
	m.state = StateConnecting
	m.mu.Unlock()

	m.notifyState(StateConnecting)

	go m.dial(client)
}

// Disconnect cancels any pending reconnect, closes the socket if open, and
// leaves the manager disconnected. Idempotent.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
	client := m.client
	m.client = nil
	changed := m.state != StateDisconnected
	m.state = StateDisconnected
	m.attempts = 0
	m.mu.Unlock()

	if client != nil {
		client.Close()
	}
	if changed {
		m.notifyState(StateDisconnected)
	}
}

// Send serializes {type, payload, timestamp} and writes it when connected.
// Otherwise the call is a silent no-op; there is no outbound queue.
func (m *Manager) Send(msgType string, payload map[string]any) {
	m.mu.Lock()
	client := m.client
	connected := m.state == StateConnected
	m.mu.Unlock()

	if !connected || client == nil {
		m.logger.Debug("send dropped, not connected", "type", msgType)
		return
	}

	data, err := wire.New(msgType, payload).Encode()
	if err != nil {
		m.logger.Warn("failed to encode outbound envelope", "type", msgType, "error", err)
		return
	}
	if err := client.Send(data); err != nil {
		m.logger.Warn("send failed", "type", msgType, "error", err)
	}
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsConnected reports whether the connection is established.
func (m *Manager) IsConnected() bool {
	return m.State() == StateConnected
}

// Attempts returns the reconnect attempts consumed since the last
// successful open.
func (m *Manager) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// dial completes the handshake for a client created by Connect.
func (m *Manager) dial(client *Client) {
	if err := client.Connect(context.Background()); err != nil {
		m.logger.Warn("connect failed", "error", err)
		client.Close()
		m.connectionLost(client)
		return
	}

	m.mu.Lock()
	if m.client != client {
		// Disconnect raced the handshake; this client is an orphan.
		m.mu.Unlock()
		client.Close()
		return
	}
	m.state = StateConnected
	m.attempts = 0
	m.mu.Unlock()

	m.logger.Info("realtime connected")
	m.notifyState(StateConnected)

	go m.readLoop(client)
}

// readLoop decodes inbound frames and hands envelopes to the router.
// Malformed frames are logged and dropped; one bad frame must not take the
// connection down.
func (m *Manager) readLoop(client *Client) {
	for {
		select {
		case err := <-client.Errors():
			m.logger.Warn("connection error", "error", err)
			client.Close()
			m.connectionLost(client)
			return

		case msg, ok := <-client.Messages():
			if !ok {
				m.connectionLost(client)
				return
			}
			env, err := wire.Parse(msg.Data)
			if err != nil {
				m.logger.Warn("dropping malformed frame", "error", err)
				continue
			}
			if fn := m.envelopeHandler(); fn != nil {
				fn(env)
			}
		}
	}
}

// connectionLost handles a close for the given client: transition to
// disconnected and schedule the next attempt unless the retry budget is
// spent. The cap leaves the connection dead until an external trigger
// (app foreground, manual retry) calls Connect again.
func (m *Manager) connectionLost(client *Client) {
	m.mu.Lock()
	if m.client != client {
		m.mu.Unlock()
		return
	}
	m.client = nil
	m.state = StateDisconnected

	retry := m.attempts < m.cfg.MaxReconnectAttempts
	var attempt int
	var delay time.Duration
	if retry {
		attempt = m.attempts
		delay = backoffDelay(attempt, m.cfg.ReconnectBaseDelay, m.cfg.ReconnectMaxDelay)
		m.attempts++
		m.reconnect = time.AfterFunc(delay, m.Connect)
	}
	m.mu.Unlock()

	if retry {
		m.logger.Info("reconnect scheduled", "attempt", attempt+1, "delay", delay)
	} else {
		m.logger.Warn("reconnect attempts exhausted, waiting for external trigger")
	}
	m.notifyState(StateDisconnected)
}

func (m *Manager) envelopeHandler() func(wire.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.onEnvelope
}

func (m *Manager) notifyState(s State) {
	m.mu.Lock()
	fn := m.onState
	m.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

// dialURL appends the token credential to the configured endpoint.
func (m *Manager) dialURL(token string) (string, error) {
	u, err := url.Parse(m.cfg.URL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(m.cfg.TokenParam, token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// tokenExpired reports whether the stored token is a JWT past its expiry.
// Opaque tokens (or JWTs without exp) are passed to the server as-is.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
