package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrAlreadyClosed   = errors.New("already closed")
	ErrStaleConnection = errors.New("connection stale (no ping)")
)

// State is the process-wide connection state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// TokenSource supplies the current auth token. The second return is false
// when the user has not logged in yet; connecting without a token is a
// silent no-op, not an error.
type TokenSource interface {
	Token() (string, bool)
}

// TokenFunc adapts a function to the TokenSource interface.
type TokenFunc func() (string, bool)

func (f TokenFunc) Token() (string, bool) { return f() }

// TimestampedMessage wraps raw frame bytes with a receive timestamp.
type TimestampedMessage struct {
	Data       []byte
	ReceivedAt time.Time
}

// ClientConfig configures a single WebSocket client.
type ClientConfig struct {
	URL              string        // Full dial URL including the token credential
	HandshakeTimeout time.Duration // Transport handshake timeout
	WriteTimeout     time.Duration // Write deadline for sends
	PingInterval     time.Duration // Keepalive ping cadence
	PingTimeout      time.Duration // Max silence before the connection is stale
	BufferSize       int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		PingInterval:     30 * time.Second,
		PingTimeout:      90 * time.Second,
		BufferSize:       256,
	}
}

// ManagerConfig configures the Connection Manager.
type ManagerConfig struct {
	URL                  string        // Realtime endpoint (ws:// or wss://)
	TokenParam           string        // Query parameter carrying the token
	ReconnectBaseDelay   time.Duration // First retry delay; doubles per attempt
	ReconnectMaxDelay    time.Duration // Backoff ceiling
	MaxReconnectAttempts int           // Retries before giving up until an external Connect
	WriteTimeout         time.Duration
	PingInterval         time.Duration
	PingTimeout          time.Duration
	BufferSize           int
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		TokenParam:           "token",
		ReconnectBaseDelay:   time.Second,
		ReconnectMaxDelay:    30 * time.Second,
		MaxReconnectAttempts: 5,
		WriteTimeout:         5 * time.Second,
		PingInterval:         30 * time.Second,
		PingTimeout:          90 * time.Second,
		BufferSize:           256,
	}
}

// backoffDelay returns the wait before reconnect attempt n (0-based):
// base * 2^n, capped at max.
func backoffDelay(attempt int, base, max time.Duration) time.Duration {
	if attempt > 30 {
		return max
	}
	d := base << uint(attempt)
	if d > max || d <= 0 {
		d = max
	}
	return d
}
