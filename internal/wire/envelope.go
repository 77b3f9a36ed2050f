package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Errors
var (
	ErrMissingType      = errors.New("envelope missing type")
	ErrMalformedPayload = errors.New("malformed payload")
)

// Envelope is the unit of realtime communication in both directions.
// Immutable once received; timestamps are RFC 3339 on the wire.
type Envelope struct {
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// New builds an outbound envelope stamped with the current time.
func New(msgType string, payload map[string]any) Envelope {
	return Envelope{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Parse decodes a raw frame into an Envelope. A frame without a type is
// rejected so the router never dispatches to an unnameable channel.
func Parse(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, ErrMissingType
	}
	return env, nil
}

// Encode serializes the envelope for the wire.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// decodePayload round-trips the generic payload map into a typed struct.
func decodePayload(e Envelope, out any) error {
	if e.Payload == nil {
		return ErrMalformedPayload
	}
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}
