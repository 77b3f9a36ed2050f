package wire

import (
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	data := []byte(`{"type":"deal_update","payload":{"name":"Acme","stage":"Proposal"},"timestamp":"2026-03-01T12:00:00Z"}`)

	env, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if env.Type != "deal_update" {
		t.Errorf("Type = %q, want %q", env.Type, "deal_update")
	}
	if env.Payload["name"] != "Acme" {
		t.Errorf("Payload[name] = %v, want %q", env.Payload["name"], "Acme")
	}
	want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if !env.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", env.Timestamp, want)
	}
}

func TestParse_MissingType(t *testing.T) {
	_, err := Parse([]byte(`{"payload":{"a":1}}`))
	if !errors.Is(err, ErrMissingType) {
		t.Errorf("err = %v, want ErrMissingType", err)
	}
}

func TestParse_MalformedJSON(t *testing.T) {
	_, err := Parse([]byte(`{"type":`))
	if err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	env := New("task_completed", map[string]any{"id": "t-1"})

	data, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got.Type != "task_completed" {
		t.Errorf("Type = %q, want %q", got.Type, "task_completed")
	}
	if got.Payload["id"] != "t-1" {
		t.Errorf("Payload[id] = %v, want %q", got.Payload["id"], "t-1")
	}
	if got.Timestamp.IsZero() {
		t.Error("Timestamp should be set by New")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		msgType string
		want    Kind
	}{
		{"notification", KindNotification},
		{"achievement_unlocked", KindAchievement},
		{"mention", KindMention},
		{"deal_update", KindDealUpdate},
		{"resource_changed", KindResource},
		{"some_future_event", KindUnknown},
	}

	for _, tt := range tests {
		got := KindOf(Envelope{Type: tt.msgType})
		if got != tt.want {
			t.Errorf("KindOf(%q) = %q, want %q", tt.msgType, got, tt.want)
		}
	}
}

func TestDecodeDealUpdate(t *testing.T) {
	env := Envelope{
		Type: "deal_update",
		Payload: map[string]any{
			"id":     "opp-9",
			"name":   "Acme",
			"stage":  "Proposal",
			"amount": 50000.0,
		},
	}

	d, err := DecodeDealUpdate(env)
	if err != nil {
		t.Fatalf("DecodeDealUpdate failed: %v", err)
	}
	if d.Name != "Acme" {
		t.Errorf("Name = %q, want %q", d.Name, "Acme")
	}
	if d.Stage != "Proposal" {
		t.Errorf("Stage = %q, want %q", d.Stage, "Proposal")
	}
	if d.Amount != 50000 {
		t.Errorf("Amount = %v, want 50000", d.Amount)
	}
}

func TestDecodeDealUpdate_MissingFields(t *testing.T) {
	env := Envelope{Type: "deal_update", Payload: map[string]any{"stage": "Won"}}

	_, err := DecodeDealUpdate(env)
	if !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("err = %v, want ErrMalformedPayload", err)
	}
}

func TestDecodeNotification_NilPayload(t *testing.T) {
	_, err := DecodeNotification(Envelope{Type: "notification"})
	if !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("err = %v, want ErrMalformedPayload", err)
	}
}
