package wire

// Kind classifies the known server event types.
type Kind string

const (
	KindNotification Kind = "notification"
	KindAchievement  Kind = "achievement_unlocked"
	KindMention      Kind = "mention"
	KindDealUpdate   Kind = "deal_update"
	KindResource     Kind = "resource_changed"
	KindUnknown      Kind = "unknown"
)

// KindOf maps an envelope type to a known Kind, or KindUnknown.
func KindOf(e Envelope) Kind {
	switch Kind(e.Type) {
	case KindNotification, KindAchievement, KindMention, KindDealUpdate, KindResource:
		return Kind(e.Type)
	}
	return KindUnknown
}

// Notification is a generic user-facing notification pushed by the server.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Achievement announces a gamification achievement unlock.
type Achievement struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Mention announces that the user was mentioned on a record.
type Mention struct {
	Author   string `json:"author"`
	Snippet  string `json:"snippet"`
	RecordID string `json:"record_id"`
}

// DealUpdate announces a stage or amount change on an opportunity,
// possibly made by another session.
type DealUpdate struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Stage  string  `json:"stage"`
	Amount float64 `json:"amount"`
}

// ResourceChange announces that a server resource changed and cached
// copies of it should be refetched.
type ResourceChange struct {
	Resource string `json:"resource"` // e.g. "contact", "lead", "opportunity"
	ID       string `json:"id"`
	Action   string `json:"action"` // "created", "updated", "deleted"
}

// DecodeNotification extracts a Notification payload.
func DecodeNotification(e Envelope) (Notification, error) {
	var n Notification
	if err := decodePayload(e, &n); err != nil {
		return Notification{}, err
	}
	if n.Title == "" {
		return Notification{}, ErrMalformedPayload
	}
	return n, nil
}

// DecodeAchievement extracts an Achievement payload.
func DecodeAchievement(e Envelope) (Achievement, error) {
	var a Achievement
	if err := decodePayload(e, &a); err != nil {
		return Achievement{}, err
	}
	if a.Name == "" {
		return Achievement{}, ErrMalformedPayload
	}
	return a, nil
}

// DecodeMention extracts a Mention payload.
func DecodeMention(e Envelope) (Mention, error) {
	var m Mention
	if err := decodePayload(e, &m); err != nil {
		return Mention{}, err
	}
	if m.Author == "" {
		return Mention{}, ErrMalformedPayload
	}
	return m, nil
}

// DecodeDealUpdate extracts a DealUpdate payload.
func DecodeDealUpdate(e Envelope) (DealUpdate, error) {
	var d DealUpdate
	if err := decodePayload(e, &d); err != nil {
		return DealUpdate{}, err
	}
	if d.Name == "" {
		return DealUpdate{}, ErrMalformedPayload
	}
	return d, nil
}

// DecodeResourceChange extracts a ResourceChange payload.
func DecodeResourceChange(e Envelope) (ResourceChange, error) {
	var r ResourceChange
	if err := decodePayload(e, &r); err != nil {
		return ResourceChange{}, err
	}
	if r.Resource == "" {
		return ResourceChange{}, ErrMalformedPayload
	}
	return r, nil
}
