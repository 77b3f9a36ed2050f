package model

import (
	"time"

	"github.com/google/uuid"
)

// Lead statuses.
const (
	LeadStatusNew       = "NEW"
	LeadStatusContacted = "CONTACTED"
	LeadStatusQualified = "QUALIFIED"
	LeadStatusConverted = "CONVERTED"
)

// Contact is a person record.
type Contact struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	OwnerID   uuid.UUID `json:"owner_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Lead is an unqualified prospect.
type Lead struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   string    `json:"company,omitempty"`
	Status    string    `json:"status"` // NEW, CONTACTED, QUALIFIED, CONVERTED
	Score     int       `json:"score"`  // 0-100, server-derived
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Opportunity is a deal in the pipeline.
type Opportunity struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Stage     string    `json:"stage"` // e.g. "Prospecting", "Proposal", "Closed Won"
	Amount    float64   `json:"amount"`
	ContactID uuid.UUID `json:"contact_id,omitempty"`
	CloseDate time.Time `json:"close_date,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Task is a to-do attached to a record.
type Task struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Due       time.Time `json:"due,omitempty"`
	Done      bool      `json:"done"`
	RelatedTo string    `json:"related_to,omitempty"` // cache key of the related record
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LeadConversion is the server's response to converting a lead: the lead in
// its terminal state plus the records created from it.
type LeadConversion struct {
	Lead        Lead        `json:"lead"`
	Contact     Contact     `json:"contact"`
	Opportunity Opportunity `json:"opportunity"`
}

// Cache key prefixes, one per resource class.
const (
	ContactKeyPrefix     = "contact:"
	LeadKeyPrefix        = "lead:"
	OpportunityKeyPrefix = "opportunity:"
	TaskKeyPrefix        = "task:"
)

// ContactKey returns the cache key for a single contact.
func ContactKey(id uuid.UUID) string { return ContactKeyPrefix + id.String() }

// LeadKey returns the cache key for a single lead.
func LeadKey(id uuid.UUID) string { return LeadKeyPrefix + id.String() }

// OpportunityKey returns the cache key for a single opportunity.
func OpportunityKey(id uuid.UUID) string { return OpportunityKeyPrefix + id.String() }

// TaskKey returns the cache key for a single task.
func TaskKey(id uuid.UUID) string { return TaskKeyPrefix + id.String() }
