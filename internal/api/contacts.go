package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/pipedesk/clientsync/internal/model"
)

// ContactFilter narrows ListContacts results.
type ContactFilter struct {
	Search  string
	Company string
	OwnerID uuid.UUID
	Limit   int
}

func (f ContactFilter) query() url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Company != "" {
		q.Set("company", f.Company)
	}
	if f.OwnerID != uuid.Nil {
		q.Set("owner_id", f.OwnerID.String())
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// ListContacts fetches contacts matching the filter.
func (c *Client) ListContacts(ctx context.Context, filter ContactFilter) ([]model.Contact, error) {
	var resp struct {
		Contacts []model.Contact `json:"contacts"`
	}
	if err := c.getWithRetry(ctx, "/contacts", filter.query(), &resp); err != nil {
		return nil, err
	}
	return resp.Contacts, nil
}

// GetContact fetches a single contact.
func (c *Client) GetContact(ctx context.Context, id uuid.UUID) (model.Contact, error) {
	var contact model.Contact
	if err := c.getWithRetry(ctx, "/contacts/"+id.String(), nil, &contact); err != nil {
		return model.Contact{}, err
	}
	return contact, nil
}

// CreateContact creates a contact and returns the server's record, which
// carries the assigned ID and timestamps.
func (c *Client) CreateContact(ctx context.Context, contact model.Contact) (model.Contact, error) {
	var created model.Contact
	if err := c.do(ctx, http.MethodPost, "/contacts", contact, &created); err != nil {
		return model.Contact{}, err
	}
	return created, nil
}

// UpdateContact updates a contact and returns the authoritative record.
func (c *Client) UpdateContact(ctx context.Context, contact model.Contact) (model.Contact, error) {
	var updated model.Contact
	if err := c.do(ctx, http.MethodPut, "/contacts/"+contact.ID.String(), contact, &updated); err != nil {
		return model.Contact{}, err
	}
	return updated, nil
}

// DeleteContact deletes a contact.
func (c *Client) DeleteContact(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/contacts/"+id.String(), nil, nil)
}
