package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/pipedesk/clientsync/internal/model"
)

// ListLeads fetches leads, optionally filtered by status.
func (c *Client) ListLeads(ctx context.Context, status string) ([]model.Lead, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	var resp struct {
		Leads []model.Lead `json:"leads"`
	}
	if err := c.getWithRetry(ctx, "/leads", q, &resp); err != nil {
		return nil, err
	}
	return resp.Leads, nil
}

// GetLead fetches a single lead.
func (c *Client) GetLead(ctx context.Context, id uuid.UUID) (model.Lead, error) {
	var lead model.Lead
	if err := c.getWithRetry(ctx, "/leads/"+id.String(), nil, &lead); err != nil {
		return model.Lead{}, err
	}
	return lead, nil
}

// UpdateLead updates a lead and returns the authoritative record; the
// server recomputes the score on status changes.
func (c *Client) UpdateLead(ctx context.Context, lead model.Lead) (model.Lead, error) {
	var updated model.Lead
	if err := c.do(ctx, http.MethodPut, "/leads/"+lead.ID.String(), lead, &updated); err != nil {
		return model.Lead{}, err
	}
	return updated, nil
}

// ConvertLead converts a qualified lead into a contact and an opportunity.
func (c *Client) ConvertLead(ctx context.Context, id uuid.UUID) (model.LeadConversion, error) {
	var conv model.LeadConversion
	if err := c.do(ctx, http.MethodPost, "/leads/"+id.String()+"/convert", nil, &conv); err != nil {
		return model.LeadConversion{}, err
	}
	return conv, nil
}

// DeleteLead deletes a lead.
func (c *Client) DeleteLead(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/leads/"+id.String(), nil, nil)
}
