package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/pipedesk/clientsync/internal/model"
)

// ListOpportunities fetches opportunities, optionally filtered by stage.
func (c *Client) ListOpportunities(ctx context.Context, stage string) ([]model.Opportunity, error) {
	q := url.Values{}
	if stage != "" {
		q.Set("stage", stage)
	}
	var resp struct {
		Opportunities []model.Opportunity `json:"opportunities"`
	}
	if err := c.getWithRetry(ctx, "/opportunities", q, &resp); err != nil {
		return nil, err
	}
	return resp.Opportunities, nil
}

// GetOpportunity fetches a single opportunity.
func (c *Client) GetOpportunity(ctx context.Context, id uuid.UUID) (model.Opportunity, error) {
	var opp model.Opportunity
	if err := c.getWithRetry(ctx, "/opportunities/"+id.String(), nil, &opp); err != nil {
		return model.Opportunity{}, err
	}
	return opp, nil
}

// UpdateOpportunity updates an opportunity (stage moves, amount changes)
// and returns the authoritative record.
func (c *Client) UpdateOpportunity(ctx context.Context, opp model.Opportunity) (model.Opportunity, error) {
	var updated model.Opportunity
	if err := c.do(ctx, http.MethodPut, "/opportunities/"+opp.ID.String(), opp, &updated); err != nil {
		return model.Opportunity{}, err
	}
	return updated, nil
}

// DeleteOpportunity deletes an opportunity.
func (c *Client) DeleteOpportunity(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/opportunities/"+id.String(), nil, nil)
}
