package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/pipedesk/clientsync/internal/model"
)

// ListTasks fetches the user's tasks.
func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var resp struct {
		Tasks []model.Task `json:"tasks"`
	}
	if err := c.getWithRetry(ctx, "/tasks", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// CreateTask creates a task and returns the server's record.
func (c *Client) CreateTask(ctx context.Context, task model.Task) (model.Task, error) {
	var created model.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", task, &created); err != nil {
		return model.Task{}, err
	}
	return created, nil
}

// CompleteTask marks a task done and returns the authoritative record.
func (c *Client) CompleteTask(ctx context.Context, id uuid.UUID) (model.Task, error) {
	var updated model.Task
	if err := c.do(ctx, http.MethodPost, "/tasks/"+id.String()+"/complete", nil, &updated); err != nil {
		return model.Task{}, err
	}
	return updated, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+id.String(), nil, nil)
}
