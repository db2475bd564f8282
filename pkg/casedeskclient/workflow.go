package casedeskclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

type WorkflowResult struct {
	UpdatedClient json.RawMessage `json:"updatedClient"`
	Status        string          `json:"status"`
}

// UpdateWorkflow sets one workflow sub-status (ds, visa, payment, eta). On
// failure the *APIError carries the server value in Current.
func (c *Client) UpdateWorkflow(ctx context.Context, profileID, field, value string) (*WorkflowResult, error) {
	var res WorkflowResult
	path := profilePath(profileID, "/workflow/"+url.PathEscape(field))
	if err := c.do(ctx, http.MethodPut, path, map[string]string{"status": value}, &res, nil); err != nil {
		return nil, err
	}
	return &res, nil
}

// Pending is a confirmation awaiting the caller's decision.
type Pending struct {
	Token  string `json:"token"`
	Kind   string `json:"kind"`
	Prompt string `json:"prompt"`
}

// RequestTransition asks for a profile status change and returns the
// confirmation to accept or cancel.
func (c *Client) RequestTransition(ctx context.Context, profileID, to string) (*Pending, error) {
	var p Pending
	if err := c.do(ctx, http.MethodPost, profilePath(profileID, "/transitions"), map[string]string{"to": to}, &p, nil); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Confirm(ctx context.Context, token string, out interface{}) error {
	return c.do(ctx, http.MethodPost, "/confirmations/"+url.PathEscape(token)+"/confirm", nil, out, nil)
}

func (c *Client) Cancel(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/confirmations/"+url.PathEscape(token), nil, nil, nil)
}
