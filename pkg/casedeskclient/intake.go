package casedeskclient

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Form is a profile's intake document.
type Form struct {
	ProfileID   string            `json:"profile_id"`
	Fields      map[string]string `json:"fields"`
	Version     int               `json:"version"`
	Editable    bool              `json:"editable"`
	LastStep    int               `json:"last_step"`
	SubmittedAt *time.Time        `json:"submitted_at,omitempty"`
}

type DraftRequest struct {
	Fields       map[string]string `json:"fields"`
	RedirectStep *int              `json:"redirectStep,omitempty"`
	Version      int               `json:"version,omitempty"`
}

type SaveResult struct {
	Message      string `json:"message"`
	RedirectStep *int   `json:"redirectStep,omitempty"`
	Version      int    `json:"version"`
}

type SubmitRequest struct {
	Fields     map[string]string `json:"fields"`
	IsEditing  bool              `json:"isEditing"`
	Step       int               `json:"step"`
	FromReview bool              `json:"fromReview"`
	Version    int               `json:"version,omitempty"`
}

type SubmitResult struct {
	Message     string    `json:"message"`
	Redirect    string    `json:"redirect"`
	Version     int       `json:"version"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type ReviewItem struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Value  string `json:"value"`
	Hidden bool   `json:"hidden,omitempty"`
}

type ReviewSection struct {
	Key   string       `json:"key"`
	Title string       `json:"title"`
	Step  int          `json:"step"`
	Items []ReviewItem `json:"items"`
}

type Review struct {
	Sections       []ReviewSection `json:"sections"`
	Version        int             `json:"version"`
	Editable       bool            `json:"editable"`
	SubmittedAt    *time.Time      `json:"submitted_at,omitempty"`
	ConfirmEnabled bool            `json:"confirmEnabled"`
}

func (c *Client) GetForm(ctx context.Context, profileID string) (*Form, error) {
	var f Form
	if err := c.do(ctx, http.MethodGet, profilePath(profileID, "/form"), nil, &f, nil); err != nil {
		return nil, err
	}
	return &f, nil
}

// SaveSection stores a draft of one section.
func (c *Client) SaveSection(ctx context.Context, profileID, section string, req DraftRequest) (*SaveResult, error) {
	var res SaveResult
	path := profilePath(profileID, "/form/sections/"+url.PathEscape(section))
	if err := c.do(ctx, http.MethodPut, path, req, &res, ifMatch(req.Version)); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Submit(ctx context.Context, profileID string, req SubmitRequest) (*SubmitResult, error) {
	var res SubmitResult
	if err := c.do(ctx, http.MethodPost, profilePath(profileID, "/form/submit"), req, &res, ifMatch(req.Version)); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetReview(ctx context.Context, profileID string) (*Review, error) {
	var r Review
	if err := c.do(ctx, http.MethodGet, profilePath(profileID, "/review"), nil, &r, nil); err != nil {
		return nil, err
	}
	return &r, nil
}

// ConfirmReview submits the persisted document from the review screen.
func (c *Client) ConfirmReview(ctx context.Context, profileID string, version int) (*SubmitResult, error) {
	var res SubmitResult
	body := map[string]interface{}{"version": version}
	if err := c.do(ctx, http.MethodPost, profilePath(profileID, "/review/confirm"), body, &res, nil); err != nil {
		return nil, err
	}
	return &res, nil
}
