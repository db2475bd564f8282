// Package casedeskclient is a small HTTP client for the casedesk REST API.
// Error responses are decoded into *APIError so callers can branch on the
// code and read field errors, redirect hints and rollback values.
package casedeskclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds every request unless WithHTTPClient overrides it.
const DefaultTimeout = 30 * time.Second

// Error codes returned by the API.
const (
	CodeValidation      = "VALIDATION"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeForbidden       = "FORBIDDEN"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeNotTerminalStep = "NOT_TERMINAL_STEP"
	CodeInternal        = "INTERNAL"
)

// FieldError is one failed field in a validation response.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Rule    string `json:"rule,omitempty"`
}

// APIError is a decoded error response.
type APIError struct {
	Status       int          `json:"-"`
	Code         string       `json:"code"`
	Message      string       `json:"message"`
	Errors       []FieldError `json:"errors,omitempty"`
	RedirectStep *int         `json:"redirectStep,omitempty"`
	Redirect     string       `json:"redirect,omitempty"`
	// Current is the server-side value of a workflow status after a failed
	// update.
	Current   *string `json:"current,omitempty"`
	Version   *int    `json:"version,omitempty"`
	RequestID string  `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("casedesk: %d %s: %s", e.Status, e.Code, e.Message)
}

// AsAPIError extracts an *APIError from err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

type Option func(*Client)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New builds a client for baseURL, e.g. "https://api.example.com/api/v1".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, header http.Header) error {
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	ae := &APIError{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err := json.Unmarshal(raw, ae); err != nil || ae.Code == "" {
		ae.Code = CodeInternal
		if ae.Message == "" {
			ae.Message = http.StatusText(resp.StatusCode)
		}
	}
	return ae
}

func profilePath(profileID, suffix string) string {
	return "/profiles/" + url.PathEscape(profileID) + suffix
}

// ifMatch renders a version precondition; nil when version is zero.
func ifMatch(version int) http.Header {
	if version == 0 {
		return nil
	}
	return http.Header{"If-Match": {fmt.Sprintf(`"v%d"`, version)}}
}
