// Package bnbagent is a Go client for the BNB Chain agent REST API.
package bnbagent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"
)

// DefaultHTTPTimeout is used by clients created without a custom http.Client.
// Transactions wait for a receipt, so it is longer than a plain API call.
const DefaultHTTPTimeout = 3 * time.Minute

// Client wraps the HTTP interactions with the agent API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// Action describes one entry of the action catalogue.
type Action struct {
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Similes      []string  `json:"similes,omitempty"`
	Examples     []Example `json:"examples,omitempty"`
	Capabilities []string  `json:"capabilities,omitempty"`
	State        string    `json:"state"`
	Reason       string    `json:"reason,omitempty"`
}

// Example is a sample exchange for an action.
type Example struct {
	User  string `json:"user"`
	Agent string `json:"agent"`
}

// Request asks the agent to run an action.
type Request struct {
	RequestID string         `json:"requestId,omitempty"`
	Text      string         `json:"text"`
	Options   map[string]any `json:"options,omitempty"`
}

// Response is the outcome of an action.
type Response struct {
	RequestID  string `json:"requestId"`
	Action     string `json:"action"`
	Result     Result `json:"result"`
	DurationMS int64  `json:"durationMs"`
}

// Result is the action outcome. Failed actions carry Error; they are not
// reported as Go errors.
type Result struct {
	Success bool           `json:"success"`
	Text    string         `json:"text"`
	Content map[string]any `json:"content,omitempty"`
	Error   *ActionError   `json:"error,omitempty"`
}

// ActionError describes a failed action.
type ActionError struct {
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// Hash returns the transaction hash of the result, if any.
func (r Result) Hash() string {
	hash, _ := r.Content["hash"].(string)
	return hash
}

// Record is one entry of the action history.
type Record struct {
	ID        int64  `json:"id"`
	RequestID string `json:"requestId"`
	Action    string `json:"action"`
	Text      string `json:"text"`
	Chain     string `json:"chain,omitempty"`
	Success   bool   `json:"success"`
	Kind      string `json:"errorKind,omitempty"`
	Hash      string `json:"hash,omitempty"`
	Outcome   string `json:"outcome"`
	CreatedAt int64  `json:"createdAt"`
}

// APIError represents a request the server rejected.
type APIError struct {
	StatusCode int
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Code != "" {
		return fmt.Sprintf("bnbagent api error (%d): %s - %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("bnbagent api error (%d): %s", e.StatusCode, e.Message)
}

// NewClient returns a client for the API served at rawURL.
func NewClient(rawURL string, httpClient *http.Client) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{baseURL: parsed, httpClient: httpClient}, nil
}

// Actions lists the action catalogue.
func (c *Client) Actions(ctx context.Context) ([]Action, error) {
	var out struct {
		Actions []Action `json:"actions"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/actions", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Actions, nil
}

// Dispatch runs action.
func (c *Client) Dispatch(ctx context.Context, action string, req Request) (Response, error) {
	var resp Response
	if err := c.do(ctx, http.MethodPost, "/api/v1/actions/"+url.PathEscape(action), nil, req, &resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}

// History returns up to limit records, newest first. A non-positive limit
// uses the server default.
func (c *Client) History(ctx context.Context, limit int) ([]Record, error) {
	var query url.Values
	if limit > 0 {
		query = url.Values{"limit": []string{strconv.Itoa(limit)}}
	}
	var out struct {
		Records []Record `json:"records"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/history", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

// Healthy reports whether the server answers its health check.
func (c *Client) Healthy(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	u := *c.baseURL
	u.Path = path.Join(c.baseURL.Path, endpoint)
	u.RawPath = ""
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read error response: %w", err)
		}
		_ = json.Unmarshal(data, &struct {
			Error *APIError `json:"error"`
		}{Error: apiErr})
		if apiErr.Message == "" {
			apiErr.Message = string(bytes.TrimSpace(data))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
