// Package client talks to the task server and keeps client-side state: the
// persisted identity, a per-user task cache and the session state machine.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// Client is a thin JSON client for the task REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a Client for the server at baseURL. A nil httpClient gets a
// default one with a request timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type userEnvelope struct {
	User Identity `json:"user"`
}

// Login checks the credentials and returns the user's identity.
func (c *Client) Login(ctx context.Context, username, password string) (Identity, error) {
	var out userEnvelope
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return Identity{}, err
	}
	return out.User, nil
}

// Register creates an account and returns its identity.
func (c *Client) Register(ctx context.Context, reg Registration) (Identity, error) {
	var out userEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", reg, &out); err != nil {
		return Identity{}, err
	}
	return out.User, nil
}

// ListTasks returns the tasks owned by userID.
func (c *Client) ListTasks(ctx context.Context, userID string) ([]Task, error) {
	tasks := []Task{}
	path := "/api/tasks?userId=" + url.QueryEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask stores a new task.
func (c *Client) CreateTask(ctx context.Context, task NewTask) (Task, error) {
	var out Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", task, &out); err != nil {
		return Task{}, err
	}
	return out, nil
}

// UpdateTask applies a partial update.
func (c *Client) UpdateTask(ctx context.Context, id string, update TaskUpdate) (Task, error) {
	var out Task
	if err := c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), update, &out); err != nil {
		return Task{}, err
	}
	return out, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	var out struct {
		Success bool `json:"success"`
	}
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, &out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Error   string            `json:"error"`
			Details map[string]string `json:"details"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Message = payload.Error
			apiErr.Details = payload.Details
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
