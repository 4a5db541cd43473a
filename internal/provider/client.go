// Package provider implements the generation provider's task API.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"callboard/internal/config"
	"callboard/internal/payload"
	"callboard/internal/services"
)

// State is the normalized task state. Providers report several terminal
// success strings; callers only ever see the three-way split.
type State int

const (
	StatePending State = iota
	StateSucceeded
	StateFailed
)

// CreateTaskResult is the provider's response to a task submission. Image
// models sometimes return a result inline with no task identifier.
type CreateTaskResult struct {
	TaskID    string
	ResultURL string
	Status    State
}

// TaskStatus is one poll of an outstanding task.
type TaskStatus struct {
	State     State
	ResultURL string
	// Raw preserves the provider's status string for logging.
	Raw string
}

// API is the seam the dispatcher, poller, and recovery service depend on.
type API interface {
	CreateTask(ctx context.Context, body payload.Payload) (CreateTaskResult, error)
	TaskStatus(ctx context.Context, taskID string) (TaskStatus, error)
}

// Client talks to the provider over HTTP with bearer auth.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option adjusts client construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithBaseURL overrides the provider endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// New builds a client from configuration.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("provider config is nil")
	}
	client := &Client{
		baseURL: strings.TrimRight(cfg.Provider.BaseURL, "/"),
		apiKey:  cfg.Provider.APIKey,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Provider.RequestTimeout) * time.Second,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.baseURL == "" {
		return nil, fmt.Errorf("provider base URL required")
	}
	return client, nil
}

type createTaskResponse struct {
	TaskID    string `json:"taskId"`
	ResultURL string `json:"resultUrl"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

type taskStatusResponse struct {
	Status    string `json:"status"`
	ResultURL string `json:"resultUrl"`
	Message   string `json:"message"`
}

// CreateTask submits a generation request. A response carrying neither a
// task identifier nor an inline result is treated as a submission failure.
func (c *Client) CreateTask(ctx context.Context, body payload.Payload) (CreateTaskResult, error) {
	var decoded createTaskResponse
	if err := c.do(ctx, http.MethodPost, "/v1/tasks", body, &decoded); err != nil {
		return CreateTaskResult{}, services.Wrap(services.ErrSubmission, "provider", "create_task", "submit task", err)
	}
	if decoded.TaskID == "" && decoded.ResultURL == "" {
		return CreateTaskResult{}, services.Wrap(services.ErrSubmission, "provider", "create_task",
			fmt.Sprintf("provider returned neither task id nor result (status %q)", decoded.Status), nil)
	}
	return CreateTaskResult{
		TaskID:    decoded.TaskID,
		ResultURL: decoded.ResultURL,
		Status:    NormalizeState(decoded.Status),
	}, nil
}

// TaskStatus fetches the current state of an outstanding task.
func (c *Client) TaskStatus(ctx context.Context, taskID string) (TaskStatus, error) {
	if strings.TrimSpace(taskID) == "" {
		return TaskStatus{}, services.Wrap(services.ErrValidation, "provider", "task_status", "task id required", nil)
	}
	var decoded taskStatusResponse
	if err := c.do(ctx, http.MethodGet, "/v1/tasks/"+taskID, nil, &decoded); err != nil {
		return TaskStatus{}, services.Wrap(services.ErrProviderPoll, "provider", "task_status", "fetch task status", err)
	}
	return TaskStatus{
		State:     NormalizeState(decoded.Status),
		ResultURL: decoded.ResultURL,
		Raw:       decoded.Status,
	}, nil
}

// NormalizeState folds provider status strings into the internal three-way
// split. COMPLETED and SUCCEEDED are the same terminal success; anything
// unrecognized stays in flight.
func NormalizeState(raw string) State {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "COMPLETED", "SUCCEEDED", "SUCCESS":
		return StateSucceeded
	case "FAILED", "ERROR":
		return StateFailed
	default:
		return StatePending
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payloadBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, snippet(payloadBytes))
	}
	if err := json.Unmarshal(payloadBytes, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func snippet(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) > 200 {
		return trimmed[:200] + "..."
	}
	if trimmed == "" {
		return "(empty body)"
	}
	return trimmed
}
