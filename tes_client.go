// tes_client.go implements the HTTP client for the GA4GH Task Execution
// Service API: task submission, retrieval, and the service-info health check.
//
// HTTP failures are translated into a small typed error taxonomy so callers
// can discriminate with errors.As. Retries are delegated to go-retryablehttp;
// this file only fixes the policy: bounded attempts, exponential backoff, and
// a closed set of retryable status codes.
package main

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

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	log "github.com/sirupsen/logrus"
)

// retryStatusCodes are the only response codes worth retrying. Everything
// else is either a success or a deterministic failure.
var retryStatusCodes = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

const healthCheckTimeout = 10 * time.Second

// AuthError reports a 401 or 403 from the TES server.
type AuthError struct {
	StatusCode int
}

func (e *AuthError) Error() string {
	if e.StatusCode == http.StatusForbidden {
		return "access forbidden: check your permissions"
	}
	return "authentication failed: check your TES token"
}

// NotFoundError reports a 404 for a task lookup.
type NotFoundError struct {
	TaskID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %s not found", e.TaskID)
}

// ServerError reports a 5xx response, or a success response that violates the
// protocol (e.g. task accepted but no id returned).
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("TES protocol violation: %s", e.Body)
	}
	return fmt.Sprintf("TES server error (%d): %s", e.StatusCode, e.Body)
}

// ClientError reports a client-side failure: network errors, invalid input,
// or an unexpected response the client could not handle.
type ClientError struct {
	Op  string
	Err error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ClientError) Unwrap() error { return e.Err }

// Client talks to a single TES service. It holds only immutable configuration
// and the pooled HTTP transport — no per-call state.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// NewClient builds a TES client from the process configuration. The retry
// policy (attempts, backoff factor, retryable codes) is fixed here and
// applies to both GET and the create POST — TES task creation is safe to
// retry because the server deduplicates by request body.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, &ClientError{
			Op:  "configure TES client",
			Err: fmt.Errorf("TES service URL is required: set the TES_URL environment variable"),
		}
	}
	if cfg.TokenMissing() {
		log.Warn("no authentication token provided or using default token; set TES_TOKEN for secure access")
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.RetryWaitMin = time.Duration(cfg.BackoffFactor * float64(time.Second))
	rc.RetryWaitMax = 30 * time.Second
	rc.Logger = nil
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, nil
		}
		return retryStatusCodes[resp.StatusCode], nil
	}
	// Hand back the last response once retries are exhausted so a persistent
	// 5xx still maps to ServerError instead of a generic transport failure.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.HTTPClient.Timeout = time.Duration(cfg.RequestTimeout) * time.Second

	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		token:   cfg.Token,
		httpc:   rc.StandardClient(),
	}, nil
}

// do issues one request with the standard headers and a correlation id that
// shows up in the log fields on both ends.
func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "tes-mcp-client/"+version)
	req.Header.Set("X-Request-Id", requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	log.WithFields(log.Fields{
		"method":     method,
		"endpoint":   endpoint,
		"request_id": requestID,
	}).Debug("TES request")

	return c.httpc.Do(req)
}

// CreateTask submits a task and returns the server-assigned id.
func (c *Client) CreateTask(ctx context.Context, task *Task) (*CreateTaskResponse, error) {
	const op = "create task"

	payload, err := json.Marshal(task)
	if err != nil {
		return nil, &ClientError{Op: op, Err: err}
	}

	endpoint := c.baseURL + "/tasks"
	log.WithField("endpoint", endpoint).Info("creating task")

	resp, err := c.do(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return nil, &ClientError{Op: op, Err: fmt.Errorf("network error: %w", err)}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, ""); err != nil {
		return nil, err
	}

	var result CreateTaskResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ServerError{Body: fmt.Sprintf("malformed create response: %v", err)}
	}
	if result.ID == "" {
		return nil, &ServerError{Body: "task creation succeeded but no task id was returned"}
	}

	log.WithField("task_id", result.ID).Info("task created")
	return &result, nil
}

// GetTask retrieves a task snapshot at the requested detail level. The view
// is validated before any network request is made.
func (c *Client) GetTask(ctx context.Context, taskID string, view View) (*Task, error) {
	const op = "get task"

	switch view {
	case ViewMinimal, ViewBasic, ViewFull:
	default:
		return nil, &ClientError{
			Op:  op,
			Err: fmt.Errorf("invalid view %q: must be one of MINIMAL, BASIC, FULL", view),
		}
	}

	endpoint := fmt.Sprintf("%s/tasks/%s?view=%s", c.baseURL, url.PathEscape(taskID), view)
	log.WithFields(log.Fields{"task_id": taskID, "view": view}).Info("retrieving task")

	resp, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &ClientError{Op: op, Err: fmt.Errorf("network error: %w", err)}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, taskID); err != nil {
		return nil, err
	}

	var task Task
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, &ServerError{Body: fmt.Sprintf("malformed task response: %v", err)}
	}

	log.WithField("task_id", taskID).Debug("task retrieved")
	return &task, nil
}

// ServiceInfo fetches the TES service metadata.
func (c *Client) ServiceInfo(ctx context.Context) (*ServiceInfo, error) {
	const op = "get service info"

	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/service-info", nil)
	if err != nil {
		return nil, &ClientError{Op: op, Err: fmt.Errorf("network error: %w", err)}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, ""); err != nil {
		return nil, err
	}

	var info ServiceInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, &ServerError{Body: fmt.Sprintf("malformed service-info response: %v", err)}
	}
	return &info, nil
}

// HealthCheck reports whether the TES service is reachable. Best effort:
// every failure degrades to false, never an error.
func (c *Client) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	info, err := c.ServiceInfo(ctx)
	if err != nil {
		log.WithError(err).Warn("health check failed")
		return false
	}
	log.WithFields(log.Fields{"service": info.Name, "version": info.Version}).Debug("health check ok")
	return true
}

// checkStatus maps a non-2xx response onto the error taxonomy. taskID is
// empty for operations where 404 has no special meaning.
func checkStatus(resp *http.Response, taskID string) error {
	if resp.StatusCode < 400 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &AuthError{StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusNotFound && taskID != "":
		return &NotFoundError{TaskID: taskID}
	case resp.StatusCode >= 500:
		return &ServerError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return &ClientError{
		Op:  "TES request",
		Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
	}
}
