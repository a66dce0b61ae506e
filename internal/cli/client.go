package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bassista/go_graphview/internal/api/controller"
	"github.com/bassista/go_graphview/internal/graph"
	"github.com/hashicorp/go-retryablehttp"
)

// APIError is a non-2xx answer from the service.
type APIError struct {
	Status  int
	Message string `json:"error"`
	Details string `json:"details"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("HTTP %d: %s: %s", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// Client talks to a running graph view service.
type Client struct {
	base string
	http *retryablehttp.Client
}

// NewClient creates a client for base. Connection failures and gateway errors
// are retried up to retries times; render failures (500) are not.
func NewClient(base string, retries int, timeout time.Duration) *Client {
	hc := retryablehttp.NewClient()
	hc.RetryMax = retries
	hc.RetryWaitMin = 200 * time.Millisecond
	hc.RetryWaitMax = 2 * time.Second
	hc.Logger = nil
	hc.HTTPClient.Timeout = timeout
	hc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if err == nil && resp.StatusCode == http.StatusInternalServerError {
			return false, nil
		}
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	// Hand the last response back instead of a generic "giving up" error.
	hc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{base: strings.TrimRight(base, "/"), http: hc}
}

// Push posts diagram source to the update endpoint.
func (c *Client) Push(ctx context.Context, req graph.UpdateRequest) (controller.UpdateResponse, error) {
	var out controller.UpdateResponse
	body, err := json.Marshal(req)
	if err != nil {
		return out, fmt.Errorf("encode request: %w", err)
	}
	err = c.do(ctx, http.MethodPost, "/api/update", bytes.NewReader(body), &out)
	return out, err
}

// Graph returns the current state.
func (c *Client) Graph(ctx context.Context) (controller.GraphResponse, error) {
	var out controller.GraphResponse
	err := c.do(ctx, http.MethodGet, "/api/graph", nil, &out)
	return out, err
}

// Health returns the liveness report.
func (c *Client) Health(ctx context.Context) (controller.HealthResponse, error) {
	var out controller.HealthResponse
	err := c.do(ctx, http.MethodGet, "/api/health", nil, &out)
	return out, err
}

// Image copies the current PNG into w and returns the number of bytes written.
func (c *Client) Image(ctx context.Context, w io.Writer) (int64, error) {
	resp, err := c.send(ctx, http.MethodGet, graph.Locator, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, decodeError(resp)
	}
	return io.Copy(w, resp.Body)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	var payload any
	if body != nil {
		payload = body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.base+path, payload)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	return apiErr
}
