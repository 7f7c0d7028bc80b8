// Package comput3 launches ComfyUI workloads on the Comput3 compute-leasing API.
package comput3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/comfyup/comfyup/internal/util/jsondoc"
	"github.com/comfyup/comfyup/internal/util/retry"
)

const (
	// DefaultEndpoint is the Comput3 API base.
	DefaultEndpoint = "https://api.comput3.ai/api/v0"

	// LaunchPath is the workload launch path.
	LaunchPath = "/launch"

	// DefaultWorkloadType is the only ComfyUI workload type offered so far.
	DefaultWorkloadType = "media:fast"

	hostPrefix = "ui-"
)

// Workload is the handle of a launched workload. It does not change after launch.
type Workload struct {
	ID       string
	Node     string
	APIBase  string
	RootBase string
}

// HostFor normalizes a node name into the ComfyUI hostname.
func HostFor(node string) string {
	node = strings.TrimSpace(node)
	if strings.HasPrefix(node, hostPrefix) {
		return node
	}
	return hostPrefix + node
}

// WorkloadFor builds the handle for an already running node.
func WorkloadFor(node, id string) *Workload {
	host := HostFor(node)
	return &Workload{
		ID:       id,
		Node:     node,
		APIBase:  "https://" + host + "/api",
		RootBase: "https://" + host,
	}
}

// Client calls the Comput3 API.
type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	now        func() time.Time
	retryOpts  []retry.Option
}

// NewClient creates a client for the default endpoint.
func NewClient(apiKey string) *Client {
	return NewClientWithEndpoint(apiKey, DefaultEndpoint)
}

// NewClientWithEndpoint creates a client with a custom endpoint (for testing).
func NewClientWithEndpoint(apiKey, endpoint string) *Client {
	return &Client{
		apiKey:   apiKey,
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		now:       time.Now,
		retryOpts: []retry.Option{retry.WithMaxAttempts(1)},
	}
}

// WithRetryOptions replaces the backoff used when a launch is rate limited.
// Launch makes a single attempt unless this is set.
func (c *Client) WithRetryOptions(opts ...retry.Option) *Client {
	c.retryOpts = opts
	return c
}

type launchRequest struct {
	Type    string `json:"type"`
	Expires int64  `json:"expires"`
}

// Launch reserves a workload of workloadType for the given number of hours.
//
// The POST is not idempotent: only a 429 is ever sent again. Any other
// non-200 status, a transport error, or a 200 without a node is an error.
func (c *Client) Launch(ctx context.Context, workloadType string, hours float64) (*Workload, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("comput3 API key is required")
	}
	if hours <= 0 {
		return nil, fmt.Errorf("workload hours must be positive, got %v", hours)
	}

	expires := c.now().Add(time.Duration(hours * float64(time.Hour))).Unix()
	body, err := json.Marshal(launchRequest{Type: workloadType, Expires: expires})
	if err != nil {
		return nil, fmt.Errorf("failed to encode launch request: %w", err)
	}

	var raw []byte
	err = retry.WithExponentialBackoff(ctx, func() error {
		status, data, err := c.post(ctx, LaunchPath, body)
		if err != nil {
			return retry.Fatal(err)
		}
		if status == http.StatusOK {
			raw = data
			return nil
		}
		launchErr := fmt.Errorf("launch failed (%d): %s", status, strings.TrimSpace(string(data)))
		if status == http.StatusTooManyRequests {
			return launchErr
		}
		return retry.Fatal(launchErr)
	}, c.retryOpts...)
	if err != nil {
		return nil, err
	}

	doc, err := jsondoc.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse launch response: %w", err)
	}
	node := doc.String("node")
	if node == "" {
		return nil, fmt.Errorf("launch succeeded but no node in response: %s", string(raw))
	}

	return WorkloadFor(node, doc.String("workload")), nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-C3-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to call comput3: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, data, nil
}
