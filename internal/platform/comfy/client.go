package comfy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/comfyup/comfyup/internal/metrics"
)

const (
	// ContentTypeJSON is used for structured request bodies.
	ContentTypeJSON = "application/json"
	// ContentTypeText matches what the manager GUI sends for queue installs.
	ContentTypeText = "text/plain;charset=UTF-8"

	defaultUserAgent   = "comfyup/1.0"
	defaultGetTimeout  = 30 * time.Second
	defaultPostTimeout = 120 * time.Second

	apiKeyHeader  = "X-C3-API-KEY"
	apiKeyCookie  = "c3_api_key"
	userKeyHeader = "comfy-user"
	maxBodyToRead = 16 << 20
)

// Endpoints are the two base URLs of a launched workload.
type Endpoints struct {
	APIBase  string // https://ui-<node>/api
	RootBase string // https://ui-<node>
}

// Credentials authenticate against the Comput3 proxy and ComfyUI.
type Credentials struct {
	APIKey  string // Comput3 API key
	UserKey string // ComfyUI user key; defaults to APIKey
}

// Response is a completed HTTP exchange.
type Response struct {
	StatusCode int
	Body       []byte
}

// Text returns the body as a string.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Body)
}

// OK reports whether the exchange returned 200.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode == http.StatusOK
}

// Client sends authenticated requests to one workload.
type Client struct {
	endpoints   Endpoints
	creds       Credentials
	httpClient  *http.Client
	userAgent   string
	getTimeout  time.Duration
	postTimeout time.Duration
	metrics     *metrics.Recorder
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics records every exchange in rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(c *Client) { c.metrics = rec }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithRequestTimeouts sets the per-request timeouts for GET and POST.
func WithRequestTimeouts(get, post time.Duration) Option {
	return func(c *Client) {
		c.getTimeout = get
		c.postTimeout = post
	}
}

// NewClient creates a client for the workload at endpoints.
func NewClient(endpoints Endpoints, creds Credentials, opts ...Option) *Client {
	if creds.UserKey == "" {
		creds.UserKey = creds.APIKey
	}
	c := &Client{
		endpoints:   endpoints,
		creds:       creds,
		httpClient:  &http.Client{},
		userAgent:   defaultUserAgent,
		getTimeout:  defaultGetTimeout,
		postTimeout: defaultPostTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoints returns the workload base URLs.
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// APIURL joins path onto the API base.
func (c *Client) APIURL(path string) string {
	return joinURL(c.endpoints.APIBase, path)
}

// RootURL joins path onto the root base.
func (c *Client) RootURL(path string) string {
	return joinURL(c.endpoints.RootBase, path)
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return c.do(ctx, http.MethodGet, url, nil, "", c.getTimeout)
}

// Post issues a POST request with a raw body.
func (c *Client) Post(ctx context.Context, url string, body []byte, contentType string) (*Response, error) {
	if contentType == "" {
		contentType = ContentTypeJSON
	}
	return c.do(ctx, http.MethodPost, url, body, contentType, c.postTimeout)
}

// PostJSON marshals v and posts it as application/json.
func (c *Client) PostJSON(ctx context.Context, url string, v any) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	return c.Post(ctx, url, body, ContentTypeJSON)
}

// Status adapts a Get/Post result to the (status, body, err) triple used by retry loops.
func Status(resp *Response, err error) (int, string, error) {
	if err != nil {
		return 0, "", err
	}
	return resp.StatusCode, resp.Text(), nil
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, contentType string, timeout time.Duration) (*Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, url, err)
	}
	c.authorize(req)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordRequest(method, 0)
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyToRead))
	if err != nil {
		c.metrics.RecordRequest(method, 0)
		return nil, fmt.Errorf("read response from %s: %w", url, err)
	}

	c.metrics.RecordRequest(method, resp.StatusCode)
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", c.userAgent)
	if c.creds.UserKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.creds.UserKey)
		req.Header.Set(userKeyHeader, c.creds.UserKey)
	}
	if c.creds.APIKey != "" {
		req.Header.Set(apiKeyHeader, c.creds.APIKey)
		req.AddCookie(&http.Cookie{Name: apiKeyCookie, Value: c.creds.APIKey})
	}
}

func joinURL(base, path string) string {
	if path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
