package httpprobe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sophialabs/redirectlint/internal/infrastructure/ports"
)

var _ ports.Prober = (*Client)(nil)

// drainLimit caps how much of a response body is read so the connection can be reused.
const drainLimit = 64 << 10

// Options configures a Client.
type Options struct {
	Method    string
	UserAgent string
	Timeout   time.Duration
	// Transport overrides the default transport (for tests).
	Transport http.RoundTripper
}

// Client probes destinations with a single HTTP request each.
type Client struct {
	http      *http.Client
	method    string
	userAgent string
}

// New creates a Client. Zero options fall back to GET and no client timeout.
func New(opts Options) *Client {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	transport := opts.Transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.MaxIdleConnsPerHost = 16
		transport = t
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		method:    method,
		userAgent: opts.UserAgent,
	}
}

// Probe issues one request to url and reports its status. Redirects are
// followed; the response body is discarded and always closed.
func (c *Client) Probe(ctx context.Context, url string) (ports.ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, c.method, url, nil)
	if err != nil {
		return ports.ProbeResult{}, fmt.Errorf("invalid request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return ports.ProbeResult{}, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))

	return ports.ProbeResult{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}, nil
}

// CloseIdle releases idle keep-alive connections.
func (c *Client) CloseIdle() {
	c.http.CloseIdleConnections()
}
