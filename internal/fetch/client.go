// Package fetch provides the outbound HTTP client shared by feed fetching,
// article extraction and image downloads. Every request waits a randomized
// half-second-to-second delay first so source sites never see burst traffic.
package fetch

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultTimeout       = 12 * time.Second
	DefaultBodyByteLimit = 4 * 1024 * 1024

	defaultMinDelay = 500 * time.Millisecond
	defaultMaxDelay = 1000 * time.Millisecond

	defaultUserAgent = "MoodworksAutopub/1.0 (+https://github.com/moodworks/autopub)"
)

// Options controls outbound HTTP behavior.
type Options struct {
	Timeout       time.Duration
	BodyByteLimit int64
	UserAgent     string
	// DisableDelay turns the politeness delay off. Tests use this.
	DisableDelay bool
	// Transport overrides the underlying round tripper. Tests use this.
	Transport http.RoundTripper
}

// Client wraps http.Client with a body limit and a politeness delay.
type Client struct {
	httpClient *http.Client
	bodyLimit  int64
}

func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	bodyLimit := opts.BodyByteLimit
	if bodyLimit <= 0 {
		bodyLimit = DefaultBodyByteLimit
	}

	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	transport := &politeTransport{
		base:      base,
		userAgent: userAgent,
	}
	if !opts.DisableDelay {
		transport.minDelay = defaultMinDelay
		transport.maxDelay = defaultMaxDelay
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		bodyLimit: bodyLimit,
	}
}

// HTTPClient exposes the underlying client for libraries that take one.
func (c *Client) HTTPClient() *http.Client {
	if c == nil {
		return nil
	}
	return c.httpClient
}

// Get fetches a URL and returns the body (capped at the byte limit) and the
// response Content-Type.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	if c == nil || c.httpClient == nil {
		return nil, "", fmt.Errorf("fetch client is not initialized")
	}

	page := strings.TrimSpace(rawURL)
	if page == "" {
		return nil, "", fmt.Errorf("url is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, page, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/*;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("fetch status %d for %s", resp.StatusCode, page)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.bodyLimit))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}

	contentType := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Type")))
	return body, contentType, nil
}

// politeTransport inserts the randomized delay and the User-Agent header in
// front of every request, including those issued by third-party parsers that
// only accept an *http.Client.
type politeTransport struct {
	base      http.RoundTripper
	userAgent string
	minDelay  time.Duration
	maxDelay  time.Duration
}

func (t *politeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.wait(req.Context()); err != nil {
		return nil, err
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(req)
}

func (t *politeTransport) wait(ctx context.Context) error {
	if t.maxDelay <= 0 {
		return nil
	}

	delay := t.minDelay
	if spread := t.maxDelay - t.minDelay; spread > 0 {
		delay += time.Duration(rand.Int64N(int64(spread)))
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
