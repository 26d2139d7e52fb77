package pypi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrPackageNotFound is returned when PyPI does not know the package
	ErrPackageNotFound = errors.New("package not found on PyPI")
	// ErrBadResponse is returned when PyPI responds with an unexpected payload
	ErrBadResponse = errors.New("unexpected PyPI response")
)

// DefaultBaseURL is the PyPI JSON API endpoint.
const DefaultBaseURL = "https://pypi.org"

// Client resolves package versions from the PyPI JSON API.
type Client struct {
	// BaseURL is the PyPI endpoint, overridable for testing
	BaseURL string
	// UserAgent is sent with every request
	UserAgent string

	httpClient *RetryableHTTPClient
	cache      *Cache
	timeout    time.Duration
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom retryable HTTP client.
func WithHTTPClient(hc *RetryableHTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCache sets a version-lookup cache.
func WithCache(cache *Cache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithLookupTimeout sets the per-lookup timeout.
func WithLookupTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// NewClient creates a PyPI client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		BaseURL:   DefaultBaseURL,
		UserAgent: "feedtick/1.0",
		timeout:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = NewRetryableHTTPClient()
	}
	return c
}

// LatestVersion returns the newest version string PyPI knows for a package.
func (c *Client) LatestVersion(ctx context.Context, name string) (string, error) {
	if c.cache != nil {
		if version, ok := c.cache.Get(name); ok {
			return version, nil
		}
	}

	url := fmt.Sprintf("%s/pypi/%s/json", c.BaseURL, name)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s", ErrPackageNotFound, name)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrBadResponse, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var payload struct {
		Info struct {
			Version string `json:"version"`
		} `json:"info"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	version := strings.TrimSpace(payload.Info.Version)
	if version == "" {
		return "", fmt.Errorf("%w: empty version field", ErrBadResponse)
	}

	if c.cache != nil {
		// Cache write failures are not lookup failures.
		_ = c.cache.Set(name, version, url)
	}

	return version, nil
}

// Lookup adapts the client to the classifier's contract: any error degrades
// to "unknown" so a single unreachable package never fails the batch.
func (c *Client) Lookup(ctx context.Context) func(name string) (string, bool) {
	return func(name string) (string, bool) {
		version, err := c.LatestVersion(ctx, name)
		if err != nil {
			return "", false
		}
		return version, true
	}
}
