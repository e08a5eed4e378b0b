// internal/stock/client.go
package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/roostergrin/image-picker/internal/metrics"
)

const apiKeyHeader = "X-Api-Key"

// Config holds the connection settings for the stock image backend.
type Config struct {
	// BaseURL is the backend root, e.g. "https://stock.internal:9200".
	BaseURL string

	// SearchPath is the search endpoint path. Default: "/search".
	SearchPath string

	// APIKey, when non-empty, is sent on every request in the X-Api-Key
	// header. Empty means no auth header at all.
	APIKey string

	// Timeout bounds each search request end to end. Default: 10s.
	Timeout time.Duration
}

// Client talks to the stock image backend. It retries transient failures
// and propagates request IDs; see transport.go.
type Client struct {
	baseURL    *url.URL
	searchPath string
	apiKey     string
	httpClient *http.Client
}

// NewClient validates cfg and returns a ready client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("stock: backend base URL is required")
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("stock: invalid base URL %q: %w", base, err)
	}
	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("stock: base URL %q must be absolute http(s)", base)
	}

	searchPath := cfg.SearchPath
	if searchPath == "" {
		searchPath = "/search"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    u,
		searchPath: searchPath,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: newTransport(&http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
				MaxIdleConns:        50,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			}),
		},
	}, nil
}

// SearchURL builds the outbound search URL for the given parameters. Every
// key/value pair is set on the query string exactly as received; the client
// does not interpret, validate, or default any of them.
func (c *Client) SearchURL(params map[string]string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + c.searchPath

	q := u.Query()
	for key, val := range params {
		q.Set(key, val)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Search performs a backend search with the given forwarded parameters.
func (c *Client) Search(ctx context.Context, params map[string]string) (*SearchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.SearchURL(params), nil)
	if err != nil {
		return nil, fmt.Errorf("stock: build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.BackendRequest("error")
		return nil, fmt.Errorf("stock: search request: %w", err)
	}
	defer resp.Body.Close()

	metrics.BackendRequest(statusClass(resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		// Drain a little of the body for the error message; the backend
		// returns short JSON errors.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("stock: backend returned %d: %s",
			resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var result SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("stock: decode search response: %w", err)
	}
	return &result, nil
}

// Ping issues a minimal search to verify the backend is reachable. Intended
// for health checks.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Search(ctx, map[string]string{"limit": "1"})
	return err
}

func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "other"
	}
}
