package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/kelsos/spaza-sync/internal/logger"
)

// ErrHTTPStatus is wrapped by every error caused by a non-200 response
var ErrHTTPStatus = errors.New("unexpected HTTP status")

// ErrInvalidJSON is returned when a 200 response does not carry a JSON document
var ErrInvalidJSON = errors.New("response is not valid JSON")

// maxBodySize bounds how much of a response body is read
const maxBodySize = 8 << 20

// Client handles the HTTP GETs against indexers and metadata documents
type Client struct {
	httpClient *http.Client
}

// NewClient creates a client whose requests time out after timeout.
// A zero timeout leaves the transport default in place.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewClientWithHTTP wraps an existing http.Client (used by tests with httptest)
func NewClientWithHTTP(httpClient *http.Client) *Client {
	return &Client{httpClient: httpClient}
}

// GetJSON performs a GET request and returns the raw body once it is known to be JSON
func (c *Client) GetJSON(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	start := time.Now()
	logger.Debug("Starting GET request to %s", redact(rawURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug("Request to %s failed after %v: %v", redact(rawURL), time.Since(start), err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	logger.Debug("Request to %s completed in %v with status %d", redact(rawURL), time.Since(start), resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w %d: %s", ErrHTTPStatus, resp.StatusCode, truncate(string(body), 200))
	}

	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidJSON
	}

	return body, nil
}

// FetchDocument fetches a metadata document; it satisfies uri.DocumentFetcher
func (c *Client) FetchDocument(ctx context.Context, rawURL string) ([]byte, error) {
	return c.GetJSON(ctx, rawURL, nil)
}

// BuildURLWithParams properly builds a URL with query parameters
func BuildURLWithParams(endpoint string, params map[string]string) string {
	if len(params) == 0 {
		return endpoint
	}

	parts := strings.SplitN(endpoint, "?", 2)
	baseURL := parts[0]

	values := url.Values{}
	if len(parts) > 1 {
		existingParams, _ := url.ParseQuery(parts[1])
		values = existingParams
	}

	for key, value := range params {
		values.Set(key, value)
	}

	if len(values) > 0 {
		return baseURL + "?" + values.Encode()
	}
	return baseURL
}

// redact hides path segments that look like API keys (alchemy puts the key in the path)
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || !strings.HasSuffix(u.Host, "alchemy.com") {
		return rawURL
	}

	segments := strings.Split(u.Path, "/")
	for i, seg := range segments {
		if i > 0 && segments[i-1] == "v2" && len(seg) >= 16 {
			segments[i] = "***"
		}
	}
	u.Path = strings.Join(segments, "/")
	return u.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
