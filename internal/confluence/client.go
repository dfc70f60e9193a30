package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bobmcallan/confluence-mcp/internal/common"
)

// maxResponseSize caps the upstream response body.
const maxResponseSize = 50 << 20 // 50MB

// AuthMethod applies credentials to an outbound request.
type AuthMethod interface {
	Apply(req *http.Request)
}

// BasicAuth authenticates with an account name and API token.
type BasicAuth struct {
	Username string
	Token    string
}

// Apply implements AuthMethod.
func (b BasicAuth) Apply(req *http.Request) {
	req.SetBasicAuth(b.Username, b.Token)
}

// Client executes requests against one Confluence origin. It is cheap to
// build; the underlying *http.Client is shared.
type Client struct {
	origin     string
	auth       AuthMethod
	httpClient *http.Client
	logger     *common.Logger
	maxBody    int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client, normally one shared per process.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the request logger.
func WithLogger(l *common.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient returns a client for origin (scheme://host[:port]).
func NewClient(origin string, auth AuthMethod, opts ...Option) *Client {
	c := &Client{
		origin:     origin,
		auth:       auth,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxBody:    maxResponseSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = common.NewSilentLogger()
	}
	return c
}

// Execute performs exactly one HTTP call and returns the response body of
// a 2xx response. A non-2xx response is an *APIError; a failure to get a
// response at all is a *TransportError.
func (c *Client) Execute(ctx context.Context, r Request) ([]byte, error) {
	var bodyReader io.Reader
	if r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL(c.origin), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	// Atlassian rejects mutating calls without this header when it
	// suspects XSRF.
	req.Header.Set("X-Atlassian-Token", "no-check")
	if c.auth != nil {
		c.auth.Apply(req)
	}

	c.logger.Debug().Str("method", r.Method).Str("path", r.Path).Msg("confluence request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.Warn().Str("method", r.Method).Str("path", r.Path).Int64("duration_ms", duration.Milliseconds()).Str("error", err.Error()).Msg("confluence request failed")
		return nil, &TransportError{Method: r.Method, Path: r.Path, Err: err}
	}
	defer resp.Body.Close()

	// One byte past the cap distinguishes a full body from a cut one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, &TransportError{Method: r.Method, Path: r.Path, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if int64(len(body)) > c.maxBody {
		c.logger.Warn().Str("method", r.Method).Str("path", r.Path).Int("status", resp.StatusCode).Int64("limit_bytes", c.maxBody).Msg("confluence response too large")
		return nil, &TransportError{Method: r.Method, Path: r.Path, Err: ErrResponseTooLarge}
	}

	c.logger.Debug().Str("method", r.Method).Str("path", r.Path).Int("status", resp.StatusCode).Int64("duration_ms", duration.Milliseconds()).Msg("confluence response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Method:     r.Method,
			Path:       r.Path,
			Message:    upstreamMessage(body),
			Body:       string(body),
		}
	}
	return body, nil
}
