// Package api implements the Research Copilot backend client.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/google/uuid"

	apierrors "github.com/diogo/researchcopilot/internal/errors"
	"github.com/diogo/researchcopilot/internal/models"
)

// DefaultRequestTimeout bounds every REST call. Streams are bounded only by
// the caller's context.
const DefaultRequestTimeout = 30 * time.Second

// maxErrorBody limits how much of an error response is read
const maxErrorBody = 4096

// Doer is the subset of tls_client.HttpClient the client needs
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the Research Copilot backend
type Client struct {
	httpClient     Doer
	baseURL        string
	session        *Session
	requestTimeout time.Duration
	flushPartial   bool
	mu             sync.RWMutex
	closed         bool
}

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithHTTPClient replaces the transport, mainly for tests
func WithHTTPClient(d Doer) ClientOption {
	return func(c *Client) {
		c.httpClient = d
	}
}

// WithRequestTimeout sets the timeout applied to REST calls
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// WithFlushPartial makes StreamChat keep an unterminated final record
func WithFlushPartial(enabled bool) ClientOption {
	return func(c *Client) {
		c.flushPartial = enabled
	}
}

// NewClient creates a new Client for baseURL
func NewClient(baseURL string, session *Session, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = models.DefaultBackendURL
	}
	if session == nil {
		session = NewSession("")
	}

	client := &Client{
		baseURL:        baseURL,
		session:        session,
		requestTimeout: DefaultRequestTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		httpClient, err := NewTransport()
		if err != nil {
			return nil, err
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// NewTransport creates the HTTP client shared by the backend and identity
// calls. It has no client-wide timeout; callers bound requests with a context.
func NewTransport() (Doer, error) {
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(0),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithNotFollowRedirects(),
	}
	httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return httpClient, nil
}

// BaseURL returns the backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns the session whose token authenticates requests
func (c *Client) Session() *Session {
	return c.session
}

// Close marks the client as closed; later calls fail fast
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// newRequest builds an authenticated request for path
func (c *Client) newRequest(ctx context.Context, method, path string, body any, authenticated bool) (*http.Request, string, error) {
	if c.IsClosed() {
		return nil, "", fmt.Errorf("client is closed")
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}
	if body != nil {
		req.Header.Set("Content-Type", models.ContentTypeJSON)
	}

	if authenticated {
		token := c.session.Token()
		if token == "" {
			return nil, "", apierrors.NewAuthError(apierrors.ErrNotAuthenticated.Error())
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	return req, requestID, nil
}

// send executes req and logs the exchange. Transport failures become
// NetworkError.
func (c *Client) send(req *http.Request, requestID, path string) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("api_request_failed",
			"method", req.Method,
			"path", path,
			"request_id", requestID,
			"error", err,
		)
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apierrors.NewNetworkError(path, err)
	}

	slog.Debug("api_request",
		"method", req.Method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

// doJSON performs a bounded REST call and decodes a 2xx body into out
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, requestID, err := c.newRequest(ctx, method, path, body, true)
	if err != nil {
		return err
	}

	resp, err := c.send(req, requestID, path)
	if err != nil {
		return err
	}
	defer closeBody(resp)

	if !isSuccess(resp.StatusCode) {
		return c.responseError(resp, path)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierrors.NewNetworkError(path, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apierrors.NewParseError(err.Error(), path)
	}
	return nil
}

// responseError converts a non-2xx response. A 401 ends the session and the
// body is left unread.
func (c *Client) responseError(resp *http.Response, path string) error {
	if resp.StatusCode == http.StatusUnauthorized {
		c.session.Invalidate()
		return apierrors.NewSessionExpiredError()
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return apierrors.NewAPIError(resp.StatusCode, path, errorDetail(body, resp.StatusCode))
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func closeBody(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
}
