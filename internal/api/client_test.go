package api

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	http "github.com/bogdanfinn/fhttp"

	apierrors "github.com/diogo/researchcopilot/internal/errors"
	"github.com/diogo/researchcopilot/internal/models"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
	}{
		{"trailing slash trimmed", "http://localhost:8000/", "http://localhost:8000"},
		{"spaces trimmed", "  https://api.example.com  ", "https://api.example.com"},
		{"empty falls back to default", "", models.DefaultBackendURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.baseURL, nil, WithHTTPClient(&MockDoer{}))
			if err != nil {
				t.Fatalf("NewClient() error = %v", err)
			}
			if c.BaseURL() != tt.want {
				t.Errorf("BaseURL() = %q, want %q", c.BaseURL(), tt.want)
			}
			if c.Session() == nil {
				t.Error("Session() should never be nil")
			}
		})
	}
}

func TestNewClient_Options(t *testing.T) {
	c, err := NewClient("http://x", nil,
		WithHTTPClient(&MockDoer{}),
		WithRequestTimeout(5*time.Second),
		WithRequestTimeout(0),
		WithFlushPartial(true),
	)
	if err != nil {
		t.Fatal(err)
	}
	if c.requestTimeout != 5*time.Second {
		t.Errorf("requestTimeout = %v, want 5s", c.requestTimeout)
	}
	if !c.flushPartial {
		t.Error("flushPartial should be set")
	}
}

func TestRequestHeaders(t *testing.T) {
	doer := &MockDoer{Response: newResponse(200, models.ContentTypeJSON, `[]`)}
	c := newTestClient(t, doer, "tok-123")

	if _, err := c.ListProjects(context.Background()); err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}

	req := doer.LastRequest()
	if got := req.Header.Get("Authorization"); got != "Bearer tok-123" {
		t.Errorf("Authorization = %q", got)
	}
	if req.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID should be set")
	}
	if req.URL.String() != "http://backend.test/projects" {
		t.Errorf("URL = %s", req.URL)
	}
}

func TestRequestWithoutToken(t *testing.T) {
	doer := &MockDoer{Response: newResponse(200, models.ContentTypeJSON, `[]`)}
	c := newTestClient(t, doer, "")

	_, err := c.ListProjects(context.Background())
	if !apierrors.IsAuthError(err) {
		t.Errorf("error = %v, want auth error", err)
	}
	if len(doer.Requests) != 0 {
		t.Error("no request should be issued without a token")
	}
}

func TestClosedClient(t *testing.T) {
	doer := &MockDoer{}
	c := newTestClient(t, doer, "tok")
	c.Close()
	if !c.IsClosed() {
		t.Fatal("IsClosed() = false")
	}
	if _, err := c.ListProjects(context.Background()); err == nil {
		t.Error("expected error from closed client")
	}
}

func TestUnauthorizedInvalidatesSession(t *testing.T) {
	body := NewMockResponseBody([]byte(`{"detail":"Invalid token"}`))
	doer := &MockDoer{Response: &http.Response{StatusCode: 401, Header: http.Header{}, Body: body}}
	c := newTestClient(t, doer, "tok")

	invalidated := 0
	c.Session().OnInvalidate(func() { invalidated++ })

	_, err := c.ListProjects(context.Background())
	if !apierrors.IsAuthError(err) {
		t.Errorf("error = %v, want auth error", err)
	}
	if apierrors.UserMessage(err) != apierrors.SessionExpiredMessage {
		t.Errorf("message = %q", apierrors.UserMessage(err))
	}

	if c.Session().Valid() {
		t.Error("session should be cleared")
	}
	if invalidated != 1 {
		t.Errorf("OnInvalidate ran %d times, want 1", invalidated)
	}
	if body.reads != 0 {
		t.Error("401 body must not be read")
	}
}

func TestUnauthorizedOnEveryEndpoint(t *testing.T) {
	calls := map[string]func(c *Client) error{
		"ListProjects": func(c *Client) error { _, err := c.ListProjects(context.Background()); return err },
		"CreateProject": func(c *Client) error {
			_, err := c.CreateProject(context.Background(), "x")
			return err
		},
		"ListMessages": func(c *Client) error { _, err := c.ListMessages(context.Background(), "p1"); return err },
		"StreamChat": func(c *Client) error {
			_, err := c.StreamChat(context.Background(), models.ChatRequest{ProjectID: "p1"}, nil)
			return err
		},
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			doer := &MockDoer{Response: newResponse(401, models.ContentTypeJSON, `{"detail":"Empty token"}`)}
			c := newTestClient(t, doer, "tok")

			err := call(c)
			if apierrors.UserMessage(err) != apierrors.SessionExpiredMessage {
				t.Errorf("message = %q, want session expired", apierrors.UserMessage(err))
			}
			if c.Session().Valid() {
				t.Error("session should be invalidated")
			}
		})
	}
}

func TestErrorDetail(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{"detail string", `{"detail":"Project not found"}`, 404, "Project not found"},
		{"message string", `{"message":"Boom"}`, 500, "Boom"},
		{"detail preferred", `{"detail":"D","message":"M"}`, 400, "D"},
		{"empty detail falls to message", `{"detail":"","message":"M"}`, 400, "M"},
		{"validation list", `{"detail":[{"loc":["body","name"],"msg":"field required"}]}`, 422, "field required"},
		{"null detail", `{"detail":null}`, 500, "Error 500"},
		{"no fields", `{"ok":false}`, 503, "Error 503"},
		{"not json", `<html>Bad Gateway</html>`, 502, "Error 502"},
		{"empty body", ``, 500, "Error 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorDetail([]byte(tt.body), tt.status); got != tt.want {
				t.Errorf("errorDetail() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNetworkFailure(t *testing.T) {
	doer := &MockDoer{Err: errConnReset}
	c := newTestClient(t, doer, "tok")

	_, err := c.ListProjects(context.Background())
	if !apierrors.IsNetworkError(err) {
		t.Fatalf("error = %v, want network error", err)
	}
	if !errors.Is(err, errConnReset) {
		t.Error("network error should wrap the transport error")
	}
	if !c.Session().Valid() {
		t.Error("network failures must not end the session")
	}
}

func TestContextCanceledIsNotNetworkError(t *testing.T) {
	doer := &MockDoer{Err: errConnReset}
	c := newTestClient(t, doer, "tok")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListProjects(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestParseFailure(t *testing.T) {
	doer := &MockDoer{Response: newResponse(200, models.ContentTypeJSON, `{"not":"a list"}`)}
	c := newTestClient(t, doer, "tok")

	_, err := c.ListProjects(context.Background())
	if !errors.Is(err, apierrors.ErrInvalidResponse) {
		t.Errorf("error = %v, want parse error", err)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name    string
		resp    *http.Response
		wantErr bool
	}{
		{"ok", newResponse(200, models.ContentTypeJSON, `{"ok":true}`), false},
		{"not ok", newResponse(200, models.ContentTypeJSON, `{"ok":false}`), true},
		{"server error", newResponse(500, models.ContentTypeJSON, `{"detail":"Internal Server Error"}`), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &MockDoer{Response: tt.resp}
			c := newTestClient(t, doer, "")

			err := c.Health(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Health() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := doer.LastRequest().Header.Get("Authorization"); got != "" {
				t.Errorf("health check sent Authorization %q", got)
			}
			if !strings.HasSuffix(doer.LastRequest().URL.Path, models.PathHealth) {
				t.Errorf("path = %s", doer.LastRequest().URL.Path)
			}
		})
	}
}
