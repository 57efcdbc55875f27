package api

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	http "github.com/bogdanfinn/fhttp"

	apierrors "github.com/diogo/researchcopilot/internal/errors"
	"github.com/diogo/researchcopilot/internal/models"
	"github.com/diogo/researchcopilot/internal/stream"
)

func chatRequest() models.ChatRequest {
	return models.ChatRequest{
		ProjectID:   "p1",
		ProjectName: "Tesis",
		Messages:    []models.Message{{Role: models.RoleUser, Content: "hola"}},
	}
}

func collectStream(t *testing.T, c *Client) ([]string, stream.Result, error) {
	t.Helper()
	var got []string
	res, err := c.StreamChat(context.Background(), chatRequest(), func(ev stream.Event) {
		got = append(got, ev.Text)
	})
	return got, res, err
}

func TestStreamChat(t *testing.T) {
	body := "data: Hello\n\ndata: [DONE]\n\ndata: World\n\n"
	doer := &MockDoer{Response: newResponse(200, models.ContentTypeEventStream+"; charset=utf-8", body)}
	c := newTestClient(t, doer, "tok")

	got, res, err := collectStream(t, c)
	if err != nil {
		t.Fatalf("StreamChat() error = %v", err)
	}
	if strings.Join(got, "") != "HelloWorld" {
		t.Errorf("reply = %q, want HelloWorld", strings.Join(got, ""))
	}
	if res.Sentinels != 1 {
		t.Errorf("Sentinels = %d", res.Sentinels)
	}

	req := doer.LastRequest()
	if req.Method != http.MethodPost || req.URL.Path != models.PathChatStream {
		t.Errorf("request = %s %s", req.Method, req.URL.Path)
	}
	if req.Header.Get("Accept") != models.ContentTypeEventStream {
		t.Errorf("Accept = %q", req.Header.Get("Accept"))
	}
	if req.Header.Get("Content-Type") != models.ContentTypeJSON {
		t.Errorf("Content-Type = %q", req.Header.Get("Content-Type"))
	}

	var sent models.ChatRequest
	if err := json.Unmarshal([]byte(doer.Bodies[0]), &sent); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if sent.ProjectID != "p1" || sent.ProjectName != "Tesis" || len(sent.Messages) != 1 {
		t.Errorf("sent = %+v", sent)
	}
}

func TestStreamChat_SmallChunks(t *testing.T) {
	body := "data: ¿Qué tal?\n\ndata: Bien 👍\n\n"
	resp := newResponse(200, models.ContentTypeEventStream, "")
	resp.Body = &MockResponseBody{data: []byte(body), chunkSize: 1}
	doer := &MockDoer{Response: resp}
	c := newTestClient(t, doer, "tok")

	got, _, err := collectStream(t, c)
	if err != nil {
		t.Fatalf("StreamChat() error = %v", err)
	}
	if strings.Join(got, "") != "¿Qué tal?Bien 👍" {
		t.Errorf("reply = %q", strings.Join(got, ""))
	}
}

func TestStreamChat_JSONNeverParsed(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"error detail", 403, `{"detail":"Project not accessible"}`, "Respuesta JSON inesperada: Project not accessible"},
		{"message field", 500, `{"message":"Internal"}`, "Respuesta JSON inesperada: Internal"},
		{"success status still rejected", 200, `{"data: hidden":"data: x\n"}`, "Respuesta JSON inesperada"},
		{"invalid json", 500, `data: x` + "\n", "Respuesta JSON inesperada"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &MockDoer{Response: newResponse(tt.status, "application/json", tt.body)}
			c := newTestClient(t, doer, "tok")

			got, res, err := collectStream(t, c)
			if !apierrors.IsUnexpectedResponse(err) {
				t.Fatalf("error = %v, want unexpected response", err)
			}
			if apierrors.UserMessage(err) != tt.want {
				t.Errorf("message = %q, want %q", apierrors.UserMessage(err), tt.want)
			}
			if len(got) != 0 || res.Fragments != 0 {
				t.Error("JSON body must not reach the stream parser")
			}
			if !c.Session().Valid() {
				t.Error("session should survive a JSON error")
			}
		})
	}
}

func TestStreamChat_Unauthorized(t *testing.T) {
	body := NewMockResponseBody([]byte("data: nope\n"))
	resp := &http.Response{StatusCode: 401, Header: http.Header{}, Body: body}
	resp.Header.Set("Content-Type", models.ContentTypeEventStream)
	doer := &MockDoer{Response: resp}
	c := newTestClient(t, doer, "tok")

	got, _, err := collectStream(t, c)
	if apierrors.UserMessage(err) != apierrors.SessionExpiredMessage {
		t.Errorf("message = %q", apierrors.UserMessage(err))
	}
	if len(got) != 0 || body.reads != 0 {
		t.Error("401 body must not be parsed")
	}
	if c.Session().Valid() {
		t.Error("session should be invalidated")
	}
}

func TestStreamChat_NonOKStatus(t *testing.T) {
	doer := &MockDoer{Response: newResponse(502, "text/html", "<h1>Bad Gateway</h1>")}
	c := newTestClient(t, doer, "tok")

	_, _, err := collectStream(t, c)
	if apierrors.UserMessage(err) != "Error al enviar mensaje: 502" {
		t.Errorf("message = %q", apierrors.UserMessage(err))
	}
	if apierrors.GetHTTPStatus(err) != 502 {
		t.Errorf("status = %d", apierrors.GetHTTPStatus(err))
	}
}

func TestStreamChat_ReadFailureKeepsFragments(t *testing.T) {
	data := []byte("data: uno\ndata: dos\ndata: tr")
	resp := newResponse(200, models.ContentTypeEventStream, "")
	resp.Body = &MockResponseBody{data: data, failAfter: len(data), err: errConnReset}
	doer := &MockDoer{Response: resp}
	c := newTestClient(t, doer, "tok")

	got, res, err := collectStream(t, c)
	if !apierrors.IsNetworkError(err) || !errors.Is(err, errConnReset) {
		t.Fatalf("error = %v, want wrapped network error", err)
	}
	if len(got) != 2 || res.Fragments != 2 {
		t.Errorf("fragments = %q", got)
	}
}

func TestStreamChat_PartialTail(t *testing.T) {
	body := "data: a\ndata: b"

	t.Run("dropped", func(t *testing.T) {
		doer := &MockDoer{Response: newResponse(200, models.ContentTypeEventStream, body)}
		got, res, err := collectStream(t, newTestClient(t, doer, "tok"))
		if err != nil {
			t.Fatal(err)
		}
		if strings.Join(got, "") != "a" || res.Dropped != "data: b" {
			t.Errorf("got %q dropped %q", got, res.Dropped)
		}
	})

	t.Run("flushed", func(t *testing.T) {
		doer := &MockDoer{Response: newResponse(200, models.ContentTypeEventStream, body)}
		got, _, err := collectStream(t, newTestClient(t, doer, "tok", WithFlushPartial(true)))
		if err != nil {
			t.Fatal(err)
		}
		if strings.Join(got, "") != "ab" {
			t.Errorf("got %q", got)
		}
	})
}

func TestStreamChat_NoProject(t *testing.T) {
	doer := &MockDoer{}
	c := newTestClient(t, doer, "tok")

	_, err := c.StreamChat(context.Background(), models.ChatRequest{}, nil)
	if !errors.Is(err, apierrors.ErrNoProject) {
		t.Errorf("error = %v", err)
	}
	if len(doer.Requests) != 0 {
		t.Error("no request expected")
	}
}

func TestStreamChat_Canceled(t *testing.T) {
	doer := &MockDoer{Response: newResponse(200, models.ContentTypeEventStream, "data: a\n")}
	c := newTestClient(t, doer, "tok")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.StreamChat(ctx, chatRequest(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if apierrors.IsNetworkError(err) {
		t.Error("cancellation should not be reported as a network error")
	}
}
