package api

import (
	"context"
	"errors"
	"testing"

	http "github.com/bogdanfinn/fhttp"

	apierrors "github.com/diogo/researchcopilot/internal/errors"
	"github.com/diogo/researchcopilot/internal/models"
)

func TestListProjects(t *testing.T) {
	body := `[{"id":"a1","name":"Tesis","user_id":"u@x.com"},{"id":"b2","name":"Paper","user_id":"u@x.com"}]`
	doer := &MockDoer{Response: newResponse(200, models.ContentTypeJSON, body)}
	c := newTestClient(t, doer, "tok")

	projects, err := c.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(projects) != 2 || projects[0].ID != "a1" || projects[1].Name != "Paper" {
		t.Errorf("projects = %+v", projects)
	}
	if doer.LastRequest().Method != http.MethodGet {
		t.Errorf("method = %s", doer.LastRequest().Method)
	}
}

func TestListProjects_APIError(t *testing.T) {
	doer := &MockDoer{Response: newResponse(500, models.ContentTypeJSON, `{"detail":"Internal Server Error"}`)}
	c := newTestClient(t, doer, "tok")

	_, err := c.ListProjects(context.Background())
	if apierrors.GetHTTPStatus(err) != 500 {
		t.Errorf("status = %d", apierrors.GetHTTPStatus(err))
	}
	if apierrors.UserMessage(err) != "Internal Server Error" {
		t.Errorf("message = %q", apierrors.UserMessage(err))
	}
}

func TestCreateProject(t *testing.T) {
	doer := &MockDoer{Response: newResponse(200, models.ContentTypeJSON, `{"id":"n1","name":"Nuevo","user_id":"u"}`)}
	c := newTestClient(t, doer, "tok")

	project, err := c.CreateProject(context.Background(), "  Nuevo  ")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if project.ID != "n1" {
		t.Errorf("project = %+v", project)
	}

	req := doer.LastRequest()
	if req.Method != http.MethodPost {
		t.Errorf("method = %s", req.Method)
	}
	if req.Header.Get("Content-Type") != models.ContentTypeJSON {
		t.Errorf("Content-Type = %q", req.Header.Get("Content-Type"))
	}
	if doer.Bodies[0] != `{"name":"Nuevo"}` {
		t.Errorf("body = %s", doer.Bodies[0])
	}
}

func TestCreateProject_EmptyName(t *testing.T) {
	doer := &MockDoer{}
	c := newTestClient(t, doer, "tok")

	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := c.CreateProject(context.Background(), name)
		if !errors.Is(err, apierrors.ErrEmptyName) {
			t.Errorf("CreateProject(%q) error = %v", name, err)
		}
	}
	if len(doer.Requests) != 0 {
		t.Error("empty names must not reach the backend")
	}
}

func TestCreateProject_MissingID(t *testing.T) {
	doer := &MockDoer{Response: newResponse(200, models.ContentTypeJSON, `{"name":"x"}`)}
	c := newTestClient(t, doer, "tok")

	if _, err := c.CreateProject(context.Background(), "x"); !errors.Is(err, apierrors.ErrInvalidResponse) {
		t.Errorf("error = %v, want parse error", err)
	}
}

func TestListMessages(t *testing.T) {
	body := `[{"role":"user","content":"hola"},{"role":"assistant","content":"¿En qué te ayudo?"}]`
	doer := &MockDoer{Response: newResponse(200, models.ContentTypeJSON, body)}
	c := newTestClient(t, doer, "tok")

	msgs, err := c.ListMessages(context.Background(), "p/1")
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(msgs) != 2 || msgs[1].Role != models.RoleAssistant {
		t.Errorf("messages = %+v", msgs)
	}
	if got := doer.LastRequest().URL.EscapedPath(); got != "/projects/p%2F1/messages" {
		t.Errorf("path = %s", got)
	}
}

func TestListMessages_NotFound(t *testing.T) {
	doer := &MockDoer{Response: newResponse(404, models.ContentTypeJSON, `{"detail":"Project not found"}`)}
	c := newTestClient(t, doer, "tok")

	_, err := c.ListMessages(context.Background(), "zzz")
	if apierrors.UserMessage(err) != "Project not found" {
		t.Errorf("message = %q", apierrors.UserMessage(err))
	}
}

func TestListMessages_NoProject(t *testing.T) {
	c := newTestClient(t, &MockDoer{}, "tok")
	if _, err := c.ListMessages(context.Background(), ""); !errors.Is(err, apierrors.ErrNoProject) {
		t.Errorf("error = %v", err)
	}
}
