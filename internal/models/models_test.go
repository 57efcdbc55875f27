package models

import (
	"encoding/json"
	"testing"
)

func TestProjectMessagesPath(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"3f2a", "/projects/3f2a/messages"},
		{"a/b", "/projects/a%2Fb/messages"},
		{"con espacio", "/projects/con%20espacio/messages"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := ProjectMessagesPath(tt.id); got != tt.want {
				t.Errorf("ProjectMessagesPath(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleSystem, RoleUser, RoleAssistant} {
		if !r.Valid() {
			t.Errorf("%q should be valid", r)
		}
	}
	if Role("tool").Valid() {
		t.Error("unknown role should be invalid")
	}
}

func TestChatRequestWireFormat(t *testing.T) {
	req := ChatRequest{
		ProjectID:   "p1",
		ProjectName: "Tesis",
		Messages:    []Message{{Role: RoleUser, Content: "hola"}},
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	want := `{"project_id":"p1","project_name":"Tesis","messages":[{"role":"user","content":"hola"}]}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestProjectDecode(t *testing.T) {
	var p Project
	if err := json.Unmarshal([]byte(`{"id":"x","name":"Demo","user_id":"u@example.com"}`), &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if p.ID != "x" || p.Name != "Demo" || p.UserID != "u@example.com" {
		t.Errorf("unexpected project: %+v", p)
	}
}

func TestStreamHeaders(t *testing.T) {
	h := StreamHeaders()
	if h["Accept"] != ContentTypeEventStream {
		t.Errorf("Accept = %q", h["Accept"])
	}
	if h["Content-Type"] != ContentTypeJSON {
		t.Errorf("Content-Type = %q", h["Content-Type"])
	}
}

func TestIsErrorFragment(t *testing.T) {
	if !IsErrorFragment("[error] RateLimitError: slow down") {
		t.Error("expected error fragment")
	}
	if IsErrorFragment("respuesta normal") {
		t.Error("plain text is not an error fragment")
	}
}
