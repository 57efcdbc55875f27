package commands

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	apierrors "github.com/diogo/researchcopilot/internal/errors"
)

func TestFormatErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{"nil", nil, nil},
		{"plain", errors.New("algo falló"), []string{"algo falló"}},
		{"session expired", apierrors.NewSessionExpiredError(), []string{apierrors.SessionExpiredMessage, "401", "researchcopilot login"}},
		{"network", apierrors.NewNetworkError("/projects", errors.New("dial tcp: refused")), []string{"doctor"}},
		{"api", apierrors.NewAPIError(500, "/projects", "internal"), []string{"HTTP Status: 500"}},
		{"unexpected response", apierrors.NewUnexpectedResponseError(200, `{"detail":"x"}`), []string{"instead of a stream"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatErrorMessage(tt.err)
			if tt.err == nil {
				if got != "" {
					t.Errorf("formatErrorMessage(nil) = %q", got)
				}
				return
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("formatErrorMessage() = %q, missing %q", got, want)
				}
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"corto", 10, "corto"},
		{"Revisión sistemática", 10, "Revisió..."},
		{"漢字漢字漢字", 7, "漢字..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestSpinner(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(&buf, "Cargando")
	s.start()
	time.Sleep(100 * time.Millisecond)
	s.setMessage("Recibiendo")
	s.stopWithSuccess("Listo")
	s.stopOnce()

	out := buf.String()
	if !strings.Contains(out, "Listo") {
		t.Errorf("output missing success message: %q", out)
	}
	if !strings.HasSuffix(out, "Listo\n") {
		t.Errorf("success message should end the output: %q", out)
	}
}

func TestProgress_NilSafe(t *testing.T) {
	a := &app{deps: (&Dependencies{Stderr: &bytes.Buffer{}}).withDefaults()}
	p := a.startProgress(false, "x")
	if p != nil {
		t.Fatal("undecorated progress should be nil")
	}
	p.update("y")
	p.success("z")
	p.fail()
}
