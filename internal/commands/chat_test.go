package commands

import (
	"errors"
	"testing"

	"github.com/diogo/researchcopilot/internal/config"
)

func TestChatCmd(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		setDefault  string
		wantProject string
		wantPersona string
	}{
		{"no project", []string{"chat"}, "", "", config.DefaultPersonaName},
		{"positional project", []string{"chat", "Paper"}, "", "Paper", config.DefaultPersonaName},
		{"project flag", []string{"chat", "-p", "@last"}, "", "@last", config.DefaultPersonaName},
		{"configured default", []string{"chat"}, "Tesis", "Tesis", config.DefaultPersonaName},
		{"persona flag", []string{"chat", "--persona", "revisor"}, "", "", "revisor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.setDefault != "" {
				if err := env.run("config", "set", "default_project", tt.setDefault); err != nil {
					t.Fatal(err)
				}
			}

			if err := env.run(tt.args...); err != nil {
				t.Fatalf("run() error = %v", err)
			}
			if !env.tui.called {
				t.Fatal("TUI was not started")
			}
			if env.tui.opts.InitialProject != tt.wantProject {
				t.Errorf("InitialProject = %q, want %q", env.tui.opts.InitialProject, tt.wantProject)
			}
			if env.tui.opts.Persona == nil || env.tui.opts.Persona.Name != tt.wantPersona {
				t.Errorf("Persona = %+v, want %q", env.tui.opts.Persona, tt.wantPersona)
			}
		})
	}
}

func TestChatCmd_Errors(t *testing.T) {
	t.Run("tui error", func(t *testing.T) {
		env := newTestEnv(t)
		env.tui.err = errors.New("no tty")
		if err := env.run("chat"); err == nil || err.Error() != "no tty" {
			t.Errorf("run() error = %v", err)
		}
	})

	t.Run("unknown persona", func(t *testing.T) {
		env := newTestEnv(t)
		if err := env.run("chat", "--persona", "nadie"); err == nil {
			t.Fatal("expected error")
		}
		if env.tui.called {
			t.Error("TUI should not start")
		}
	})

	t.Run("no credentials", func(t *testing.T) {
		env := newTestEnv(t)
		env.deps.Client = nil
		if err := env.run("chat"); !errors.Is(err, config.ErrNoCredentials) {
			t.Errorf("run() error = %v, want ErrNoCredentials", err)
		}
	})
}
