package commands

import (
	"context"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/diogo/researchcopilot/internal/api"
	"github.com/diogo/researchcopilot/internal/browser"
	"github.com/diogo/researchcopilot/internal/tui"
)

// TUIRunner defines the methods required from the TUI package.
type TUIRunner interface {
	Run(ctx context.Context, client api.BackendClient, opts tui.Options) error
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// Client replaces the backend client built from stored credentials.
	Client api.BackendClient

	// TUI is the terminal user interface.
	TUI TUIRunner

	// OpenBrowser shows the sign-in page.
	OpenBrowser func(b browser.SupportedBrowser, url string) error

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// IsTerminal reports whether stdout is a terminal; decorations are
	// skipped otherwise.
	IsTerminal func() bool

	// StdinPiped reports whether a prompt can be read from stdin.
	StdinPiped func() bool

	Now func() time.Time
}

// DefaultTUI is the production implementation of TUIRunner.
type DefaultTUI struct{}

func (DefaultTUI) Run(ctx context.Context, client api.BackendClient, opts tui.Options) error {
	return tui.Run(ctx, client, opts)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		TUI:         DefaultTUI{},
		OpenBrowser: browser.Open,
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		IsTerminal: func() bool {
			return term.IsTerminal(int(os.Stdout.Fd()))
		},
		StdinPiped: func() bool {
			return !term.IsTerminal(int(os.Stdin.Fd()))
		},
		Now: time.Now,
	}
}

// withDefaults fills the fields a test left empty
func (d *Dependencies) withDefaults() *Dependencies {
	def := NewDependencies()
	if d == nil {
		return def
	}
	out := *d
	if out.TUI == nil {
		out.TUI = def.TUI
	}
	if out.OpenBrowser == nil {
		out.OpenBrowser = def.OpenBrowser
	}
	if out.Stdin == nil {
		out.Stdin = def.Stdin
	}
	if out.Stdout == nil {
		out.Stdout = def.Stdout
	}
	if out.Stderr == nil {
		out.Stderr = def.Stderr
	}
	if out.IsTerminal == nil {
		out.IsTerminal = def.IsTerminal
	}
	if out.StdinPiped == nil {
		out.StdinPiped = def.StdinPiped
	}
	if out.Now == nil {
		out.Now = def.Now
	}
	return &out
}
