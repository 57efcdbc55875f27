package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/diogo/researchcopilot/internal/api"
	"github.com/diogo/researchcopilot/internal/chat"
	"github.com/diogo/researchcopilot/internal/config"
	"github.com/diogo/researchcopilot/internal/history"
	"github.com/diogo/researchcopilot/internal/models"
	"github.com/diogo/researchcopilot/internal/render"
	"github.com/diogo/researchcopilot/internal/stream"
)

// defaultProjectRef is used when neither -p nor the config names a project.
// It matches the project the chat selects on start.
const defaultProjectRef = "@first"

// projectRef returns the project reference to use for explicit, falling
// back to the flag and then the configured default
func (a *app) projectRef(explicit string) string {
	for _, ref := range []string{explicit, a.project, a.cfg.DefaultProject} {
		if ref = strings.TrimSpace(ref); ref != "" {
			return ref
		}
	}
	return defaultProjectRef
}

// resolvePersona returns the persona named by --persona or the configured default
func (a *app) resolvePersona() (*config.Persona, error) {
	persona, err := config.ResolvePersona(a.persona)
	if err != nil {
		return nil, fmt.Errorf("failed to load persona: %w", err)
	}
	return persona, nil
}

// runQuery sends a single prompt to a project and prints the reply
func (a *app) runQuery(ctx context.Context, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	persona, err := a.resolvePersona()
	if err != nil {
		return err
	}

	decorated := !a.raw && a.deps.IsTerminal()

	client, release, err := a.openBackend(ctx)
	if err != nil {
		return err
	}
	defer release()

	spin := a.startProgress(decorated, "Cargando proyecto")
	send, state, err := a.prepareSend(ctx, client, persona, prompt)
	if err != nil {
		spin.fail()
		return err
	}
	spin.success("Proyecto: " + send.Request.ProjectName)

	// Raw mode to stdout passes fragments through as they arrive
	passthrough := !decorated && a.output == ""
	spin = a.startProgress(decorated, "Generando respuesta")

	// A failed write to stdout (closed pipe) stops the stream
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var writeErr error

	state.OpenReply(send.StreamID)
	start := time.Now()
	res, err := client.StreamChat(streamCtx, send.Request, func(ev stream.Event) {
		state.ApplyFragment(send.StreamID, ev.Text)
		if passthrough && writeErr == nil {
			if _, werr := io.WriteString(a.deps.Stdout, ev.Text); werr != nil {
				writeErr = werr
				cancel()
			}
		}
		if ev.Seq == 1 {
			spin.update("Recibiendo respuesta")
		}
	})
	if writeErr != nil {
		err = fmt.Errorf("failed to write reply: %w", writeErr)
	}
	state.FinishStream(send.StreamID, err)
	slog.Info("query_finished",
		"project_id", send.Request.ProjectID,
		"fragments", res.Fragments,
		"duration", time.Since(start),
		"error", err,
	)

	reply := lastReply(state)
	if err != nil {
		spin.fail()
		if reply != "" && !passthrough {
			// Keep what arrived before the failure
			a.printReply(reply, decorated)
		}
		return err
	}
	spin.success("Listo")

	if passthrough {
		if reply != "" && !strings.HasSuffix(reply, "\n") {
			fmt.Fprintln(a.deps.Stdout)
		}
	} else if a.output == "" {
		a.printReply(reply, decorated)
	}

	if a.output != "" {
		if err := os.WriteFile(a.output, []byte(reply), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if decorated {
			fmt.Fprintln(a.deps.Stderr, successStyle.Render(fmt.Sprintf("✓ Respuesta guardada en %s", a.output)))
		}
	}

	if a.copy || a.cfg.CopyToClipboard {
		a.copyReply(reply)
	}
	return nil
}

// prepareSend resolves the project, loads its history and builds the
// request through the same reducer the chat uses
func (a *app) prepareSend(ctx context.Context, client api.BackendClient, persona *config.Persona, prompt string) (chat.Send, *chat.State, error) {
	projects, err := client.ListProjects(ctx)
	if err != nil {
		return chat.Send{}, nil, err
	}
	project, err := history.ResolveIn(projects, a.projectRef(""))
	if err != nil {
		return chat.Send{}, nil, err
	}

	msgs, err := client.ListMessages(ctx, project.ID)
	if err != nil {
		return chat.Send{}, nil, err
	}

	state := chat.NewState()
	if sys, ok := persona.SystemMessage(); ok {
		state.SystemPrompt = sys.Content
	}
	state.SetProjects(projects)
	state.Select(project.ID)
	state.SetMessages(project.ID, msgs)

	send, ok := state.BeginSend(prompt)
	if !ok {
		return chat.Send{}, nil, fmt.Errorf("could not send to project '%s'", project.Name)
	}
	return send, state, nil
}

func lastReply(state *chat.State) string {
	msgs := state.Transcript.Messages()
	if n := len(msgs); n > 0 && msgs[n-1].Role == models.RoleAssistant {
		return msgs[n-1].Content
	}
	return ""
}

// printReply writes the reply, inside a rendered bubble on a terminal
func (a *app) printReply(reply string, decorated bool) {
	if !decorated {
		fmt.Fprintln(a.deps.Stdout, reply)
		return
	}

	bubbleWidth := min(max(getTerminalWidth()-4, 40), 120)
	opts := render.OptionsFromConfig(a.cfg).WithWidth(bubbleWidth - 4)

	fmt.Fprintln(a.deps.Stdout)
	fmt.Fprintln(a.deps.Stdout, assistantLabelStyle.Render("✦ Copilot"))
	fmt.Fprintln(a.deps.Stdout, assistantBubbleStyle.Width(bubbleWidth).Render(render.Reply(reply, opts)))
}

func (a *app) copyReply(reply string) {
	if reply == "" {
		return
	}
	if err := clipboard.WriteAll(reply); err != nil {
		fmt.Fprintln(a.deps.Stderr, errorStyle.Render(fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		return
	}
	fmt.Fprintln(a.deps.Stderr, successStyle.Render("✓ Copied to clipboard"))
}
