package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diogo/researchcopilot/internal/render"
	"github.com/diogo/researchcopilot/internal/tui"
)

func (a *app) newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat [project]",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session.

Projects are listed on the left; the selected project's history is loaded
and every message is sent with it. Replies stream in as they are written.

Keys:
  Enter        Send the message
  Tab          Next project (Shift+Tab for the previous one)
  Ctrl+N       Create a project
  Ctrl+R       Reload projects
  Ctrl+P       Choose a persona (also /persona)
  Ctrl+Y       Copy the last reply
  Esc          Stop the reply being written, or quit`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ref string
			if len(args) > 0 {
				ref = args[0]
			}
			return a.runChat(cmd, ref)
		},
	}
}

func (a *app) runChat(cmd *cobra.Command, ref string) error {
	persona, err := a.resolvePersona()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, release, err := a.openBackend(ctx)
	if err != nil {
		return err
	}
	defer release()

	if a.cfg.TUITheme != "" && !tui.SetTheme(a.cfg.TUITheme) {
		fmt.Fprintf(a.deps.Stderr, "Warning: unknown theme '%s', using default\n", a.cfg.TUITheme)
	}

	opts := tui.Options{
		Persona: persona,
		Render:  render.OptionsFromConfig(a.cfg),
	}
	if ref != "" || a.project != "" || a.cfg.DefaultProject != "" {
		opts.InitialProject = a.projectRef(ref)
	}
	return a.deps.TUI.Run(ctx, client, opts)
}
