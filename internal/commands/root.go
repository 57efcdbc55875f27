// Package commands provides CLI commands for researchcopilot.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/diogo/researchcopilot/internal/config"
	"github.com/diogo/researchcopilot/internal/logging"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// app carries the loaded configuration and the flags shared by subcommands
type app struct {
	deps *Dependencies
	cfg  config.Config

	// Global flags
	project string
	persona string
	backend string

	// Root flags
	output  string
	file    string
	copy    bool
	raw     bool
	version bool
}

// NewRootCmd builds the command tree around deps
func NewRootCmd(deps *Dependencies) *cobra.Command {
	a := &app{deps: deps.withDefaults()}

	rootCmd := &cobra.Command{
		Use:   "researchcopilot [prompt]",
		Short: "CLI for the Research Copilot assistant",
		Long: `researchcopilot is a command-line client for Research Copilot, a
project-based research assistant. Conversations live in projects; every
prompt is sent with the project's history and the reply is streamed back.

Examples:
  researchcopilot login                         Sign in with Google
  researchcopilot chat                          Start interactive chat
  researchcopilot projects list                 List your projects
  researchcopilot "¿Qué es una revisión sistemática?"
  researchcopilot -p tesis -f borrador.md       Send a file to project "tesis"
  cat notas.md | researchcopilot -p @last       Read prompt from stdin
  researchcopilot "Resumí" -o resumen.md        Save the reply to a file`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.version {
				fmt.Fprintf(a.deps.Stdout, "researchcopilot %s (built %s)\n", Version, BuildTime)
				return nil
			}

			prompt, ok, err := a.readPrompt(args)
			if err != nil {
				return err
			}
			if !ok {
				return cmd.Help()
			}
			return a.runQuery(cmd.Context(), prompt)
		},
	}

	rootCmd.SetIn(a.deps.Stdin)
	rootCmd.SetOut(a.deps.Stdout)
	rootCmd.SetErr(a.deps.Stderr)

	rootCmd.PersistentFlags().StringVarP(&a.project, "project", "p", "", "Project reference (name, id, index, @first, @last)")
	rootCmd.PersistentFlags().StringVar(&a.persona, "persona", "", "Persona (system prompt) to use")
	rootCmd.PersistentFlags().StringVar(&a.backend, "backend", "", "Backend base URL (overrides config)")
	rootCmd.Flags().StringVarP(&a.output, "output", "o", "", "Save response to file")
	rootCmd.Flags().StringVarP(&a.file, "file", "f", "", "Read prompt from file")
	rootCmd.Flags().BoolVar(&a.copy, "copy", false, "Copy the reply to the clipboard")
	rootCmd.Flags().BoolVar(&a.raw, "raw", false, "Print the reply as it streams, without decoration")
	rootCmd.Flags().BoolVarP(&a.version, "version", "v", false, "Show version and exit")

	rootCmd.AddCommand(
		a.newChatCmd(),
		a.newLoginCmd(),
		a.newLogoutCmd(),
		a.newWhoamiCmd(),
		a.newProjectsCmd(),
		a.newMessagesCmd(),
		a.newConfigCmd(),
		a.newPersonaCmd(),
		a.newDoctorCmd(),
	)

	return rootCmd
}

// setup loads the configuration and starts logging
func (a *app) setup() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(a.deps.Stderr, "Warning: %v (using defaults)\n", err)
	}
	if a.backend != "" {
		cfg.BackendURL = a.backend
	}
	a.cfg = cfg

	if _, err := logging.Init(cfg); err != nil {
		fmt.Fprintf(a.deps.Stderr, "Warning: logging disabled: %v\n", err)
	}
	slog.Debug("config_loaded", "backend", cfg.BackendURL, "version", Version)
	return nil
}

// readPrompt returns the prompt from -f, stdin or the positional argument,
// in that order. ok is false when none was given.
func (a *app) readPrompt(args []string) (string, bool, error) {
	if a.file != "" {
		data, err := os.ReadFile(a.file)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), true, nil
	}

	if a.deps.StdinPiped() {
		data, err := io.ReadAll(a.deps.Stdin)
		if err != nil {
			return "", false, fmt.Errorf("failed to read stdin: %w", err)
		}
		if len(data) > 0 {
			return string(data), true, nil
		}
	}

	if len(args) > 0 {
		return args[0], true, nil
	}
	return "", false, nil
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	deps := NewDependencies()
	if err := NewRootCmd(deps).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(deps.Stderr, formatErrorMessage(err))
		stop()
		os.Exit(1)
	}
}
