package commands

import (
	"bufio"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/researchcopilot/internal/config"
)

func (a *app) newPersonaCmd() *cobra.Command {
	personaCmd := &cobra.Command{
		Use:   "persona",
		Short: "Manage chat personas",
		Long:  `View and manage personas (system prompts) sent ahead of each conversation.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available personas",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPersonaList()
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show persona details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			persona, err := config.GetPersona(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.deps.Stdout, "Name: %s\n", persona.Name)
			fmt.Fprintf(a.deps.Stdout, "Description: %s\n", persona.Description)
			if persona.SystemPrompt == "" {
				fmt.Fprintln(a.deps.Stdout, "\nSystem Prompt: (none)")
			} else {
				fmt.Fprintf(a.deps.Stdout, "\nSystem Prompt:\n%s\n", persona.SystemPrompt)
			}
			return nil
		},
	}

	var description, prompt string
	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new persona",
		Long: `Add a new persona. Without --prompt the description and system
prompt are read interactively; the prompt ends with an empty line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPersonaAdd(args[0], description, prompt, cmd.Flags().Changed("description"))
		},
	}
	addCmd.Flags().StringVar(&description, "description", "", "Short description")
	addCmd.Flags().StringVar(&prompt, "prompt", "", "System prompt")

	removeCmd := &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"delete", "rm"},
		Short:   "Delete a persona",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.DeletePersona(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.deps.Stdout, "Persona '%s' deleted.\n", args[0])
			return nil
		},
	}

	defaultCmd := &cobra.Command{
		Use:   "default <name>",
		Short: "Set default persona",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.SetDefaultPersona(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.deps.Stdout, "Default persona set to '%s'.\n", args[0])
			return nil
		},
	}

	personaCmd.AddCommand(listCmd, showCmd, addCmd, removeCmd, defaultCmd)
	return personaCmd
}

func (a *app) runPersonaList() error {
	cfg, err := config.LoadPersonas()
	if err != nil {
		return fmt.Errorf("failed to load personas: %w", err)
	}

	defaultName := cfg.DefaultPersona
	if defaultName == "" {
		defaultName = config.DefaultPersonaName
	}

	w := tabwriter.NewWriter(a.deps.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION\tDEFAULT")
	fmt.Fprintln(w, "----\t-----------\t-------")
	for _, p := range cfg.Personas {
		mark := ""
		if p.Name == defaultName {
			mark = "✓"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, truncate(p.Description, 50), mark)
	}
	return w.Flush()
}

func (a *app) runPersonaAdd(name, description, prompt string, haveDescription bool) error {
	if _, err := config.GetPersona(name); err == nil {
		return fmt.Errorf("persona '%s' already exists", name)
	}

	if prompt == "" {
		reader := bufio.NewReader(a.deps.Stdin)

		if !haveDescription {
			fmt.Fprint(a.deps.Stdout, "Enter description: ")
			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read description: %w", err)
			}
			description = strings.TrimSpace(line)
		}

		fmt.Fprintln(a.deps.Stdout, "Enter system prompt (end with an empty line):")
		var lines []string
		for {
			line, err := reader.ReadString('\n')
			line = strings.TrimRight(line, "\r\n")
			if line == "" {
				break
			}
			lines = append(lines, line)
			if err != nil {
				break
			}
		}
		prompt = strings.Join(lines, "\n")
	}

	persona := config.Persona{
		Name:         name,
		Description:  strings.TrimSpace(description),
		SystemPrompt: strings.TrimSpace(prompt),
	}
	if err := config.AddPersona(persona); err != nil {
		return err
	}

	fmt.Fprintf(a.deps.Stdout, "Persona '%s' created.\n", name)
	return nil
}
