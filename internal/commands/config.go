package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/researchcopilot/internal/config"
	"github.com/diogo/researchcopilot/internal/render"
)

func (a *app) newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Long: `Show or change researchcopilot settings.

Settings live in config.json inside the config directory. Environment
variables (` + config.EnvBackendURL + `, ` + config.EnvClientID + `,
` + config.EnvToken + `, ...) and a .env file in the working directory
override the file.`,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if cfg.OAuth.ClientSecret != "" {
				cfg.OAuth.ClientSecret = "********"
			}
			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Fprintln(a.deps.Stdout, string(data))
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting",
		Long:  "Change a setting and save it.\n\nKeys:\n  " + strings.Join(config.SettableKeys(), "\n  "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFileConfig()
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if args[0] == "tui_theme" {
				if _, ok := render.GetTUIThemeByName(cfg.TUITheme); !ok {
					return fmt.Errorf("unknown theme '%s'. Available: %s", cfg.TUITheme, strings.Join(render.TUIThemeNames(), ", "))
				}
			}
			if err := config.SaveConfig(cfg); err != nil {
				return err
			}
			fmt.Fprintf(a.deps.Stdout, "%s updated.\n", args[0])
			return nil
		},
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.deps.Stdout, path)
			return nil
		},
	}

	themesCmd := &cobra.Command{
		Use:   "themes",
		Short: "List chat and markdown themes",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(a.deps.Stdout, "Chat themes (tui_theme):")
			for _, t := range render.AvailableTUIThemes() {
				fmt.Fprintf(a.deps.Stdout, "  %-12s %s\n", t.Name, t.Description)
			}
			fmt.Fprintln(a.deps.Stdout, "\nMarkdown styles (markdown.style):")
			for _, t := range render.AvailableThemes() {
				fmt.Fprintf(a.deps.Stdout, "  %-12s %s\n", t.Name, t.Description)
			}
			return nil
		},
	}

	configCmd.AddCommand(showCmd, setCmd, pathCmd, themesCmd)
	return configCmd
}
