package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/researchcopilot/internal/history"
	"github.com/diogo/researchcopilot/internal/render"
)

type messagesOptions struct {
	format        string
	search        string
	output        string
	includeSystem bool
}

func (a *app) newMessagesCmd() *cobra.Command {
	var opts messagesOptions

	cmd := &cobra.Command{
		Use:     "messages [project]",
		Aliases: []string{"history"},
		Short:   "Show or export a project's conversation",
		Long: `Show the conversation stored for a project, export it, or search it.

The project may be given as a name (or a unique part of it), an id, a
1-based index, @first or @last. Without one, --project or the configured
default project is used.

` + history.ListAliases() + `

Examples:
  researchcopilot messages tesis
  researchcopilot messages @last --format json -o tesis.json
  researchcopilot messages 2 --search "Popper"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ref string
			if len(args) > 0 {
				ref = args[0]
			}
			return a.runMessages(cmd, ref, opts)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "markdown", "Output format: markdown, json, text")
	cmd.Flags().StringVar(&opts.search, "search", "", "Only show messages containing this text")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the export to a file")
	cmd.Flags().BoolVar(&opts.includeSystem, "include-system", false, "Include system messages")
	return cmd
}

func (a *app) runMessages(cmd *cobra.Command, ref string, opts messagesOptions) error {
	format, err := history.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, release, err := a.openBackend(ctx)
	if err != nil {
		return err
	}
	defer release()

	project, err := history.NewResolver(client).Resolve(ctx, a.projectRef(ref))
	if err != nil {
		return err
	}
	msgs, err := client.ListMessages(ctx, project.ID)
	if err != nil {
		return err
	}

	if opts.search != "" {
		results := history.Search(msgs, opts.search)
		if len(results) == 0 {
			fmt.Fprintf(a.deps.Stdout, "No messages in '%s' contain '%s'.\n", project.Name, opts.search)
			return nil
		}
		for _, r := range results {
			fmt.Fprintf(a.deps.Stdout, "[%d] %s: %s\n", r.Index+1, history.RoleLabel(r.Role), r.Snippet)
		}
		return nil
	}

	exportOpts := history.DefaultExportOptions()
	exportOpts.Format = format
	exportOpts.IncludeSystem = opts.includeSystem
	exportOpts.Now = a.deps.Now

	data, err := history.Export(project, msgs, exportOpts)
	if err != nil {
		return err
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, data, 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(a.deps.Stderr, "Exported %d messages to %s\n", len(msgs), opts.output)
		return nil
	}

	if format == history.ExportFormatMarkdown && a.deps.IsTerminal() {
		width := min(getTerminalWidth(), 120)
		if rendered, err := render.Markdown(string(data), render.OptionsFromConfig(a.cfg).WithWidth(width)); err == nil {
			data = []byte(rendered)
		}
	}

	out := string(data)
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	_, err = fmt.Fprint(a.deps.Stdout, out)
	return err
}
