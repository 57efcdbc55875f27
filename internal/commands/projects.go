package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) newProjectsCmd() *cobra.Command {
	projectsCmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Manage projects",
		Long:    `List and create the projects that group your conversations.`,
	}

	var asJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runProjectsList(cmd, asJSON)
		},
	}
	listCmd.Flags().BoolVar(&asJSON, "json", false, "Print the list as JSON")

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runProjectsCreate(cmd, strings.Join(args, " "))
		},
	}

	projectsCmd.AddCommand(listCmd, createCmd)
	return projectsCmd
}

func (a *app) runProjectsList(cmd *cobra.Command, asJSON bool) error {
	client, release, err := a.openBackend(cmd.Context())
	if err != nil {
		return err
	}
	defer release()

	projects, err := client.ListProjects(cmd.Context())
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(a.deps.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(projects)
	}

	if len(projects) == 0 {
		fmt.Fprintln(a.deps.Stdout, "No projects yet. Create one with:\n  researchcopilot projects create <name>")
		return nil
	}

	w := tabwriter.NewWriter(a.deps.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tNAME\tID")
	for i, p := range projects {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, truncate(p.Name, 40), p.ID)
	}
	return w.Flush()
}

func (a *app) runProjectsCreate(cmd *cobra.Command, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("project name cannot be empty")
	}

	client, release, err := a.openBackend(cmd.Context())
	if err != nil {
		return err
	}
	defer release()

	project, err := client.CreateProject(cmd.Context(), name)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.deps.Stdout, "Project '%s' created (id %s).\n", project.Name, project.ID)
	return nil
}
