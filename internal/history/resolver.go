// Package history resolves project references and exports chat history.
package history

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/diogo/researchcopilot/internal/models"
)

// ProjectLister is the part of the backend client the resolver needs
type ProjectLister interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
}

// Resolver resolves user-friendly references to projects
type Resolver struct {
	lister ProjectLister
}

// NewResolver creates a new reference resolver
func NewResolver(lister ProjectLister) *Resolver {
	return &Resolver{lister: lister}
}

// Resolve fetches the project list and resolves ref against it
func (r *Resolver) Resolve(ctx context.Context, ref string) (models.Project, error) {
	if strings.TrimSpace(ref) == "" {
		return models.Project{}, fmt.Errorf("empty reference")
	}
	projects, err := r.lister.ListProjects(ctx)
	if err != nil {
		return models.Project{}, err
	}
	return ResolveIn(projects, ref)
}

// ResolveIn converts a reference to one of projects, in the order the
// backend lists them (oldest first).
//
// Supported references:
//   - "@first" - first project in the list
//   - "@last" - most recently created project
//   - "1", "2", "3" - by index (1-based)
//   - a project id
//   - a name, exact or unique substring (case-insensitive)
func ResolveIn(projects []models.Project, ref string) (models.Project, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Project{}, fmt.Errorf("empty reference")
	}
	if len(projects) == 0 {
		return models.Project{}, fmt.Errorf("no projects found. Create one with:\n  researchcopilot projects create <name>")
	}

	switch strings.ToLower(ref) {
	case "@first":
		return projects[0], nil
	case "@last":
		return projects[len(projects)-1], nil
	}

	if index, err := strconv.Atoi(ref); err == nil {
		if index < 1 || index > len(projects) {
			return models.Project{}, fmt.Errorf("index %d out of range (1-%d)", index, len(projects))
		}
		return projects[index-1], nil
	}

	for _, p := range projects {
		if p.ID == ref {
			return p, nil
		}
	}

	refLower := strings.ToLower(ref)
	var matches []models.Project
	for _, p := range projects {
		name := strings.ToLower(p.Name)
		if name == refLower {
			return p, nil
		}
		if strings.Contains(name, refLower) {
			matches = append(matches, p)
		}
	}

	switch len(matches) {
	case 0:
		return models.Project{}, fmt.Errorf("no project matching '%s'", ref)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = fmt.Sprintf("'%s'", m.Name)
		}
		return models.Project{}, fmt.Errorf("multiple projects match '%s': %s. Use the id or be more specific",
			ref, strings.Join(names, ", "))
	}
}

// ListAliases returns information about supported references
func ListAliases() string {
	return `Supported project references:
  @first         First project in the list
  @last          Most recently created project
  1, 2, 3        By index (1-based, as listed)
  <id>           Project id
  "text"         Name, exact or unique substring`
}
