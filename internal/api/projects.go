package api

import (
	"context"
	"log/slog"
	"strings"

	http "github.com/bogdanfinn/fhttp"

	apierrors "github.com/diogo/researchcopilot/internal/errors"
	"github.com/diogo/researchcopilot/internal/models"
)

// ListProjects returns the projects owned by the session's user
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := c.doJSON(ctx, http.MethodGet, models.PathProjects, nil, &projects); err != nil {
		return nil, err
	}
	slog.Debug("projects_listed", "count", len(projects))
	return projects, nil
}

// CreateProject creates a project named name. The name is trimmed and an
// empty name is rejected without contacting the backend.
func (c *Client) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apierrors.ErrEmptyName
	}

	var project models.Project
	body := models.CreateProjectRequest{Name: name}
	if err := c.doJSON(ctx, http.MethodPost, models.PathProjects, body, &project); err != nil {
		return nil, err
	}
	if project.ID == "" {
		return nil, apierrors.NewParseError("created project has no id", models.PathProjects)
	}

	slog.Info("project_created", "project_id", project.ID)
	return &project, nil
}
