package api

import (
	"context"
	"log/slog"

	http "github.com/bogdanfinn/fhttp"

	apierrors "github.com/diogo/researchcopilot/internal/errors"
	"github.com/diogo/researchcopilot/internal/models"
)

// ListMessages returns the stored conversation of a project, oldest first
func (c *Client) ListMessages(ctx context.Context, projectID string) ([]models.Message, error) {
	if projectID == "" {
		return nil, apierrors.ErrNoProject
	}

	var messages []models.Message
	path := models.ProjectMessagesPath(projectID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}

	slog.Debug("messages_listed", "project_id", projectID, "count", len(messages))
	return messages, nil
}
