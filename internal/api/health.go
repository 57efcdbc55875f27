package api

import (
	"context"
	"io"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/researchcopilot/internal/errors"
	"github.com/diogo/researchcopilot/internal/models"
)

// Health checks that the backend is reachable. It needs no session.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, requestID, err := c.newRequest(ctx, http.MethodGet, models.PathHealth, nil, false)
	if err != nil {
		return err
	}

	resp, err := c.send(req, requestID, models.PathHealth)
	if err != nil {
		return err
	}
	defer closeBody(resp)

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if !isSuccess(resp.StatusCode) {
		return apierrors.NewAPIError(resp.StatusCode, models.PathHealth, errorDetail(body, resp.StatusCode))
	}
	if !gjson.GetBytes(body, PathHealthOK).Bool() {
		return apierrors.NewParseError("health check did not report ok", models.PathHealth)
	}
	return nil
}
