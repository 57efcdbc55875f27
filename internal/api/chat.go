package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"

	apierrors "github.com/diogo/researchcopilot/internal/errors"
	"github.com/diogo/researchcopilot/internal/models"
	"github.com/diogo/researchcopilot/internal/stream"
)

// StreamChat posts req to the streaming endpoint and delivers each reply
// fragment to sink as it arrives.
//
// A 401 invalidates the session. A JSON response is reported as
// UnexpectedResponseError without touching the stream parser. Any other non-2xx
// status yields an APIError. A failure while reading the body is returned
// after the fragments already delivered.
func (c *Client) StreamChat(ctx context.Context, req models.ChatRequest, sink stream.Sink) (stream.Result, error) {
	path := models.PathChatStream
	if req.ProjectID == "" {
		return stream.Result{}, apierrors.ErrNoProject
	}

	httpReq, requestID, err := c.newRequest(ctx, http.MethodPost, path, req, true)
	if err != nil {
		return stream.Result{}, err
	}
	for key, value := range models.StreamHeaders() {
		httpReq.Header.Set(key, value)
	}

	slog.Debug("chat_stream_request",
		"project_id", req.ProjectID,
		"messages", len(req.Messages),
		"request_id", requestID,
	)

	resp, err := c.send(httpReq, requestID, path)
	if err != nil {
		return stream.Result{}, err
	}
	defer closeBody(resp)

	// 401 wins over the content type check: the backend answers it as JSON
	if resp.StatusCode == http.StatusUnauthorized {
		c.session.Invalidate()
		return stream.Result{}, apierrors.NewSessionExpiredError()
	}

	if strings.Contains(resp.Header.Get("Content-Type"), models.ContentTypeJSON) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		detail := lookupDetail(body)
		slog.Warn("chat_stream_unexpected_json",
			"status", resp.StatusCode,
			"request_id", requestID,
		)
		return stream.Result{}, apierrors.NewUnexpectedResponseError(resp.StatusCode, detail)
	}

	if !isSuccess(resp.StatusCode) {
		return stream.Result{}, apierrors.NewAPIError(
			resp.StatusCode, path,
			fmt.Sprintf("Error al enviar mensaje: %d", resp.StatusCode),
		)
	}

	start := time.Now()
	res, err := stream.Consume(ctx, resp.Body, sink, stream.WithFlushPartial(c.flushPartial))
	if err != nil {
		slog.Debug("chat_stream_aborted",
			"request_id", requestID,
			"fragments", res.Fragments,
			"error", err,
		)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return res, err
		}
		return res, apierrors.NewNetworkError(path, err)
	}

	slog.Info("chat_stream_complete",
		"project_id", req.ProjectID,
		"request_id", requestID,
		"fragments", res.Fragments,
		"bytes", res.Bytes,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}
