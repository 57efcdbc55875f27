package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/diogo/researchcopilot/internal/api"
	"github.com/diogo/researchcopilot/internal/auth"
	"github.com/diogo/researchcopilot/internal/config"
)

// tokenSource says where the bearer token came from
type tokenSource string

const (
	sourceEnv    tokenSource = "environment"
	sourceStored tokenSource = "stored credentials"
)

// loadToken returns the bearer token, preferring the environment over the
// credential store. creds is nil for an environment token.
func (a *app) loadToken() (string, *config.Credentials, tokenSource, error) {
	if a.cfg.EnvToken != "" {
		return a.cfg.EnvToken, nil, sourceEnv, nil
	}
	creds, err := config.LoadCredentials()
	if err != nil {
		return "", nil, "", err
	}
	return creds.GetIDToken(), creds, sourceStored, nil
}

// openBackend returns an authenticated client and a function releasing it.
// Stored credentials are refreshed in the background and deleted when the
// backend rejects them.
func (a *app) openBackend(ctx context.Context) (api.BackendClient, func(), error) {
	if a.deps.Client != nil {
		return a.deps.Client, func() {}, nil
	}

	token, creds, source, err := a.loadToken()
	if err != nil {
		return nil, nil, err
	}

	session := api.NewSession(token)
	if creds != nil {
		session.OnInvalidate(func() {
			if err := config.DeleteCredentials(); err != nil {
				slog.Warn("credentials_delete_failed", "error", err)
			}
		})
	}

	client, transport, err := a.dialBackend(session)
	if err != nil {
		return nil, nil, err
	}
	slog.Debug("backend_opened", "url", client.BaseURL(), "token_source", string(source))

	var refresher *auth.Refresher
	if creds != nil && creds.GetRefreshToken() != "" && a.cfg.OAuth.ClientID != "" {
		refresher = auth.NewRefresher(transport, auth.GoogleFlowConfig(a.cfg.OAuth), creds, session,
			auth.WithSaver(config.SaveCredentials))
		if _, err := refresher.RefreshIfNeeded(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("token_refresh_failed", "error", err)
		}
		refresher.Start()
	}

	release := func() {
		if refresher != nil {
			refresher.Stop()
		}
		client.Close()
	}
	return client, release, nil
}

// dialBackend creates a client for the configured backend and returns the
// transport it uses
func (a *app) dialBackend(session *api.Session) (*api.Client, api.Doer, error) {
	transport, err := api.NewTransport()
	if err != nil {
		return nil, nil, err
	}

	client, err := api.NewClient(a.cfg.BackendURL, session,
		api.WithHTTPClient(transport),
		api.WithRequestTimeout(time.Duration(a.cfg.RequestTimeout)*time.Second),
		api.WithFlushPartial(a.cfg.FlushPartialLine),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, transport, nil
}
