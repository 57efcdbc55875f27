// Package auth implements Google sign-in for the CLI: an authorization code
// flow with PKCE on a loopback redirect, ID token claims and token refresh.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/diogo/researchcopilot/internal/api"
	"github.com/diogo/researchcopilot/internal/config"
	"github.com/diogo/researchcopilot/internal/models"
)

// ErrNoClientID is returned when login is attempted without an OAuth client
var ErrNoClientID = errors.New("no OAuth client id configured. Set " + config.EnvClientID + " or run:\n  researchcopilot config set oauth.client_id <id>")

// FlowConfig holds configuration for the authorization code flow
type FlowConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectPort int
	Scopes       []string
}

// GoogleFlowConfig returns the flow config for the Google identity platform
func GoogleFlowConfig(oauth config.OAuthConfig) FlowConfig {
	return FlowConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		AuthURL:      models.EndpointGoogleAuth,
		TokenURL:     models.EndpointGoogleToken,
		RedirectPort: oauth.RedirectPort,
		Scopes:       models.GoogleScopes,
	}
}

// Flow is a login waiting for the browser to hit the loopback callback
type Flow struct {
	AuthURL string

	cfg         FlowConfig
	doer        api.Doer
	verifier    string
	state       string
	redirectURI string
	server      *http.Server
	listener    net.Listener
	tokenCh     chan *TokenResponse
	errCh       chan error
}

// StartFlow listens on the loopback redirect port and prepares the URL the
// user must open. Port 0 picks a free port.
func StartFlow(cfg FlowConfig, doer api.Doer) (*Flow, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, ErrNoClientID
	}

	verifier, err := randomString(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}
	state, err := randomString(16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", cfg.RedirectPort))
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	f := &Flow{
		cfg:         cfg,
		doer:        doer,
		verifier:    verifier,
		state:       state,
		redirectURI: fmt.Sprintf("http://127.0.0.1:%d/callback", port),
		listener:    listener,
		tokenCh:     make(chan *TokenResponse, 1),
		errCh:       make(chan error, 1),
	}
	f.AuthURL = f.authURL()

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", f.handleCallback)
	f.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := f.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Debug("login_callback_server_error", "error", err)
			f.fail(fmt.Errorf("callback server error: %w", err))
		}
	}()

	slog.Debug("login_flow_started", "redirect_uri", f.redirectURI)
	return f, nil
}

func (f *Flow) authURL() string {
	params := url.Values{}
	params.Set("client_id", f.cfg.ClientID)
	params.Set("response_type", "code")
	params.Set("redirect_uri", f.redirectURI)
	params.Set("code_challenge", codeChallenge(f.verifier))
	params.Set("code_challenge_method", "S256")
	params.Set("state", f.state)
	// Google only returns a refresh token for offline access with consent
	params.Set("access_type", "offline")
	params.Set("prompt", "consent")
	if len(f.cfg.Scopes) > 0 {
		params.Set("scope", strings.Join(f.cfg.Scopes, " "))
	}
	return f.cfg.AuthURL + "?" + params.Encode()
}

func (f *Flow) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errCode := query.Get("error"); errCode != "" {
		desc := query.Get("error_description")
		f.fail(fmt.Errorf("authorization error: %s %s", errCode, desc))
		writePage(w, http.StatusBadRequest, "Autorización fallida", desc)
		return
	}

	if query.Get("state") != f.state {
		f.fail(errors.New("state mismatch in authorization response"))
		writePage(w, http.StatusBadRequest, "Autorización fallida", "El estado no coincide.")
		return
	}

	code := query.Get("code")
	if code == "" {
		f.fail(errors.New("no authorization code received"))
		writePage(w, http.StatusBadRequest, "Autorización fallida", "No se recibió el código.")
		return
	}

	token, err := exchangeCode(r.Context(), f.doer, f.cfg, code, f.verifier, f.redirectURI)
	if err != nil {
		f.fail(err)
		writePage(w, http.StatusBadGateway, "Autorización fallida", err.Error())
		return
	}

	select {
	case f.tokenCh <- token:
	default:
	}
	writePage(w, http.StatusOK, "Sesión iniciada", "Podés cerrar esta ventana y volver a la terminal.")
}

func (f *Flow) fail(err error) {
	select {
	case f.errCh <- err:
	default:
	}
}

// Wait blocks until the callback delivers tokens, fails, or timeout elapses.
// The callback server is shut down before Wait returns.
func (f *Flow) Wait(ctx context.Context, timeout time.Duration) (*TokenResponse, error) {
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case token := <-f.tokenCh:
		slog.Debug("login_callback_success")
		return token, nil
	case err := <-f.errCh:
		slog.Debug("login_callback_error", "error", err)
		return nil, err
	case <-ctx.Done():
		slog.Debug("login_callback_timeout")
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, errors.New("authorization timed out")
	}
}

// Close stops the callback server
func (f *Flow) Close() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = f.server.Shutdown(shutdownCtx)
}

// RedirectURI returns the loopback URL registered in the authorization request
func (f *Flow) RedirectURI() string {
	return f.redirectURI
}

func writePage(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, "<html><body><h1>%s</h1><p>%s</p></body></html>",
		html.EscapeString(title), html.EscapeString(detail))
}

func randomString(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func codeChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
