package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	"github.com/diogo/researchcopilot/internal/api"
	"github.com/diogo/researchcopilot/internal/config"
	apierrors "github.com/diogo/researchcopilot/internal/errors"
)

// TokenResponse is the token endpoint reply
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
}

// Credentials converts the reply into stored credentials. The expiry comes
// from the ID token and falls back to expires_in.
func (t *TokenResponse) Credentials(now time.Time) (*config.Credentials, error) {
	if t.IDToken == "" {
		return nil, fmt.Errorf("token response has no id_token; is the openid scope granted?")
	}

	creds := &config.Credentials{
		IDToken:      t.IDToken,
		RefreshToken: t.RefreshToken,
		Expiry:       t.expiry(now),
	}
	if claims, err := ParseClaims(t.IDToken); err == nil {
		creds.Email = claims.Email
	}
	return creds, nil
}

func (t *TokenResponse) expiry(now time.Time) time.Time {
	if claims, err := ParseClaims(t.IDToken); err == nil {
		if exp := claims.Expiry(); !exp.IsZero() {
			return exp
		}
	}
	if t.ExpiresIn > 0 {
		return now.Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return time.Time{}
}

func exchangeCode(ctx context.Context, doer api.Doer, cfg FlowConfig, code, verifier, redirectURI string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("client_id", cfg.ClientID)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	form.Set("code_verifier", verifier)
	if cfg.ClientSecret != "" {
		form.Set("client_secret", cfg.ClientSecret)
	}
	return postToken(ctx, doer, cfg.TokenURL, form)
}

// Refresh obtains a fresh ID token with a refresh token. A revoked or
// expired refresh token yields an AuthError.
func Refresh(ctx context.Context, doer api.Doer, cfg FlowConfig, refreshToken string) (*TokenResponse, error) {
	if refreshToken == "" {
		return nil, apierrors.NewAuthError("no refresh token stored")
	}

	form := url.Values{}
	form.Set("client_id", cfg.ClientID)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	if cfg.ClientSecret != "" {
		form.Set("client_secret", cfg.ClientSecret)
	}

	resp, err := postToken(ctx, doer, cfg.TokenURL, form)
	if err != nil {
		return nil, err
	}
	if resp.RefreshToken == "" {
		resp.RefreshToken = refreshToken
	}
	return resp, nil
}

func postToken(ctx context.Context, doer api.Doer, tokenURL string, form url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := doer.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apierrors.NewNetworkError(tokenURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierrors.NewNetworkError(tokenURL, err)
	}

	if resp.StatusCode != http.StatusOK {
		code := gjson.GetBytes(body, "error").String()
		desc := gjson.GetBytes(body, "error_description").String()
		slog.Debug("token_request_failed", "status", resp.StatusCode, "error", code)
		switch code {
		case "invalid_grant", "unauthorized_client":
			return nil, apierrors.NewAuthError(fmt.Sprintf("token rejected: %s %s", code, desc))
		case "":
			return nil, apierrors.NewAPIError(resp.StatusCode, tokenURL, fmt.Sprintf("token request failed with status %d", resp.StatusCode))
		default:
			return nil, apierrors.NewAPIError(resp.StatusCode, tokenURL, strings.TrimSpace(code+" "+desc))
		}
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, apierrors.NewParseError(err.Error(), tokenURL)
	}
	return &token, nil
}
