package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diogo/researchcopilot/internal/api"
	"github.com/diogo/researchcopilot/internal/config"
	apierrors "github.com/diogo/researchcopilot/internal/errors"
)

func TestRefresh(t *testing.T) {
	doer := &tokenDoer{body: `{"id_token":"new.id.token","expires_in":3600}`}

	resp, err := Refresh(context.Background(), doer, testFlowConfig(), "refresh-1")
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if resp.IDToken != "new.id.token" {
		t.Errorf("IDToken = %q", resp.IDToken)
	}
	if resp.RefreshToken != "refresh-1" {
		t.Error("refresh token should be kept when the provider omits it")
	}

	form := doer.lastForm()
	if form.Get("grant_type") != "refresh_token" || form.Get("refresh_token") != "refresh-1" {
		t.Errorf("form = %v", form)
	}
}

func TestRefresh_Errors(t *testing.T) {
	tests := []struct {
		name     string
		doer     *tokenDoer
		refresh  string
		wantAuth bool
		status   int
	}{
		{"no refresh token", &tokenDoer{}, "", true, 401},
		{"revoked", &tokenDoer{status: 400, body: `{"error":"invalid_grant"}`}, "r", true, 401},
		{"server error", &tokenDoer{status: 503, body: "unavailable"}, "r", false, 503},
		{"other oauth error", &tokenDoer{status: 400, body: `{"error":"invalid_request","error_description":"x"}`}, "r", false, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Refresh(context.Background(), tt.doer, testFlowConfig(), tt.refresh)
			if err == nil {
				t.Fatal("expected error")
			}
			if apierrors.IsAuthError(err) != tt.wantAuth {
				t.Errorf("IsAuthError = %v, want %v (%v)", !tt.wantAuth, tt.wantAuth, err)
			}
			if got := apierrors.GetHTTPStatus(err); got != tt.status {
				t.Errorf("status = %d, want %d", got, tt.status)
			}
		})
	}
}

func TestRefresh_TransportError(t *testing.T) {
	doer := &tokenDoer{err: errors.New("dial tcp: refused")}
	_, err := Refresh(context.Background(), doer, testFlowConfig(), "r")
	if !apierrors.IsNetworkError(err) {
		t.Errorf("error = %v, want network error", err)
	}
}

func TestTokenResponse_Credentials(t *testing.T) {
	now := time.Now()
	exp := now.Add(50 * time.Minute).Truncate(time.Second)

	resp := &TokenResponse{IDToken: signedToken(t, "ana@example.com", exp), RefreshToken: "r", ExpiresIn: 3600}
	creds, err := resp.Credentials(now)
	if err != nil {
		t.Fatalf("Credentials() error = %v", err)
	}
	if creds.Email != "ana@example.com" || creds.RefreshToken != "r" {
		t.Errorf("creds = %+v", creds.Snapshot())
	}
	if !creds.Expiry.Equal(exp) {
		t.Errorf("Expiry = %v, want exp claim %v", creds.Expiry, exp)
	}

	opaque := &TokenResponse{IDToken: "not-a-jwt", ExpiresIn: 60}
	creds, _ = opaque.Credentials(now)
	if !creds.Expiry.Equal(now.Add(time.Minute)) {
		t.Errorf("Expiry = %v, want expires_in fallback", creds.Expiry)
	}

	if _, err := (&TokenResponse{AccessToken: "a"}).Credentials(now); err == nil {
		t.Error("missing id_token should fail")
	}
}

func newTestRefresher(t *testing.T, doer *tokenDoer, expiry time.Time, saved *int) (*Refresher, *config.Credentials, *api.Session) {
	t.Helper()
	creds := &config.Credentials{IDToken: "old", RefreshToken: "refresh", Expiry: expiry}
	session := api.NewSession("old")
	r := NewRefresher(doer, testFlowConfig(), creds, session,
		WithInterval(time.Hour),
		WithSaver(func(*config.Credentials) error {
			*saved++
			return nil
		}),
	)
	return r, creds, session
}

func TestRefresher_NotDue(t *testing.T) {
	doer := &tokenDoer{}
	var saved int
	r, _, _ := newTestRefresher(t, doer, time.Now().Add(time.Hour), &saved)

	refreshed, err := r.RefreshIfNeeded(context.Background())
	if err != nil || refreshed {
		t.Errorf("RefreshIfNeeded() = %v, %v", refreshed, err)
	}
	if doer.calls() != 0 {
		t.Error("no token request expected")
	}
}

func TestRefresher_Due(t *testing.T) {
	newExp := time.Now().Add(time.Hour).Truncate(time.Second)
	doer := &tokenDoer{body: `{"id_token":"` + signedToken(t, "a@b.c", newExp) + `"}`}
	var saved int
	r, creds, session := newTestRefresher(t, doer, time.Now().Add(time.Minute), &saved)

	refreshed, err := r.RefreshIfNeeded(context.Background())
	if err != nil || !refreshed {
		t.Fatalf("RefreshIfNeeded() = %v, %v", refreshed, err)
	}
	if session.Token() != creds.GetIDToken() || session.Token() == "old" {
		t.Errorf("session token = %q", session.Token())
	}
	if !creds.ExpiresAt().Equal(newExp) {
		t.Errorf("expiry = %v, want %v", creds.ExpiresAt(), newExp)
	}
	if saved != 1 {
		t.Errorf("saver called %d times", saved)
	}

	// Rate limited: a second attempt right away makes no request
	creds.Update(creds.GetIDToken(), time.Now())
	if refreshed, _ := r.RefreshIfNeeded(context.Background()); refreshed || doer.calls() != 1 {
		t.Errorf("second refresh should be rate limited, calls = %d", doer.calls())
	}
}

func TestRefresher_RevokedInvalidatesSession(t *testing.T) {
	doer := &tokenDoer{status: 400, body: `{"error":"invalid_grant"}`}
	var saved int
	r, _, session := newTestRefresher(t, doer, time.Now(), &saved)

	invalidated := false
	session.OnInvalidate(func() { invalidated = true })

	if _, err := r.RefreshIfNeeded(context.Background()); !apierrors.IsAuthError(err) {
		t.Errorf("error = %v, want auth error", err)
	}
	if !invalidated || session.Valid() {
		t.Error("session should be invalidated")
	}
	if saved != 0 {
		t.Error("nothing should be saved")
	}
}

func TestRefresher_InvalidatedSessionStaysSignedOut(t *testing.T) {
	newToken := signedToken(t, "a@b.c", time.Now().Add(time.Hour))

	t.Run("invalidated before the check", func(t *testing.T) {
		doer := &tokenDoer{body: `{"id_token":"` + newToken + `"}`}
		var saved int
		r, creds, session := newTestRefresher(t, doer, time.Now(), &saved)
		r.Start()
		defer r.Stop()

		session.Invalidate()
		if r.Running() {
			t.Error("invalidation should stop the refresher")
		}

		refreshed, err := r.RefreshIfNeeded(context.Background())
		if refreshed || err != nil {
			t.Errorf("RefreshIfNeeded() = %v, %v", refreshed, err)
		}
		if doer.calls() != 0 || saved != 0 {
			t.Errorf("calls = %d, saved = %d, want none", doer.calls(), saved)
		}
		if session.Valid() || creds.GetIDToken() != "old" {
			t.Errorf("session revived: token = %q, creds = %q", session.Token(), creds.GetIDToken())
		}

		r.Start()
		if r.Running() {
			t.Error("Start should not run for an invalidated session")
		}
	})

	t.Run("invalidated during the request", func(t *testing.T) {
		var session *api.Session
		doer := &tokenDoer{
			body:   `{"id_token":"` + newToken + `"}`,
			before: func() { session.Invalidate() },
		}
		var saved int
		r, creds, s := newTestRefresher(t, doer, time.Now(), &saved)
		session = s

		refreshed, err := r.RefreshIfNeeded(context.Background())
		if refreshed || err != nil {
			t.Errorf("RefreshIfNeeded() = %v, %v", refreshed, err)
		}
		if session.Valid() || saved != 0 || creds.GetIDToken() != "old" {
			t.Errorf("late refresh installed: valid = %v, saved = %d", session.Valid(), saved)
		}
	})
}

func TestRefresher_NoRefreshToken(t *testing.T) {
	doer := &tokenDoer{}
	r := NewRefresher(doer, testFlowConfig(), &config.Credentials{IDToken: "x", Expiry: time.Now()}, api.NewSession("x"))

	if refreshed, err := r.RefreshIfNeeded(context.Background()); refreshed || err != nil {
		t.Errorf("RefreshIfNeeded() = %v, %v", refreshed, err)
	}
	if doer.calls() != 0 {
		t.Error("no request expected")
	}
}

func TestRefresher_StartStop(t *testing.T) {
	var saved int
	r, _, _ := newTestRefresher(t, &tokenDoer{}, time.Now().Add(time.Hour), &saved)

	r.Start()
	r.Start()
	if !r.Running() {
		t.Error("refresher should be running")
	}
	r.Stop()
	r.Stop()
	if r.Running() {
		t.Error("refresher should be stopped")
	}

	r.Start()
	defer r.Stop()
	if !r.Running() {
		t.Error("refresher should restart after Stop")
	}
}
