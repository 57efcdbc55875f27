package auth

import (
	"io"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/golang-jwt/jwt/v5"
)

// tokenDoer answers token endpoint calls with a canned reply
type tokenDoer struct {
	mu     sync.Mutex
	status int
	body   string
	err    error
	forms  []url.Values
	// before runs ahead of each reply, outside the lock
	before func()
}

func (d *tokenDoer) Do(req *fhttp.Request) (*fhttp.Response, error) {
	if d.before != nil {
		d.before()
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	data, _ := io.ReadAll(req.Body)
	form, _ := url.ParseQuery(string(data))
	d.forms = append(d.forms, form)
	if d.err != nil {
		return nil, d.err
	}
	status := d.status
	if status == 0 {
		status = 200
	}
	return &fhttp.Response{
		StatusCode: status,
		Header:     fhttp.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(d.body)),
	}, nil
}

func (d *tokenDoer) calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.forms)
}

func (d *tokenDoer) lastForm() url.Values {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.forms) == 0 {
		return nil
	}
	return d.forms[len(d.forms)-1]
}

// signedToken builds an HS256 JWT; only the claims matter to the client
func signedToken(t *testing.T, email string, exp time.Time) string {
	t.Helper()
	claims := Claims{
		Email: email,
		Name:  "Ana",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1234",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return token
}

func testFlowConfig() FlowConfig {
	return FlowConfig{
		ClientID:     "client-id",
		ClientSecret: "secret",
		AuthURL:      "https://accounts.example.com/auth",
		TokenURL:     "https://oauth.example.com/token",
		Scopes:       []string{"openid", "email"},
	}
}
