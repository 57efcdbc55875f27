package auth

import (
	"testing"
	"time"
)

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	claims, err := ParseClaims(signedToken(t, "ana@example.com", exp))
	if err != nil {
		t.Fatalf("ParseClaims() error = %v", err)
	}
	if claims.Email != "ana@example.com" || claims.Subject != "1234" || claims.Name != "Ana" {
		t.Errorf("claims = %+v", claims)
	}
	if !claims.Expiry().Equal(exp) {
		t.Errorf("Expiry() = %v, want %v", claims.Expiry(), exp)
	}
}

func TestParseClaims_Invalid(t *testing.T) {
	for _, token := range []string{"", "abc", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.!!!.sig"} {
		if _, err := ParseClaims(token); err == nil {
			t.Errorf("ParseClaims(%q) expected error", token)
		}
	}
}

func TestClaimsExpiresWithin(t *testing.T) {
	now := time.Now()
	claims, _ := ParseClaims(signedToken(t, "a@b.c", now.Add(3*time.Minute)))

	if !claims.ExpiresWithin(now, 5*time.Minute) {
		t.Error("token expiring in 3m should be within 5m")
	}
	if claims.ExpiresWithin(now, time.Minute) {
		t.Error("token expiring in 3m should not be within 1m")
	}

	var empty Claims
	if empty.ExpiresWithin(now, time.Hour) || !empty.Expiry().IsZero() {
		t.Error("claims without exp never expire")
	}
}
