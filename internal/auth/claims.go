package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the ID token fields the CLI shows and schedules refreshes on.
// The backend verifies the signature; the client only reads them.
type Claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	jwt.RegisteredClaims
}

// ParseClaims decodes token without verifying its signature
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("invalid id token: %w", err)
	}
	return claims, nil
}

// Expiry returns the exp claim, or the zero time when absent
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// ExpiresWithin reports whether the token expires before now+d
func (c *Claims) ExpiresWithin(now time.Time, d time.Duration) bool {
	exp := c.Expiry()
	return !exp.IsZero() && now.Add(d).After(exp)
}
