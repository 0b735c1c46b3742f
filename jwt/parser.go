package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is returned when a token cannot be decoded as a JWT.
var ErrMalformedToken = errors.New("malformed access token")

// Claims are the access token fields the client reads.
type Claims struct {
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Name          string `json:"name,omitempty"`
	Premium       bool   `json:"premium,omitempty"`
	jwt.RegisteredClaims
}

// ParseUnverified decodes tokenStr without checking its signature.
func ParseUnverified(tokenStr string) (*Claims, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return nil, ErrMalformedToken
	}

	parser := jwt.NewParser()
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return claims, nil
}

// UserID returns the subject claim.
func (c *Claims) UserID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}

// Expiry returns the exp claim and whether it was present.
func (c *Claims) Expiry() (time.Time, bool) {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}, false
	}
	return c.ExpiresAt.Time, true
}

// ExpiresWithin reports whether the token is expired at now+window. Tokens without
// an exp claim never expire.
func (c *Claims) ExpiresWithin(now time.Time, window time.Duration) bool {
	exp, ok := c.Expiry()
	if !ok {
		return false
	}
	return !now.Add(window).Before(exp)
}
