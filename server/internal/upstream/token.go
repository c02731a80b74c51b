package upstream

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/qubicdash/qubicdash/pkg/types"
)

// opaqueTokenTTL is how long a token without a readable exp claim is reused.
const opaqueTokenTTL = 10 * time.Minute

// Authenticator exchanges credentials for a session token.
type Authenticator interface {
	Login(ctx context.Context, creds types.Credentials) (string, error)
}

// TokenCache holds one session token and renews it before it expires.
//
// All exported methods are safe for concurrent use.
type TokenCache struct {
	auth  Authenticator
	creds types.Credentials
	skew  time.Duration
	now   func() time.Time // injectable for deterministic tests

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewTokenCache returns a cache that logs in with creds and renews skew
// before the token's exp claim.
func NewTokenCache(auth Authenticator, creds types.Credentials, skew time.Duration) *TokenCache {
	return &TokenCache{auth: auth, creds: creds, skew: skew, now: time.Now}
}

// Token returns the cached token, logging in first when there is none or it
// is about to expire. The lock is held across the login so concurrent callers
// share one login.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.token != "" && now.Before(c.expires.Add(-c.skew)) {
		return c.token, nil
	}

	token, err := c.auth.Login(ctx, c.creds)
	if err != nil {
		return "", err
	}
	c.token = token
	if exp, ok := tokenExpiry(token); ok {
		c.expires = exp
	} else {
		c.expires = now.Add(opaqueTokenTTL)
	}
	return token, nil
}

// Invalidate drops the cached token, e.g. after an upstream 401.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.expires = time.Time{}
	c.mu.Unlock()
}

// Expires returns when the cached token lapses; zero if none is cached.
func (c *TokenCache) Expires() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expires
}

// tokenExpiry reads the exp claim of a JWT without verifying its signature.
// The server issued the token to us; only its lifetime matters here.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
