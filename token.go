package tindak

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/ambiyansyah-risyal/tindak/internal/singleflight"
)

// DefaultExpiryMargin is how close to expiry a token may be before the guard
// treats it as already expired. Refreshing a few seconds early avoids racing
// the remote service's own clock.
const DefaultExpiryMargin = 10 * time.Second

// Token is a snapshot of the current credential. Exclusively owned by a
// TokenGuard; callers only ever read a snapshot and must not mutate it.
type Token struct {
	AccessToken  string
	RefreshToken string
	Scopes       []string
	ExpiresAt    time.Time
}

// Valid reports whether the token is usable at now given the expiry margin.
func (t *Token) Valid(now time.Time, margin time.Duration) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	return now.Add(margin).Before(t.ExpiresAt)
}

// HasScope reports whether the token carries the given scope.
func (t *Token) HasScope(scope string) bool {
	if t == nil {
		return false
	}
	for _, s := range t.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Refresher exchanges the current refresh material for a new Token. Invoked
// only by TokenGuard; a failure means the credential is invalid or revoked.
type Refresher interface {
	Refresh(ctx context.Context, current *Token) (*Token, error)
}

// RefresherFunc adapts a function to the Refresher interface.
type RefresherFunc func(ctx context.Context, current *Token) (*Token, error)

func (f RefresherFunc) Refresh(ctx context.Context, current *Token) (*Token, error) {
	return f(ctx, current)
}

// TokenGuard owns the current token and its expiry. EnsureValid hands out a
// non-expired snapshot, performing at most one refresh at a time no matter
// how many callers overlap; late callers wait for the in-flight refresh and
// observe the same token.
type TokenGuard struct {
	current   atomic.Pointer[Token]
	refresher Refresher
	margin    time.Duration
	flight    *singleflight.Group
	onRefresh func(err error)
}

// NewTokenGuard creates a guard around an initial token (may be nil) and a
// refresher (may be nil, in which case an expired token is fatal).
func NewTokenGuard(initial *Token, refresher Refresher, margin time.Duration) *TokenGuard {
	if margin <= 0 {
		margin = DefaultExpiryMargin
	}
	g := &TokenGuard{
		refresher: refresher,
		margin:    margin,
		flight:    singleflight.New(),
	}
	if initial != nil {
		g.current.Store(initial)
	}
	return g
}

// Current returns the current token snapshot without any validity check.
func (g *TokenGuard) Current() *Token {
	return g.current.Load()
}

// SetToken replaces the current token atomically.
func (g *TokenGuard) SetToken(t *Token) {
	g.current.Store(t)
}

// HasRefresher reports whether the guard can refresh an expired token.
func (g *TokenGuard) HasRefresher() bool {
	return g.refresher != nil
}

// OnRefresh registers fn to observe refresh outcomes (nil error means
// success). Set before the guard is shared between goroutines.
func (g *TokenGuard) OnRefresh(fn func(err error)) {
	g.onRefresh = fn
}

// ForceExpire marks the current token as expired so the next EnsureValid
// takes the refresh path. Exists to exercise refresh deterministically.
func (g *TokenGuard) ForceExpire() {
	t := g.current.Load()
	if t == nil {
		return
	}
	expired := *t
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	g.current.Store(&expired)
}

// EnsureValid returns a non-expired token, refreshing first when needed.
// Concurrent callers overlapping a refresh coalesce into a single refresh
// call and all observe the token it produced. A refresh failure is fatal and
// surfaces as an authentication error.
func (g *TokenGuard) EnsureValid(ctx context.Context) (*Token, error) {
	if t := g.current.Load(); t.Valid(time.Now(), g.margin) {
		return t, nil
	}

	v, err, _ := g.flight.Do("refresh", func() (interface{}, error) {
		// Re-check under the flight: a caller queued behind a finished
		// refresh must not trigger a second one.
		if t := g.current.Load(); t.Valid(time.Now(), g.margin) {
			return t, nil
		}
		if g.refresher == nil {
			return nil, ErrNoRefresher
		}
		fresh, err := g.refresher.Refresh(ctx, g.current.Load())
		if g.onRefresh != nil {
			g.onRefresh(err)
		}
		if err != nil {
			return nil, &ClientError{
				Type:      ErrorTypeAuthentication,
				Message:   "token refresh failed",
				Cause:     err,
				Timestamp: time.Now(),
			}
		}
		g.current.Store(fresh)
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Token), nil
}

// OAuth2Refresher adapts an oauth2.TokenSource into a Refresher. The source
// carries its own refresh material, so the current token is ignored.
func OAuth2Refresher(source oauth2.TokenSource) Refresher {
	return RefresherFunc(func(ctx context.Context, _ *Token) (*Token, error) {
		tok, err := source.Token()
		if err != nil {
			return nil, err
		}
		return &Token{
			AccessToken:  tok.AccessToken,
			RefreshToken: tok.RefreshToken,
			ExpiresAt:    tok.Expiry,
		}, nil
	})
}

// TokenFromJWT builds a Token from a JWT access token, inferring expiry and
// scopes from the exp and scope claims. The signature is not verified; the
// caller already trusts the token, this only recovers metadata the token
// endpoint did not report separately.
func TokenFromJWT(accessToken, refreshToken string) (*Token, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}

	t := &Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t.ExpiresAt = exp.Time
	}
	if scope, ok := claims["scope"].(string); ok && scope != "" {
		t.Scopes = strings.Fields(scope)
	}
	return t, nil
}
