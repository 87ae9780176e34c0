// Package credentials provides bearer tokens which the transport attaches to
// every request.
package credentials

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/jonboulle/clockwork"

	"github.com/ledgerdb/ledger-go-sdk/internal/xerrors"
)

// Credentials is an interface of token provider
type Credentials interface {
	// Token must return actual token or error
	Token(ctx context.Context) (string, error)
}

// Func is an adapter to use ordinary functions as Credentials
type Func func(ctx context.Context) (string, error)

func (f Func) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

type anonymousCredentials struct{}

// Token implements Credentials.
func (anonymousCredentials) Token(context.Context) (string, error) {
	return "", nil
}

// NewAnonymousCredentials makes credentials which attach nothing
func NewAnonymousCredentials() Credentials {
	return anonymousCredentials{}
}

// accessTokenCredentials implements Credentials interface with static
// authorization parameters.
type accessTokenCredentials struct {
	token string
}

func NewAccessTokenCredentials(token string) Credentials {
	return accessTokenCredentials{
		token: token,
	}
}

// Token implements Credentials.
func (a accessTokenCredentials) Token(context.Context) (string, error) {
	return a.token, nil
}

type cachedOptions struct {
	clock clockwork.Clock
}

type CachedOption func(o *cachedOptions)

func WithClock(clock clockwork.Clock) CachedOption {
	return func(o *cachedOptions) {
		o.clock = clock
	}
}

// NewCachedCredentials caches JWT tokens issued by source. A token is reused
// until half of its lifetime passed.
func NewCachedCredentials(source Credentials, opts ...CachedOption) Credentials {
	o := cachedOptions{
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return &cachedCredentials{
		source: source,
		clock:  o.clock,
	}
}

type cachedCredentials struct {
	source Credentials
	clock  clockwork.Clock

	mu        sync.Mutex
	token     string
	refreshAt time.Time
}

func (c *cachedCredentials) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.token != "" && now.Before(c.refreshAt) {
		return c.token, nil
	}

	token, err := c.source.Token(ctx)
	if err != nil {
		return "", xerrors.WithStackTrace(err)
	}
	expiresAt, err := parseExpiresAt(token)
	if err != nil {
		return "", xerrors.WithStackTrace(err)
	}
	c.refreshAt = now.Add(expiresAt.Sub(now) / 2)
	c.token = token

	return c.token, nil
}

func parseExpiresAt(raw string) (expiresAt time.Time, err error) {
	var claims jwt.RegisteredClaims
	if _, _, err = jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return expiresAt, xerrors.WithStackTrace(err)
	}
	if claims.ExpiresAt == nil {
		return expiresAt, xerrors.WithStackTrace(xerrors.New("token has no expiration time"))
	}

	return claims.ExpiresAt.Time, nil
}
