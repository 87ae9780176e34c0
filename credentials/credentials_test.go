package credentials

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		Subject:   "ledger-client",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	return token
}

func TestAccessToken(t *testing.T) {
	token, err := NewAccessTokenCredentials("token").Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "token", token)

	token, err = NewAnonymousCredentials().Token(context.Background())
	require.NoError(t, err)
	require.Empty(t, token)
}

func TestCachedCredentials(t *testing.T) {
	ctx := context.Background()

	t.Run("RefreshAtHalfLifetime", func(t *testing.T) {
		clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		var calls int
		c := NewCachedCredentials(Func(func(context.Context) (string, error) {
			calls++

			return signedToken(t, clock.Now().Add(time.Hour)), nil
		}), WithClock(clock))

		first, err := c.Token(ctx)
		require.NoError(t, err)
		clock.Advance(29 * time.Minute)
		cached, err := c.Token(ctx)
		require.NoError(t, err)
		require.Equal(t, first, cached)
		require.Equal(t, 1, calls)

		clock.Advance(2 * time.Minute)
		refreshed, err := c.Token(ctx)
		require.NoError(t, err)
		require.NotEqual(t, first, refreshed)
		require.Equal(t, 2, calls)
	})
	t.Run("SourceError", func(t *testing.T) {
		errSource := errors.New("source")
		c := NewCachedCredentials(Func(func(context.Context) (string, error) {
			return "", errSource
		}))
		_, err := c.Token(ctx)
		require.ErrorIs(t, err, errSource)
	})
	t.Run("NotJWT", func(t *testing.T) {
		c := NewCachedCredentials(NewAccessTokenCredentials("opaque"))
		_, err := c.Token(ctx)
		require.Error(t, err)
	})
	t.Run("NoExpiration", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{}).SignedString([]byte("secret"))
		require.NoError(t, err)
		c := NewCachedCredentials(NewAccessTokenCredentials(token))
		_, err = c.Token(ctx)
		require.ErrorContains(t, err, "no expiration")
	})
}
