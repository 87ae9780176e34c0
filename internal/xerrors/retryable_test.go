package xerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRetryable(t *testing.T) {
	origin := errors.New("conflict")
	for _, tt := range []struct {
		name     string
		err      error
		recovery Recovery
		ok       bool
	}{
		{
			name:     "Default",
			err:      Retryable(origin),
			recovery: RecoverySameSession,
			ok:       true,
		},
		{
			name:     "NextSession",
			err:      WithStackTrace(Retryable(origin, WithRecovery(RecoveryNextSession))),
			recovery: RecoveryNextSession,
			ok:       true,
		},
		{
			name:     "NewSession",
			err:      fmt.Errorf("wrapped: %w", Retryable(origin, WithRecovery(RecoveryNewSession))),
			recovery: RecoveryNewSession,
			ok:       true,
		},
		{
			name:     "NotRetryable",
			err:      WithStackTrace(origin),
			recovery: RecoverySameSession,
			ok:       false,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			recovery, ok := RetryableError(tt.err)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.recovery, recovery)
			require.ErrorIs(t, tt.err, origin)
		})
	}
}

func TestRetryableNil(t *testing.T) {
	require.NoError(t, Retryable(nil))
}

func TestRetryableName(t *testing.T) {
	err := Retryable(errors.New("test"), WithName("OccConflict"), WithRecovery(RecoveryNextSession))
	require.Equal(t, `retryable/OccConflict (recovery = next session, source error = "test")`, err.Error())
}

func TestUnretryable(t *testing.T) {
	origin := errors.New("origin")
	t.Run("Wrapped", func(t *testing.T) {
		err := WithStackTrace(Retryable(WithStackTrace(origin)))
		unwrapped := Unretryable(err)
		require.ErrorIs(t, unwrapped, origin)
		_, ok := RetryableError(unwrapped)
		require.False(t, ok)
	})
	t.Run("Plain", func(t *testing.T) {
		require.Equal(t, origin, Unretryable(origin))
	})
}
