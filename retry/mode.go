package retry

import (
	"github.com/ledgerdb/ledger-go-sdk/internal/xerrors"
)

// Recovery describes what must happen with the session before the next attempt.
type Recovery = xerrors.Recovery

const (
	RecoverySameSession = xerrors.RecoverySameSession
	RecoveryNextSession = xerrors.RecoveryNextSession
	RecoveryNewSession  = xerrors.RecoveryNewSession
)

// Mode is the decision of a failure classifier.
type Mode struct {
	retryable bool
	recovery  Recovery
}

func NewMode(retryable bool, recovery Recovery) Mode {
	return Mode{
		retryable: retryable,
		recovery:  recovery,
	}
}

// MustRetry reports whether the failed operation may be attempted again.
func (m Mode) MustRetry() bool {
	return m.retryable
}

// Recovery reports how to recover before the next attempt.
func (m Mode) Recovery() Recovery {
	return m.recovery
}

// Check returns retry mode for err.
//
// Only errors marked with RetryableError are retried, context cancellation
// always stops the loop.
func Check(err error) Mode {
	if err == nil || xerrors.IsContextError(err) {
		return Mode{}
	}
	recovery, ok := xerrors.RetryableError(err)

	return Mode{
		retryable: ok,
		recovery:  recovery,
	}
}

// RetryableError marks err as retryable with the given recovery.
func RetryableError(err error, recovery Recovery) error {
	return xerrors.Retryable(err, xerrors.WithRecovery(recovery))
}
