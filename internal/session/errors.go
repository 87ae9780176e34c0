package session

import (
	"context"
	"errors"

	"github.com/ledgerdb/ledger-go-sdk/internal/xerrors"
	"github.com/ledgerdb/ledger-go-sdk/transport"
)

var (
	ErrTransactionAlreadyOpen = errors.New("transaction already open")
	ErrTransactionClosed      = errors.New("transaction closed")
	ErrDigestMismatch         = errors.New("commit digest mismatch")
	ErrTransactionExpired     = errors.New("transaction expired")
	ErrStreamConsumed         = errors.New("result stream already consumed")
	ErrSessionClosed          = errors.New("session closed")
)

// classify turns a failure of a unit of work into the error which drives the
// retry loop and updates liveness of the session. It also aborts the open
// transaction when the failure leaves it open on the ledger.
func (s *Session) classify(ctx context.Context, tx *Transaction, err error) error {
	if xerrors.IsContextError(err) {
		// an interrupted command leaves the channel in unknown state
		s.setStatus(statusDead)
		tx.markClosed()

		return xerrors.WithStackTrace(err)
	}

	var serverErr *transport.ServerError
	if !xerrors.As(err, &serverErr) {
		if tx != nil {
			s.abortOnCleanup(ctx, tx)
		}

		return xerrors.WithStackTrace(err)
	}

	switch serverErr.Code {
	case transport.CodeInvalidSession, transport.CodeTransactionExpired:
		s.setStatus(statusDead)
		tx.markClosed()
		if serverErr.IsTransactionExpired() {
			return xerrors.WithStackTrace(xerrors.Join(ErrTransactionExpired, err))
		}

		return xerrors.WithStackTrace(xerrors.Retryable(err,
			xerrors.WithName("INVALID_SESSION"),
			xerrors.WithRecovery(xerrors.RecoveryNewSession),
		))
	case transport.CodeOccConflict:
		// the ledger has already discarded the transaction
		tx.markClosed()

		return xerrors.WithStackTrace(xerrors.Retryable(err,
			xerrors.WithName("OCC_CONFLICT"),
			xerrors.WithRecovery(xerrors.RecoveryNextSession),
		))
	case transport.CodeInternal, transport.CodeUnavailable,
		transport.CodeCapacityExceeded, transport.CodeRateExceeded:
		if s.abortOnCleanup(ctx, tx) {
			return xerrors.WithStackTrace(xerrors.Retryable(err,
				xerrors.WithName(serverErr.Code.String()),
				xerrors.WithRecovery(xerrors.RecoverySameSession),
			))
		}
		s.setStatus(statusDead)

		return xerrors.WithStackTrace(xerrors.Retryable(err,
			xerrors.WithName(serverErr.Code.String()),
			xerrors.WithRecovery(xerrors.RecoveryNewSession),
		))
	default:
		s.abortOnCleanup(ctx, tx)

		return xerrors.WithStackTrace(err)
	}
}

// invalidatesSession reports whether the session cannot serve commands after
// err.
func invalidatesSession(err error) bool {
	if xerrors.IsContextError(err) {
		return true
	}

	var serverErr *transport.ServerError
	if !xerrors.As(err, &serverErr) {
		return false
	}

	return serverErr.Code == transport.CodeInvalidSession || serverErr.Code == transport.CodeTransactionExpired
}

// abortOnCleanup aborts whatever transaction is open on the session. Its
// failure is only traced and never replaces the original failure.
func (s *Session) abortOnCleanup(ctx context.Context, tx *Transaction) bool {
	var txID string
	if tx != nil {
		txID = tx.id
	}
	defer tx.markClosed()

	return s.abort(ctx, txID) == nil
}
