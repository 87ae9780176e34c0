package ledger

import (
	"errors"
	"slices"

	"github.com/ledgerdb/ledger-go-sdk/internal/pool"
	"github.com/ledgerdb/ledger-go-sdk/internal/session"
	"github.com/ledgerdb/ledger-go-sdk/internal/xerrors"
	"github.com/ledgerdb/ledger-go-sdk/transport"
)

var (
	// ErrPoolClosed is returned by operations on a closed Driver.
	ErrPoolClosed = pool.ErrClosed

	// ErrPoolExhausted means that no session was released within the
	// acquire timeout.
	ErrPoolExhausted = pool.ErrExhausted

	ErrTransactionAlreadyOpen = session.ErrTransactionAlreadyOpen
	ErrTransactionClosed      = session.ErrTransactionClosed

	// ErrDigestMismatch means that the ledger executed other statements than
	// the client sent. Such transaction is never retried.
	ErrDigestMismatch = session.ErrDigestMismatch

	// ErrTransactionAborted is returned by Execute when the unit of work
	// aborted its transaction.
	ErrTransactionAborted = errors.New("transaction aborted")

	ErrStreamConsumed     = session.ErrStreamConsumed
	ErrTransactionExpired = session.ErrTransactionExpired
)

func IsPoolClosed(err error) bool {
	return xerrors.Is(err, ErrPoolClosed)
}

func IsPoolExhausted(err error) bool {
	return xerrors.Is(err, ErrPoolExhausted)
}

func IsTransactionAlreadyOpen(err error) bool {
	return xerrors.Is(err, ErrTransactionAlreadyOpen)
}

func IsTransactionClosed(err error) bool {
	return xerrors.Is(err, ErrTransactionClosed)
}

func IsDigestMismatch(err error) bool {
	return xerrors.Is(err, ErrDigestMismatch)
}

func IsTransactionAborted(err error) bool {
	return xerrors.Is(err, ErrTransactionAborted)
}

func IsStreamConsumed(err error) bool {
	return xerrors.Is(err, ErrStreamConsumed)
}

func IsTransactionExpired(err error) bool {
	return xerrors.Is(err, ErrTransactionExpired)
}

// IsServerError reports whether err is a failure reported by the ledger. With
// codes it also checks that the failure has one of them.
func IsServerError(err error, codes ...transport.Code) bool {
	var serverErr *transport.ServerError
	if !xerrors.As(err, &serverErr) {
		return false
	}
	if len(codes) == 0 {
		return true
	}

	return slices.Contains(codes, serverErr.Code)
}

// IsOccConflict reports whether err is an optimistic concurrency conflict
// which outlived all retries.
func IsOccConflict(err error) bool {
	return IsServerError(err, transport.CodeOccConflict)
}
