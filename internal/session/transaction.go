package session

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ledgerdb/ledger-go-sdk/internal/digest"
	"github.com/ledgerdb/ledger-go-sdk/internal/xerrors"
	"github.com/ledgerdb/ledger-go-sdk/trace"
	"github.com/ledgerdb/ledger-go-sdk/txn"
	"github.com/ledgerdb/ledger-go-sdk/value"
)

var _ txn.Transaction = (*Transaction)(nil)

// Transaction accumulates the commit digest of every executed statement and
// verifies it with the ledger on commit.
type Transaction struct {
	id string
	s  *Session

	// owned by the single caller of the session
	digest digest.Accumulator

	closed          atomic.Bool
	abortedByCaller atomic.Bool
}

func newTransaction(id string, s *Session) (*Transaction, error) {
	seed, err := s.cfg.Codec().Encode(id)
	if err != nil {
		return nil, xerrors.WithStackTrace(fmt.Errorf("encode transaction id: %w", err))
	}

	return &Transaction{
		id:     id,
		s:      s,
		digest: digest.NewAccumulator(s.cfg.Hasher(), seed),
	}, nil
}

func (tx *Transaction) ID() string {
	return tx.id
}

// Digest returns the commit digest of the statements executed so far.
func (tx *Transaction) Digest() digest.Digest {
	return tx.digest.Digest()
}

func (tx *Transaction) IsClosed() bool {
	return tx.closed.Load()
}

// markClosed closes the transaction locally and frees the session for the
// next one.
func (tx *Transaction) markClosed() bool {
	if tx == nil || !tx.closed.CompareAndSwap(false, true) {
		return false
	}
	tx.s.txOpen.Store(false)

	return true
}

func (tx *Transaction) Execute(ctx context.Context, statement string, parameters ...any) (txn.Result, error) {
	r, err := tx.execute(ctx, statement, parameters...)
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}

	return r, nil
}

func (tx *Transaction) BufferedExecute(ctx context.Context, statement string, parameters ...any) (
	txn.BufferedResult, error,
) {
	r, err := tx.execute(ctx, statement, parameters...)
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}

	b, err := r.Buffer(ctx)
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}

	return b, nil
}

func (tx *Transaction) execute(ctx context.Context, statement string, parameters ...any) (
	_ *Stream, finalErr error,
) {
	onDone := trace.SessionOnExecute(tx.s.cfg.SessionTrace(), &ctx, tx.s.id, tx.id, statement)
	defer func() {
		onDone(finalErr)
	}()

	if tx.closed.Load() {
		return nil, xerrors.WithStackTrace(ErrTransactionClosed)
	}

	codec := tx.s.cfg.Codec()
	encodedStatement, err := codec.Encode(statement)
	if err != nil {
		return nil, xerrors.WithStackTrace(fmt.Errorf("encode statement: %w", err))
	}
	encodedParameters, err := value.EncodeAll(codec, parameters...)
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}

	tx.digest = tx.digest.Add(encodedStatement, encodedParameters...)

	page, err := tx.s.core.ExecuteStatement(ctx, tx.id, statement, encodedParameters)
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}

	return newStream(tx, page), nil
}

// Commit sends the commit digest and compares it with the digest computed by
// the ledger. The transaction is closed afterwards whatever the outcome.
func (tx *Transaction) Commit(ctx context.Context) (finalErr error) {
	onDone := trace.SessionOnCommit(tx.s.cfg.SessionTrace(), &ctx, tx.s.id, tx.id)
	defer func() {
		onDone(finalErr)
	}()

	if !tx.markClosed() {
		return xerrors.WithStackTrace(ErrTransactionClosed)
	}

	local := tx.digest.Digest()
	remote, err := tx.s.core.CommitTransaction(ctx, tx.id, local.Bytes())
	if err != nil {
		return xerrors.WithStackTrace(err)
	}

	if !tx.digest.Matches(remote) {
		return xerrors.WithStackTrace(fmt.Errorf("%w: transaction %s: local %s, ledger %s",
			ErrDigestMismatch, tx.id, local, digest.FromBytes(remote),
		))
	}

	return nil
}

// Abort ends the transaction without commit. Abort of a closed transaction
// does nothing.
func (tx *Transaction) Abort(ctx context.Context) error {
	if !tx.markClosed() {
		return nil
	}
	tx.abortedByCaller.Store(true)

	if err := tx.s.abort(ctx, tx.id); err != nil {
		return xerrors.WithStackTrace(err)
	}

	return nil
}
