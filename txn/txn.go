// Package txn describes the unit of work executed by the driver and the
// handles it works with.
package txn

import (
	"context"
	"iter"
)

type (
	// Func is a unit of work. It may be called several times when a retriable
	// failure happens, so it must not have side effects outside of tx.
	//
	// Returned value becomes the result of Execute. If the value is a Result,
	// it is read into memory before commit and returned as BufferedResult.
	Func func(ctx context.Context, tx Executor) (any, error)

	Executor interface {
		// ID returns the identifier assigned to the transaction by the ledger.
		ID() string

		// Execute runs statement with parameters and returns a lazy stream
		// over its documents. Parameters are encoded with the configured
		// codec, value.Raw parameters are sent as is.
		Execute(ctx context.Context, statement string, parameters ...any) (Result, error)

		// BufferedExecute is Execute which reads the whole result into memory.
		BufferedExecute(ctx context.Context, statement string, parameters ...any) (BufferedResult, error)

		// Abort ends the transaction without commit. A unit of work which
		// aborted its transaction is not retried.
		Abort(ctx context.Context) error
	}

	// Transaction is a manually controlled transaction. Exactly one of
	// Commit or Abort must be called.
	Transaction interface {
		Executor

		// Commit verifies the commit digest with the ledger and commits.
		Commit(ctx context.Context) error
	}

	// Result is a forward-only stream of encoded documents. Pages are fetched
	// on demand and only while the transaction is open.
	Result interface {
		Next(ctx context.Context) bool
		Value() []byte
		Err() error

		// Documents returns the rest of the stream as an iterator.
		// The stream can be iterated only once.
		Documents(ctx context.Context) iter.Seq2[[]byte, error]

		// IOUsage and TimingInformation are cumulative over the pages read
		// so far, nil when the ledger did not report them.
		IOUsage() *IOUsage
		TimingInformation() *TimingInformation
	}

	BufferedResult interface {
		Next() bool
		Value() []byte
		Len() int
		Documents() iter.Seq[[]byte]

		IOUsage() *IOUsage
		TimingInformation() *TimingInformation
	}

	IOUsage struct {
		ReadIOs  int64
		WriteIOs int64
	}

	TimingInformation struct {
		ProcessingTimeMilliseconds int64
	}
)
