package session

import (
	"context"
	"iter"
	"sync/atomic"

	"github.com/ledgerdb/ledger-go-sdk/internal/xerrors"
	"github.com/ledgerdb/ledger-go-sdk/transport"
	"github.com/ledgerdb/ledger-go-sdk/txn"
)

var _ txn.Result = (*Stream)(nil)

// Stream is a single-pass cursor over the documents of one statement.
// The first page comes with the statement response, next pages are fetched
// with the page token while the transaction is open.
type Stream struct {
	tx *Transaction

	page    *transport.Page
	index   int
	current []byte
	err     error

	stats

	owner atomic.Uint32
}

// owner of the single pass over a stream
const (
	ownerNone = uint32(iota)
	ownerCursor
	ownerIterator
)

type stats struct {
	ioUsage *txn.IOUsage
	timing  *txn.TimingInformation
}

func (s *stats) add(page *transport.Page) {
	if io := page.ConsumedIOs; io != nil {
		if s.ioUsage == nil {
			s.ioUsage = &txn.IOUsage{}
		}
		s.ioUsage.ReadIOs += io.ReadIOs
		s.ioUsage.WriteIOs += io.WriteIOs
	}
	if t := page.TimingInformation; t != nil {
		if s.timing == nil {
			s.timing = &txn.TimingInformation{}
		}
		s.timing.ProcessingTimeMilliseconds += t.ProcessingTimeMilliseconds
	}
}

// IOUsage returns a copy of the I/O consumed by the pages read so far.
func (s *stats) IOUsage() *txn.IOUsage {
	if s.ioUsage == nil {
		return nil
	}
	io := *s.ioUsage

	return &io
}

// TimingInformation returns a copy of the processing time of the pages read
// so far.
func (s *stats) TimingInformation() *txn.TimingInformation {
	if s.timing == nil {
		return nil
	}
	t := *s.timing

	return &t
}

func newStream(tx *Transaction, first *transport.Page) *Stream {
	if first == nil {
		first = &transport.Page{}
	}
	r := &Stream{
		tx:   tx,
		page: first,
	}
	r.add(first)

	return r
}

// claim makes the caller the only reader of the stream. The cursor API may
// claim it many times.
func (r *Stream) claim(owner uint32) bool {
	if r.owner.CompareAndSwap(ownerNone, owner) {
		return true
	}

	return owner == ownerCursor && r.owner.Load() == ownerCursor
}

// Next moves the cursor to the next document. It returns false when the
// stream is exhausted or failed, see Err. A stream read by Documents or
// Buffer fails with ErrStreamConsumed.
func (r *Stream) Next(ctx context.Context) bool {
	if r.err != nil {
		return false
	}
	if !r.claim(ownerCursor) {
		r.err = xerrors.WithStackTrace(ErrStreamConsumed)
		r.current = nil

		return false
	}

	return r.next(ctx)
}

func (r *Stream) next(ctx context.Context) bool {
	if r.err != nil {
		return false
	}
	if r.tx.IsClosed() {
		r.err = xerrors.WithStackTrace(ErrTransactionClosed)
		r.current = nil

		return false
	}
	for r.index >= len(r.page.Values) {
		if r.page.NextPageToken == "" {
			r.current = nil

			return false
		}
		if err := r.fetch(ctx); err != nil {
			r.err = err
			r.current = nil

			return false
		}
	}
	r.current = r.page.Values[r.index]
	r.index++

	return true
}

func (r *Stream) fetch(ctx context.Context) error {
	page, err := r.tx.s.core.FetchPage(ctx, r.tx.id, r.page.NextPageToken)
	if err != nil {
		return xerrors.WithStackTrace(err)
	}
	if page == nil {
		page = &transport.Page{}
	}
	r.page, r.index = page, 0
	r.add(page)

	return nil
}

// Value returns the current encoded document.
func (r *Stream) Value() []byte {
	return r.current
}

func (r *Stream) Err() error {
	return r.err
}

// Documents returns the stream as an iterator. A failure is yielded as the
// last pair. A stream which was already read, by Documents or by Next, yields
// ErrStreamConsumed.
func (r *Stream) Documents(ctx context.Context) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		if !r.claim(ownerIterator) {
			yield(nil, xerrors.WithStackTrace(ErrStreamConsumed))

			return
		}
		for r.next(ctx) {
			if !yield(r.Value(), nil) {
				return
			}
		}
		if r.err != nil {
			yield(nil, r.err)
		}
	}
}

// Buffer reads the whole stream into memory. It fails with ErrStreamConsumed
// when the stream was already read.
func (r *Stream) Buffer(ctx context.Context) (*Buffered, error) {
	if !r.claim(ownerIterator) {
		return nil, xerrors.WithStackTrace(ErrStreamConsumed)
	}
	var values [][]byte
	for r.next(ctx) {
		values = append(values, r.Value())
	}
	if r.err != nil {
		return nil, xerrors.WithStackTrace(r.err)
	}

	return &Buffered{
		values: values,
		stats:  r.stats,
	}, nil
}
