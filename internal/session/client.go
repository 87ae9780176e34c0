package session

import (
	"context"
	"sync"

	"github.com/ledgerdb/ledger-go-sdk/internal/config"
	"github.com/ledgerdb/ledger-go-sdk/internal/pool"
	"github.com/ledgerdb/ledger-go-sdk/internal/xerrors"
	"github.com/ledgerdb/ledger-go-sdk/retry"
	"github.com/ledgerdb/ledger-go-sdk/transport"
	"github.com/ledgerdb/ledger-go-sdk/txn"
)

//go:generate mockgen -destination transport_mock_test.go -package session -write_package_comment=false github.com/ledgerdb/ledger-go-sdk/transport Client,Session

// Client runs units of work on pooled sessions with retries.
type Client struct {
	cfg    *config.Config
	client transport.Client
	pool   *pool.Pool[*Session, Session]
}

func NewClient(client transport.Client, cfg *config.Config) *Client {
	return &Client{
		cfg:    cfg,
		client: client,
		pool: pool.New[*Session, Session](
			pool.WithLimit[*Session, Session](cfg.MaxConcurrentTransactions()),
			pool.WithAcquireTimeout[*Session, Session](cfg.AcquireTimeout()),
			pool.WithCreateItemTimeout[*Session, Session](cfg.CreateSessionTimeout()),
			pool.WithCloseItemTimeout[*Session, Session](cfg.EndSessionTimeout()),
			pool.WithClock[*Session, Session](cfg.Clock()),
			pool.WithTrace[*Session, Session](cfg.PoolTrace()),
			pool.WithCreateFunc(func(ctx context.Context) (*Session, error) {
				return Create(ctx, client, cfg)
			}),
		),
	}
}

// Do runs fn in a transaction on a pooled session. Retriable failures repeat
// the whole transaction according to policy.
func (c *Client) Do(ctx context.Context, fn txn.Func, policy retry.Policy, opts ...retry.Option) (
	_ Outcome, finalErr error,
) {
	s, err := c.pool.Get(ctx)
	if err != nil {
		return Outcome{}, xerrors.WithStackTrace(err)
	}
	defer func() {
		if s != nil {
			_ = c.pool.Put(ctx, s)
		}
	}()

	op := func(ctx context.Context) (Outcome, error) {
		return s.Execute(ctx, func(ctx context.Context, tx *Transaction) (any, error) {
			return fn(ctx, tx)
		})
	}

	outcome, err := retry.Execute(ctx, op, policy, append([]retry.Option{
		retry.WithLabel("ledger.Execute"),
		retry.WithClock(c.cfg.Clock()),
		retry.WithTrace(c.cfg.RetryTrace()),
		retry.WithNewSession(func(ctx context.Context, _ error) error {
			next, err := c.pool.Replace(ctx, s)
			if err != nil {
				s = nil

				return xerrors.WithStackTrace(err)
			}
			s = next

			return nil
		}),
		retry.WithNextSession(func(ctx context.Context, _ error) error {
			_ = c.pool.Put(ctx, s)
			s = nil

			next, err := c.pool.Get(ctx)
			if err != nil {
				return xerrors.WithStackTrace(err)
			}
			s = next

			return nil
		}),
	}, opts...)...)
	if err != nil {
		return Outcome{}, xerrors.WithStackTrace(err)
	}

	return outcome, nil
}

// Begin starts a manually controlled transaction. Its session returns to the
// pool after Commit or Abort.
func (c *Client) Begin(ctx context.Context) (_ txn.Transaction, finalErr error) {
	s, err := c.pool.Get(ctx)
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}

	tx, err := s.Begin(ctx)
	if err != nil {
		err = s.classify(ctx, nil, err)
		_ = c.pool.Put(ctx, s)

		return nil, xerrors.WithStackTrace(xerrors.Unretryable(err))
	}

	return &managedTransaction{
		Transaction: tx,
		release: func(ctx context.Context) {
			_ = c.pool.Put(ctx, s)
		},
	}, nil
}

func (c *Client) Stats() pool.Stats {
	return c.pool.Stats()
}

// Close ends idle sessions and the transport. Sessions in use are ended when
// they are released.
func (c *Client) Close(ctx context.Context) error {
	return xerrors.WithStackTrace(xerrors.Join(
		c.pool.Close(ctx),
		c.client.Close(ctx),
	))
}

type managedTransaction struct {
	*Transaction

	releaseOnce sync.Once
	release     func(ctx context.Context)
}

func (tx *managedTransaction) done(ctx context.Context) {
	tx.releaseOnce.Do(func() {
		tx.release(ctx)
	})
}

func (tx *managedTransaction) fail(ctx context.Context, err error) error {
	if xerrors.Is(err, ErrTransactionClosed) {
		return xerrors.WithStackTrace(err)
	}

	return xerrors.WithStackTrace(xerrors.Unretryable(tx.s.classify(ctx, tx.Transaction, err)))
}

func (tx *managedTransaction) Execute(ctx context.Context, statement string, parameters ...any) (txn.Result, error) {
	r, err := tx.Transaction.Execute(ctx, statement, parameters...)
	if err != nil {
		return nil, tx.fail(ctx, err)
	}

	return r, nil
}

func (tx *managedTransaction) BufferedExecute(ctx context.Context, statement string, parameters ...any) (
	txn.BufferedResult, error,
) {
	r, err := tx.Transaction.BufferedExecute(ctx, statement, parameters...)
	if err != nil {
		return nil, tx.fail(ctx, err)
	}

	return r, nil
}

func (tx *managedTransaction) Commit(ctx context.Context) error {
	defer tx.done(ctx)

	if err := tx.Transaction.Commit(ctx); err != nil {
		return tx.fail(ctx, err)
	}

	return nil
}

func (tx *managedTransaction) Abort(ctx context.Context) error {
	defer tx.done(ctx)

	return tx.Transaction.Abort(ctx)
}
