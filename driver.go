package ledger

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/ledgerdb/ledger-go-sdk/credentials"
	"github.com/ledgerdb/ledger-go-sdk/internal/config"
	"github.com/ledgerdb/ledger-go-sdk/internal/session"
	"github.com/ledgerdb/ledger-go-sdk/internal/xerrors"
	"github.com/ledgerdb/ledger-go-sdk/log"
	"github.com/ledgerdb/ledger-go-sdk/trace"
	"github.com/ledgerdb/ledger-go-sdk/transport"
	"github.com/ledgerdb/ledger-go-sdk/transport/rpc"
	"github.com/ledgerdb/ledger-go-sdk/txn"
	"github.com/ledgerdb/ledger-go-sdk/value"
)

const listTablesStatement = "SELECT name FROM information_schema.user_tables WHERE status = 'ACTIVE'"

// Driver runs transactions on a ledger
type Driver struct {
	config  *config.Config
	options []config.Option

	logger        *zap.Logger
	loggerDetails trace.Detailer

	endpoint         string
	tlsConfig        *tls.Config
	dialOptions      []grpc.DialOption
	credentials      credentials.Credentials
	cacheCredentials bool

	client *session.Client
}

// Stats is a snapshot of the session pool
type Stats struct {
	Limit int
	Idle  int
	InUse int
}

// Open connects to a ledger by connection string
//
//	grpc[s]://{host}:{port}/?ledger={name}[&param=value]
//
// Supported params: ledger, token, max_concurrent_transactions, retry_limit,
// acquire_timeout. The ledger name may also be given as the path.
func Open(ctx context.Context, dsn string, opts ...Option) (_ *Driver, err error) {
	d, err := newDriverFromOptions(ctx, append([]Option{WithConnectionString(dsn)}, opts...)...)
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}

	if d.endpoint == "" {
		return nil, xerrors.WithStackTrace(xerrors.New("configuration: empty endpoint"))
	}

	creds := d.credentials
	if creds != nil && d.cacheCredentials {
		creds = credentials.NewCachedCredentials(creds, credentials.WithClock(d.config.Clock()))
	}

	var rpcOpts []rpc.Option
	if creds != nil {
		rpcOpts = append(rpcOpts, rpc.WithCredentials(creds))
	}

	c, err := rpc.Dial(d.endpoint, d.tlsConfig, rpcOpts, d.dialOptions...)
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}

	return d.start(c), nil
}

// New makes a driver over an existing transport client. The client is closed
// by Driver.Close.
func New(ctx context.Context, client transport.Client, opts ...Option) (_ *Driver, err error) {
	d, err := newDriverFromOptions(ctx, opts...)
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}

	return d.start(client), nil
}

func newDriverFromOptions(ctx context.Context, opts ...Option) (_ *Driver, err error) {
	d := &Driver{}

	if level, has := os.LookupEnv("LEDGER_LOG_SEVERITY_LEVEL"); has {
		opts = append([]Option{withLoggerFromLevel(level)}, opts...)
	}

	for _, opt := range opts {
		if opt != nil {
			if err = opt(ctx, d); err != nil {
				return nil, xerrors.WithStackTrace(err)
			}
		}
	}

	if d.logger != nil {
		d.options = append(d.options,
			config.WithPoolTrace(log.Pool(d.logger, d.loggerDetails)),
			config.WithRetryTrace(log.Retry(d.logger, d.loggerDetails)),
			config.WithSessionTrace(log.Session(d.logger, d.loggerDetails)),
		)
	}

	d.config = config.New(d.options...)

	if d.config.Ledger() == "" {
		return nil, xerrors.WithStackTrace(xerrors.New("configuration: empty ledger name"))
	}

	return d, nil
}

func withLoggerFromLevel(level string) Option {
	return func(ctx context.Context, d *Driver) error {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return xerrors.WithStackTrace(fmt.Errorf("LEDGER_LOG_SEVERITY_LEVEL: %w", err))
		}
		cfg := zap.NewProductionConfig()
		cfg.Level = lvl
		l, err := cfg.Build()
		if err != nil {
			return xerrors.WithStackTrace(err)
		}
		d.logger = l
		d.loggerDetails = trace.DetailsAll

		return nil
	}
}

func (d *Driver) start(client transport.Client) *Driver {
	d.client = session.NewClient(client, d.config)

	return d
}

// Name returns the ledger name
func (d *Driver) Name() string {
	return d.config.Ledger()
}

// Execute runs fn in a transaction and commits it when fn succeeds. The
// whole transaction is retried on conflicts and transient failures, so fn
// must not have side effects outside of tx.
//
// A txn.Result returned by fn is read to the end before commit and comes
// back as txn.BufferedResult. When fn aborts tx, Execute returns
// ErrTransactionAborted.
func (d *Driver) Execute(ctx context.Context, fn txn.Func, opts ...ExecuteOption) (any, error) {
	var o executeOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	policy := d.config.RetryPolicy()
	if o.policy != nil {
		policy = *o.policy
	}

	outcome, err := d.client.Do(ctx, fn, policy, o.retryOpts...)
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}
	if outcome.Aborted {
		return nil, xerrors.WithStackTrace(ErrTransactionAborted)
	}

	return outcome.Value, nil
}

// ExecuteT is a typed Execute
func ExecuteT[T any](ctx context.Context, d *Driver, fn func(ctx context.Context, tx txn.Executor) (T, error),
	opts ...ExecuteOption,
) (zero T, _ error) {
	v, err := d.Execute(ctx, func(ctx context.Context, tx txn.Executor) (any, error) {
		return fn(ctx, tx)
	}, opts...)
	if err != nil {
		return zero, xerrors.WithStackTrace(err)
	}
	if v == nil {
		return zero, nil
	}

	t, ok := v.(T)
	if !ok {
		return zero, xerrors.WithStackTrace(fmt.Errorf("unexpected result type %T, want %T", v, zero))
	}

	return t, nil
}

// ListTableNames returns names of active tables of the ledger
func (d *Driver) ListTableNames(ctx context.Context) ([]string, error) {
	names, err := ExecuteT(ctx, d, func(ctx context.Context, tx txn.Executor) ([]string, error) {
		res, err := tx.Execute(ctx, listTablesStatement)
		if err != nil {
			return nil, xerrors.WithStackTrace(err)
		}

		names := make([]string, 0)
		for doc, err := range res.Documents(ctx) {
			if err != nil {
				return nil, xerrors.WithStackTrace(err)
			}
			fields, err := value.DecodeStruct(d.config.Codec(), doc)
			if err != nil {
				return nil, xerrors.WithStackTrace(err)
			}
			if name, ok := fields["name"].(string); ok {
				names = append(names, name)
			}
		}

		return names, nil
	}, WithExecuteLabel("ledger.ListTableNames"))
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}

	return names, nil
}

// StartTransaction begins a transaction controlled by the caller. It holds a
// session until Commit or Abort. It is not retried.
func (d *Driver) StartTransaction(ctx context.Context) (txn.Transaction, error) {
	tx, err := d.client.Begin(ctx)
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}

	return tx, nil
}

func (d *Driver) Stats() Stats {
	s := d.client.Stats()

	return Stats{
		Limit: s.Limit,
		Idle:  s.Idle,
		InUse: s.InUse,
	}
}

// Close ends idle sessions and closes the transport. Sessions in use are
// ended when released.
func (d *Driver) Close(ctx context.Context) error {
	return xerrors.WithStackTrace(d.client.Close(ctx))
}
