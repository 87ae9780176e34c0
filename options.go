package ledger

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/ledgerdb/ledger-go-sdk/credentials"
	"github.com/ledgerdb/ledger-go-sdk/internal/config"
	"github.com/ledgerdb/ledger-go-sdk/internal/xerrors"
	"github.com/ledgerdb/ledger-go-sdk/retry"
	"github.com/ledgerdb/ledger-go-sdk/trace"
	"github.com/ledgerdb/ledger-go-sdk/value"
)

// Option contains configuration values for Driver
type Option func(ctx context.Context, d *Driver) error

// WithConnectionString accepts a string like
//
//	grpc[s]://{host}:{port}/?ledger={name}[&param=value]
//
// See Open for the list of parameters.
func WithConnectionString(dsn string) Option {
	return func(ctx context.Context, d *Driver) error {
		if dsn == "" {
			return nil
		}
		opts, err := parseConnectionString(dsn)
		if err != nil {
			return xerrors.WithStackTrace(fmt.Errorf("parse connection string %q: %w", dsn, err))
		}
		for _, opt := range opts {
			if err = opt(ctx, d); err != nil {
				return xerrors.WithStackTrace(err)
			}
		}

		return nil
	}
}

// WithEndpoint defines host:port of the ledger service
func WithEndpoint(endpoint string) Option {
	return func(ctx context.Context, d *Driver) error {
		d.endpoint = endpoint

		return nil
	}
}

// WithTLSConfig enables TLS. Without it the connection is plaintext.
func WithTLSConfig(tlsConfig *tls.Config) Option {
	return func(ctx context.Context, d *Driver) error {
		d.tlsConfig = tlsConfig

		return nil
	}
}

// WithDialOptions appends grpc dial options
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(ctx context.Context, d *Driver) error {
		d.dialOptions = append(d.dialOptions, opts...)

		return nil
	}
}

func WithLedger(name string) Option {
	return func(ctx context.Context, d *Driver) error {
		d.options = append(d.options, config.WithLedger(name))

		return nil
	}
}

// WithMaxConcurrentTransactions limits the number of sessions and therefore
// the number of transactions running at once.
func WithMaxConcurrentTransactions(n int) Option {
	return func(ctx context.Context, d *Driver) error {
		d.options = append(d.options, config.WithMaxConcurrentTransactions(n))

		return nil
	}
}

// WithAcquireTimeout bounds the wait for a free session. ErrPoolExhausted is
// returned after it.
func WithAcquireTimeout(timeout time.Duration) Option {
	return func(ctx context.Context, d *Driver) error {
		d.options = append(d.options, config.WithAcquireTimeout(timeout))

		return nil
	}
}

func WithCreateSessionTimeout(timeout time.Duration) Option {
	return func(ctx context.Context, d *Driver) error {
		d.options = append(d.options, config.WithCreateSessionTimeout(timeout))

		return nil
	}
}

func WithEndSessionTimeout(timeout time.Duration) Option {
	return func(ctx context.Context, d *Driver) error {
		d.options = append(d.options, config.WithEndSessionTimeout(timeout))

		return nil
	}
}

// WithRetryPolicy sets the default policy of Execute
func WithRetryPolicy(policy retry.Policy) Option {
	return func(ctx context.Context, d *Driver) error {
		d.options = append(d.options, config.WithRetryPolicy(policy))

		return nil
	}
}

// WithRetryLimit sets the number of retries of the default policy
func WithRetryLimit(limit int) Option {
	return func(ctx context.Context, d *Driver) error {
		d.options = append(d.options, config.WithRetryLimit(limit))

		return nil
	}
}

func WithCodec(codec value.Codec) Option {
	return func(ctx context.Context, d *Driver) error {
		d.options = append(d.options, config.WithCodec(codec))

		return nil
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(ctx context.Context, d *Driver) error {
		d.options = append(d.options, config.WithClock(clock))

		return nil
	}
}

func WithCredentials(c credentials.Credentials) Option {
	return func(ctx context.Context, d *Driver) error {
		d.credentials = c

		return nil
	}
}

func WithAccessToken(token string) Option {
	return WithCredentials(credentials.NewAccessTokenCredentials(token))
}

// WithCachedCredentials takes JWT tokens from source and reuses each of them
// until half of its lifetime.
func WithCachedCredentials(source credentials.Credentials) Option {
	return func(ctx context.Context, d *Driver) error {
		d.credentials = source
		d.cacheCredentials = true

		return nil
	}
}

// WithLogger logs events of groups from details with l
func WithLogger(l *zap.Logger, details trace.Detailer) Option {
	return func(ctx context.Context, d *Driver) error {
		d.logger = l
		d.loggerDetails = details

		return nil
	}
}

func WithTracePool(t trace.Pool) Option { //nolint:gocritic
	return func(ctx context.Context, d *Driver) error {
		d.options = append(d.options, config.WithPoolTrace(&t))

		return nil
	}
}

func WithTraceRetry(t trace.Retry) Option { //nolint:gocritic
	return func(ctx context.Context, d *Driver) error {
		d.options = append(d.options, config.WithRetryTrace(&t))

		return nil
	}
}

func WithTraceSession(t trace.Session) Option { //nolint:gocritic
	return func(ctx context.Context, d *Driver) error {
		d.options = append(d.options, config.WithSessionTrace(&t))

		return nil
	}
}

// ExecuteOption tunes a single Execute call
type ExecuteOption func(o *executeOptions)

type executeOptions struct {
	policy    *retry.Policy
	retryOpts []retry.Option
}

// WithExecuteRetryPolicy overrides the policy of the driver for one call
func WithExecuteRetryPolicy(policy retry.Policy) ExecuteOption {
	return func(o *executeOptions) {
		o.policy = &policy
	}
}

// WithExecuteLabel names the call in retry events
func WithExecuteLabel(label string) ExecuteOption {
	return func(o *executeOptions) {
		o.retryOpts = append(o.retryOpts, retry.WithLabel(label))
	}
}
