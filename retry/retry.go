package retry

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ledgerdb/ledger-go-sdk/internal/xerrors"
	"github.com/ledgerdb/ledger-go-sdk/trace"
)

// RecoverFunc prepares the next attempt after a failure.
type RecoverFunc func(ctx context.Context, cause error) error

type options struct {
	label       string
	trace       *trace.Retry
	clock       clockwork.Clock
	classifier  func(err error) Mode
	newSession  RecoverFunc
	nextSession RecoverFunc
	beforeRetry func(ctx context.Context, attempt int, cause error)
}

type Option func(o *options)

// WithLabel applies label for identification call Execute in trace.Retry
func WithLabel(label string) Option {
	return func(o *options) {
		o.label = label
	}
}

// WithTrace returns trace option
func WithTrace(t *trace.Retry) Option {
	return func(o *options) {
		o.trace = o.trace.Compose(t)
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithClassifier replaces Check as the failure classifier
func WithClassifier(classifier func(err error) Mode) Option {
	return func(o *options) {
		o.classifier = classifier
	}
}

// WithNewSession sets the recovery used when the failure killed the session
func WithNewSession(f RecoverFunc) Option {
	return func(o *options) {
		o.newSession = f
	}
}

// WithNextSession sets the recovery used when only the transaction is unusable
func WithNextSession(f RecoverFunc) Option {
	return func(o *options) {
		o.nextSession = f
	}
}

// WithBeforeRetry sets a hook which is called with the number of the upcoming
// retry before the backoff delay
func WithBeforeRetry(f func(ctx context.Context, attempt int, cause error)) Option {
	return func(o *options) {
		o.beforeRetry = f
	}
}

// Execute provide the best effort fo retrying op.
//
// Execute runs op until one of the following conditions is met:
//
// - op returned nil as error
//
// - op returned a failure which the classifier does not consider retryable
//
// - policy.MaxRetries retries were made
//
// - context was canceled or deadlined
//
// When retries are exhausted the last failure of op is returned without the
// retry bookkeeping.
func Execute[T any](
	ctx context.Context,
	op func(ctx context.Context) (T, error),
	policy Policy,
	opts ...Option,
) (_ T, finalErr error) {
	o := options{
		clock:      clockwork.NewRealClock(),
		classifier: Check,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	var (
		zero     T
		attempts int
		onDone   = trace.RetryOnRetry(o.trace, &ctx, o.label)
	)
	defer func() {
		onDone(attempts, finalErr)
	}()

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, xerrors.WithStackTrace(err)
		}

		attempts++
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}

		m := o.classifier(err)
		if !m.MustRetry() {
			return zero, xerrors.WithStackTrace(err)
		}
		if attempt >= policy.maxRetries() {
			return zero, xerrors.Unretryable(err)
		}

		if recoverErr := recoverBeforeRetry(ctx, &o, m.Recovery(), err); recoverErr != nil {
			return zero, xerrors.WithStackTrace(recoverErr)
		}

		if o.beforeRetry != nil {
			o.beforeRetry(ctx, attempt+1, err)
		}

		delay := policy.delay(attempt+1, xerrors.Unretryable(err))
		trace.RetryOnAttemptFailed(o.trace, trace.RetryAttemptInfo{
			Label:    o.label,
			Attempt:  attempt + 1,
			Error:    err,
			Recovery: m.Recovery().String(),
			Delay:    delay,
		})

		if err := wait(ctx, o.clock, delay); err != nil {
			return zero, xerrors.WithStackTrace(err)
		}
	}
}

func recoverBeforeRetry(ctx context.Context, o *options, r Recovery, cause error) error {
	var f RecoverFunc
	switch r {
	case RecoveryNewSession:
		f = o.newSession
	case RecoveryNextSession:
		f = o.nextSession
	}
	if f == nil {
		return nil
	}
	if err := f(ctx, cause); err != nil {
		return xerrors.WithStackTrace(xerrors.Unretryable(err))
	}

	return nil
}

func wait(ctx context.Context, clock clockwork.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := clock.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.Chan():
		return nil
	}
}
