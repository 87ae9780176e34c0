package retry

import (
	"time"

	"github.com/ledgerdb/ledger-go-sdk/internal/backoff"
)

// DefaultMaxRetries is the number of retries after the first attempt.
const DefaultMaxRetries = 4

// Backoff maps the number of the upcoming retry (starting from 1) and the
// failure which caused it to the delay before the retry.
type Backoff interface {
	Delay(attempt int, lastErr error) time.Duration
}

// BackoffFunc is an adapter to use ordinary functions as Backoff.
type BackoffFunc func(attempt int, lastErr error) time.Duration

func (f BackoffFunc) Delay(attempt int, lastErr error) time.Duration {
	return f(attempt, lastErr)
}

type exponential struct {
	b backoff.Backoff
}

func (e exponential) Delay(attempt int, _ error) time.Duration {
	return e.b.Delay(attempt)
}

// Exponential returns a Backoff with delay min(cap, slot*2^attempt) scaled by a
// random factor from [jitterLimit, 1].
func Exponential(slot, capDuration time.Duration, jitterLimit float64) Backoff {
	return exponential{
		b: backoff.New(
			backoff.WithSlotDuration(slot),
			backoff.WithCap(capDuration),
			backoff.WithJitterLimit(jitterLimit),
		),
	}
}

// DefaultBackoff uses 10ms slots, a 5s cap and a jitter factor from [0.5, 1].
var DefaultBackoff Backoff = exponential{b: backoff.Default}

// Policy is an immutable retry policy.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	// Negative values are treated as zero.
	MaxRetries int
	// Backoff computes delays between attempts. Nil means DefaultBackoff.
	Backoff Backoff
}

func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		Backoff:    DefaultBackoff,
	}
}

func (p Policy) maxRetries() int {
	if p.MaxRetries < 0 {
		return 0
	}

	return p.MaxRetries
}

func (p Policy) delay(attempt int, lastErr error) time.Duration {
	if p.Backoff == nil {
		return DefaultBackoff.Delay(attempt, lastErr)
	}

	return p.Backoff.Delay(attempt, lastErr)
}
