package backoff

import (
	"math"
	"time"

	"github.com/ledgerdb/ledger-go-sdk/internal/xrand"
)

// Backoff is the interface that contains logic of delaying operation retry.
type Backoff interface {
	// Delay returns mapping of i to Delay.
	Delay(i int) time.Duration
}

// Default parameters used by retries of transactions.
const (
	DefaultSlotDuration = 10 * time.Millisecond
	DefaultCap          = 5 * time.Second
	DefaultJitterLimit  = 0.5
)

var Default = New(
	WithSlotDuration(DefaultSlotDuration),
	WithCap(DefaultCap),
	WithJitterLimit(DefaultJitterLimit),
)

var _ Backoff = (*expBackoff)(nil)

// expBackoff contains exponential Backoff policy.
type expBackoff struct {
	// slotDuration is a size of a single time slot used in Backoff Delay
	// calculation.
	// If slotDuration is less or equal to zero, then the DefaultSlotDuration
	// value is used.
	slotDuration time.Duration

	// capDuration is an upper bound of Backoff Delay before the jitter applies.
	// If capDuration is less or equal to zero, then the DefaultCap value is used.
	capDuration time.Duration

	// jitterLimit controls fixed and random portions of Backoff Delay.
	// Its value can be in range [0, 1].
	// If jitterLimit is non zero, then the Backoff Delay will be equal to (F + R),
	// where F is a result of multiplication of this value and calculated Delay
	// duration D; and R is a random sized part from [0,(D - F)].
	jitterLimit float64

	// generator of jitter
	r xrand.Rand
}

type option func(b *expBackoff)

func WithSlotDuration(slotDuration time.Duration) option {
	return func(b *expBackoff) {
		b.slotDuration = slotDuration
	}
}

func WithCap(capDuration time.Duration) option {
	return func(b *expBackoff) {
		b.capDuration = capDuration
	}
}

func WithJitterLimit(jitterLimit float64) option {
	return func(b *expBackoff) {
		b.jitterLimit = jitterLimit
	}
}

func WithSeed(seed int64) option {
	return func(b *expBackoff) {
		b.r = xrand.New(xrand.WithLock(), xrand.WithSeed(seed))
	}
}

func New(opts ...option) expBackoff {
	b := expBackoff{
		r: xrand.New(xrand.WithLock()),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&b)
		}
	}

	return b
}

// Delay returns mapping of i to Delay.
func (b expBackoff) Delay(i int) time.Duration {
	d := b.ceil(i)
	f := time.Duration(math.Min(1, math.Abs(b.jitterLimit)) * float64(d))
	if f == d {
		return f
	}

	return f + time.Duration(b.r.Int64(int64(d-f)+1))
}

// ceil returns min(cap, slot * 2^i) without jitter
func (b expBackoff) ceil(i int) time.Duration {
	s := b.slotDuration
	if s <= 0 {
		s = DefaultSlotDuration
	}
	c := b.capDuration
	if c <= 0 {
		c = DefaultCap
	}
	if i < 0 {
		i = 0
	}
	if i >= 62 || s > c>>uint(i) {
		return c
	}

	return s << uint(i)
}
