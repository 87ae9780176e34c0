package config

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ledgerdb/ledger-go-sdk/internal/digest"
	"github.com/ledgerdb/ledger-go-sdk/retry"
	"github.com/ledgerdb/ledger-go-sdk/trace"
	"github.com/ledgerdb/ledger-go-sdk/value"
)

type Option func(*Config)

func WithLedger(name string) Option {
	return func(c *Config) {
		c.ledger = name
	}
}

// WithMaxConcurrentTransactions defines the capacity of the session pool.
// If n is less than or equal to zero then DefaultMaxConcurrentTransactions is used.
func WithMaxConcurrentTransactions(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.maxConcurrentTransactions = n
		}
	}
}

// WithAcquireTimeout limits the wait for a pooled session.
// If timeout is less than or equal to zero then DefaultAcquireTimeout is used.
func WithAcquireTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.acquireTimeout = timeout
		}
	}
}

// WithCreateSessionTimeout limits the start session request.
// Non-positive timeout disables the limit.
func WithCreateSessionTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.createSessionTimeout = timeout
		} else {
			c.createSessionTimeout = 0
		}
	}
}

func WithEndSessionTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.endSessionTimeout = timeout
		}
	}
}

func WithRetryPolicy(policy retry.Policy) Option {
	return func(c *Config) {
		c.retryPolicy = policy
	}
}

// WithRetryLimit overrides only the retry limit of the current policy
func WithRetryLimit(limit int) Option {
	return func(c *Config) {
		c.retryPolicy.MaxRetries = limit
	}
}

func WithCodec(codec value.Codec) Option {
	return func(c *Config) {
		if codec != nil {
			c.codec = codec
		}
	}
}

func WithHasher(h digest.Hasher) Option {
	return func(c *Config) {
		if h != nil {
			c.hasher = h
		}
	}
}

// WithPoolTrace appends pool trace to early defined traces
func WithPoolTrace(t *trace.Pool) Option {
	return func(c *Config) {
		c.poolTrace = c.poolTrace.Compose(t)
	}
}

// WithRetryTrace appends retry trace to early defined traces
func WithRetryTrace(t *trace.Retry) Option {
	return func(c *Config) {
		c.retryTrace = c.retryTrace.Compose(t)
	}
}

// WithSessionTrace appends session trace to early defined traces
func WithSessionTrace(t *trace.Session) Option {
	return func(c *Config) {
		c.sessionTrace = c.sessionTrace.Compose(t)
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(c *Config) {
		if clock != nil {
			c.clock = clock
		}
	}
}
