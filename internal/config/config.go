package config

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ledgerdb/ledger-go-sdk/internal/digest"
	"github.com/ledgerdb/ledger-go-sdk/retry"
	"github.com/ledgerdb/ledger-go-sdk/trace"
	"github.com/ledgerdb/ledger-go-sdk/value"
)

const (
	DefaultMaxConcurrentTransactions = 50
	DefaultAcquireTimeout            = time.Second
	DefaultCreateSessionTimeout      = 5 * time.Second
	DefaultEndSessionTimeout         = 500 * time.Millisecond
)

type Config struct {
	ledger string

	maxConcurrentTransactions int
	acquireTimeout            time.Duration
	createSessionTimeout      time.Duration
	endSessionTimeout         time.Duration

	retryPolicy retry.Policy

	codec  value.Codec
	hasher digest.Hasher

	poolTrace    *trace.Pool
	retryTrace   *trace.Retry
	sessionTrace *trace.Session

	clock clockwork.Clock
}

func New(opts ...Option) *Config {
	c := defaults()
	for _, o := range opts {
		if o != nil {
			o(c)
		}
	}

	return c
}

func defaults() *Config {
	return &Config{
		maxConcurrentTransactions: DefaultMaxConcurrentTransactions,
		acquireTimeout:            DefaultAcquireTimeout,
		createSessionTimeout:      DefaultCreateSessionTimeout,
		endSessionTimeout:         DefaultEndSessionTimeout,
		retryPolicy:               retry.DefaultPolicy(),
		codec:                     value.Proto,
		hasher:                    digest.SHA256,
		poolTrace:                 &trace.Pool{},
		retryTrace:                &trace.Retry{},
		sessionTrace:              &trace.Session{},
		clock:                     clockwork.NewRealClock(),
	}
}

// Ledger is the name of the ledger which sessions are bound to
func (c *Config) Ledger() string {
	return c.ledger
}

// MaxConcurrentTransactions is the capacity of the session pool
func (c *Config) MaxConcurrentTransactions() int {
	return c.maxConcurrentTransactions
}

// AcquireTimeout limits the wait for a session when the pool is saturated
func (c *Config) AcquireTimeout() time.Duration {
	return c.acquireTimeout
}

func (c *Config) CreateSessionTimeout() time.Duration {
	return c.createSessionTimeout
}

// EndSessionTimeout limits the end session request of a dropped session
func (c *Config) EndSessionTimeout() time.Duration {
	return c.endSessionTimeout
}

// RetryPolicy is the policy of Execute calls without their own policy
func (c *Config) RetryPolicy() retry.Policy {
	return c.retryPolicy
}

func (c *Config) Codec() value.Codec {
	return c.codec
}

func (c *Config) Hasher() digest.Hasher {
	return c.hasher
}

func (c *Config) PoolTrace() *trace.Pool {
	return c.poolTrace
}

func (c *Config) RetryTrace() *trace.Retry {
	return c.retryTrace
}

func (c *Config) SessionTrace() *trace.Session {
	return c.sessionTrace
}

func (c *Config) Clock() clockwork.Clock {
	return c.clock
}
