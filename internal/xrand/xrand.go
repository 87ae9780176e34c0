package xrand

import (
	"math/rand"
	"sync"
	"time"
)

type Rand interface {
	// Float64 returns a pseudo-random number in [0.0,1.0)
	Float64() float64
	Int64(max int64) int64
}

type r struct {
	m *sync.Mutex
	r *rand.Rand
}

type option func(r *r)

func WithLock() option {
	return func(r *r) {
		r.m = &sync.Mutex{}
	}
}

func WithSeed(seed int64) option {
	return func(r *r) {
		r.r = rand.New(rand.NewSource(seed)) //nolint:gosec
	}
}

func New(opts ...option) Rand {
	r := &r{}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.r == nil {
		r.r = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec
	}

	return r
}

func (r *r) lock() func() {
	if r.m == nil {
		return func() {}
	}
	r.m.Lock()

	return r.m.Unlock
}

func (r *r) Float64() float64 {
	defer r.lock()()

	return r.r.Float64()
}

func (r *r) Int64(max int64) int64 {
	defer r.lock()()

	return r.r.Int63n(max)
}
