package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/ledgerdb/ledger-go-sdk/internal/xerrors"
	"github.com/ledgerdb/ledger-go-sdk/trace"
)

type (
	Item[T any] interface {
		*T
		IsAlive() bool
		Close(ctx context.Context) error
	}
	Config[PT Item[T], T any] struct {
		trace          *trace.Pool
		clock          clockwork.Clock
		limit          int
		createItem     func(ctx context.Context) (PT, error)
		acquireTimeout time.Duration
		createTimeout  time.Duration
		closeTimeout   time.Duration
	}
	// Pool is a bounded set of reusable items.
	//
	// Every item is either idle in the pool, checked out by exactly one caller,
	// or closed. The number of checked out items never exceeds the limit:
	// a checked out item holds one permit of sema.
	Pool[PT Item[T], T any] struct {
		config Config[PT, T]

		sema chan struct{}

		mu   sync.Mutex
		idle []PT

		closing sync.WaitGroup

		done      chan struct{}
		closeOnce sync.Once
	}
	Stats struct {
		Limit int
		Idle  int
		InUse int
	}
	option[PT Item[T], T any] func(c *Config[PT, T])
)

func WithCreateFunc[PT Item[T], T any](f func(ctx context.Context) (PT, error)) option[PT, T] {
	return func(c *Config[PT, T]) {
		c.createItem = f
	}
}

func WithLimit[PT Item[T], T any](size int) option[PT, T] {
	return func(c *Config[PT, T]) {
		c.limit = size
	}
}

// WithAcquireTimeout bounds the wait for a permit when the pool is saturated.
func WithAcquireTimeout[PT Item[T], T any](t time.Duration) option[PT, T] {
	return func(c *Config[PT, T]) {
		c.acquireTimeout = t
	}
}

func WithCreateItemTimeout[PT Item[T], T any](t time.Duration) option[PT, T] {
	return func(c *Config[PT, T]) {
		c.createTimeout = t
	}
}

func WithCloseItemTimeout[PT Item[T], T any](t time.Duration) option[PT, T] {
	return func(c *Config[PT, T]) {
		c.closeTimeout = t
	}
}

func WithClock[PT Item[T], T any](clock clockwork.Clock) option[PT, T] {
	return func(c *Config[PT, T]) {
		c.clock = clock
	}
}

func WithTrace[PT Item[T], T any](t *trace.Pool) option[PT, T] {
	return func(c *Config[PT, T]) {
		c.trace = c.trace.Compose(t)
	}
}

func New[PT Item[T], T any](opts ...option[PT, T]) *Pool[PT, T] {
	p := &Pool[PT, T]{
		config: Config[PT, T]{
			clock:          clockwork.NewRealClock(),
			limit:          DefaultLimit,
			createItem:     defaultCreateItem[T, PT],
			acquireTimeout: DefaultAcquireTimeout,
			createTimeout:  DefaultCreateTimeout,
			closeTimeout:   DefaultCloseTimeout,
		},
		done: make(chan struct{}),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&p.config)
		}
	}

	if p.config.limit <= 0 {
		p.config.limit = DefaultLimit
	}

	p.sema = make(chan struct{}, p.config.limit)
	p.idle = make([]PT, 0, p.config.limit)

	return p
}

// defaultCreateItem returns a new item
func defaultCreateItem[T any, PT Item[T]](context.Context) (PT, error) {
	var item T

	return &item, nil
}

func (p *Pool[PT, T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stats()
}

// p.mu must be locked
func (p *Pool[PT, T]) stats() Stats {
	return Stats{
		Limit: p.config.limit,
		Idle:  len(p.idle),
		InUse: len(p.sema),
	}
}

func (p *Pool[PT, T]) onChangeStats() {
	trace.PoolOnChange(p.config.trace, trace.PoolChangeInfo(p.Stats()))
}

func (p *Pool[PT, T]) isClosed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// acquire takes a permit. When the pool is saturated acquire waits not longer
// than the acquire timeout and fails with ErrExhausted.
func (p *Pool[PT, T]) acquire(ctx context.Context) (waited bool, _ error) {
	if p.isClosed() {
		return false, xerrors.WithStackTrace(ErrClosed)
	}

	select {
	case p.sema <- struct{}{}:
		return false, nil
	default:
	}

	timer := p.config.clock.NewTimer(p.config.acquireTimeout)
	defer timer.Stop()

	select {
	case <-p.done:
		return true, xerrors.WithStackTrace(ErrClosed)
	case <-ctx.Done():
		return true, xerrors.WithStackTrace(ctx.Err())
	case <-timer.Chan():
		return true, xerrors.WithStackTrace(fmt.Errorf("%w: no permit released within %v (limit = %d)",
			ErrExhausted, p.config.acquireTimeout, p.config.limit,
		))
	case p.sema <- struct{}{}:
		return true, nil
	}
}

func (p *Pool[PT, T]) release() {
	<-p.sema
}

func (p *Pool[PT, T]) getItemFromIdle() (item PT) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.idle) == 0 {
		return nil
	}

	item, p.idle = p.idle[0], p.idle[1:]

	return item
}

func (p *Pool[PT, T]) createItem(ctx context.Context) (PT, error) {
	createCtx, cancel := context.WithCancel(ctx)
	if d := p.config.createTimeout; d > 0 {
		createCtx, cancel = context.WithTimeout(ctx, d)
	}
	defer cancel()

	item, err := p.config.createItem(createCtx)
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}
	if item == nil {
		return nil, xerrors.WithStackTrace(errNilItem)
	}

	return item, nil
}

// Get takes an idle item or creates a new one. The caller owns the returned
// item until it passes it to Put or Replace.
func (p *Pool[PT, T]) Get(ctx context.Context) (_ PT, finalErr error) {
	var waited bool
	onDone := trace.PoolOnGet(p.config.trace, &ctx)
	defer func() {
		onDone(waited, finalErr)
	}()

	waited, err := p.acquire(ctx)
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}
	defer p.onChangeStats()

	if p.isClosed() {
		p.release()

		return nil, xerrors.WithStackTrace(ErrClosed)
	}

	for item := p.getItemFromIdle(); item != nil; item = p.getItemFromIdle() {
		if item.IsAlive() {
			return item, nil
		}
		p.closeItem(ctx, item)
	}

	item, err := p.createItem(ctx)
	if err != nil {
		p.release()

		return nil, xerrors.WithStackTrace(err)
	}

	return item, nil
}

// Put gives the item back. Alive items become idle, dead items are closed.
// The permit of the item is released in any case.
func (p *Pool[PT, T]) Put(ctx context.Context, item PT) (finalErr error) {
	alive := item.IsAlive()
	onDone := trace.PoolOnPut(p.config.trace, &ctx, alive)
	defer func() {
		onDone(finalErr)
	}()

	defer p.onChangeStats()
	defer p.release()

	if !alive {
		p.closeItem(ctx, item)

		return xerrors.WithStackTrace(errItemIsNotAlive)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isClosed() {
		p.closeItem(ctx, item)

		return xerrors.WithStackTrace(ErrClosed)
	}

	p.idle = append(p.idle, item)

	return nil
}

// Replace drops the item and creates a new one in its place keeping the
// permit. If creation fails the permit is released and the caller owns
// nothing.
func (p *Pool[PT, T]) Replace(ctx context.Context, item PT) (_ PT, finalErr error) {
	p.closeItem(ctx, item)

	if p.isClosed() {
		p.release()
		p.onChangeStats()

		return nil, xerrors.WithStackTrace(ErrClosed)
	}

	newItem, err := p.createItem(ctx)
	if err != nil {
		p.release()
		p.onChangeStats()

		return nil, xerrors.WithStackTrace(err)
	}

	return newItem, nil
}

func (p *Pool[PT, T]) closeItem(ctx context.Context, item PT) {
	closeCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if d := p.config.closeTimeout; d > 0 {
		closeCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), d)
	}

	p.closing.Add(1)
	go func() {
		defer p.closing.Done()
		defer cancel()

		_ = item.Close(closeCtx)
	}()
}

// Close forbids new acquisitions and closes all idle items. Checked out items
// are closed when they are put back.
func (p *Pool[PT, T]) Close(ctx context.Context) (finalErr error) {
	onDone := trace.PoolOnClose(p.config.trace, &ctx)
	defer func() {
		onDone(finalErr)
	}()

	p.closeOnce.Do(func() {
		close(p.done)
	})

	p.mu.Lock()
	idle := p.idle
	p.idle = nil

	var g errgroup.Group
	for _, item := range idle {
		g.Go(func() error {
			return item.Close(ctx)
		})
	}
	err := g.Wait()
	p.mu.Unlock()

	p.closing.Wait()
	p.onChangeStats()

	if err != nil {
		return xerrors.WithStackTrace(err)
	}

	return nil
}
