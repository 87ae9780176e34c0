package pool

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ledgerdb/ledger-go-sdk/internal/xtest"
	"github.com/ledgerdb/ledger-go-sdk/trace"
)

type testItem struct {
	id       int64
	dead     atomic.Bool
	closed   atomic.Bool
	closeErr error
}

func (t *testItem) IsAlive() bool {
	return !t.dead.Load() && !t.closed.Load()
}

func (t *testItem) Close(context.Context) error {
	t.closed.Store(true)

	return t.closeErr
}

func counterCreateFunc(counter *atomic.Int64) func(context.Context) (*testItem, error) {
	return func(context.Context) (*testItem, error) {
		return &testItem{id: counter.Add(1)}, nil
	}
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPool(t *testing.T) {
	ctx := xtest.Context(t)

	t.Run("New", func(t *testing.T) {
		t.Run("Default", func(t *testing.T) {
			p := New[*testItem, testItem]()
			defer func() {
				require.NoError(t, p.Close(ctx))
			}()
			require.Equal(t, DefaultLimit, p.Stats().Limit)
			item, err := p.Get(ctx)
			require.NoError(t, err)
			require.NotNil(t, item)
			require.NoError(t, p.Put(ctx, item))
		})
		t.Run("NonPositiveLimit", func(t *testing.T) {
			p := New(WithLimit[*testItem, testItem](-1))
			defer func() {
				require.NoError(t, p.Close(ctx))
			}()
			require.Equal(t, DefaultLimit, p.Stats().Limit)
		})
	})
	t.Run("ReuseIdle", func(t *testing.T) {
		var counter atomic.Int64
		p := New(
			WithLimit[*testItem, testItem](2),
			WithCreateFunc(counterCreateFunc(&counter)),
		)
		defer func() {
			require.NoError(t, p.Close(ctx))
		}()
		first, err := p.Get(ctx)
		require.NoError(t, err)
		require.Equal(t, Stats{Limit: 2, Idle: 0, InUse: 1}, p.Stats())
		require.NoError(t, p.Put(ctx, first))
		require.Equal(t, Stats{Limit: 2, Idle: 1, InUse: 0}, p.Stats())
		second, err := p.Get(ctx)
		require.NoError(t, err)
		require.Same(t, first, second)
		require.EqualValues(t, 1, counter.Load())
		require.NoError(t, p.Put(ctx, second))
	})
	t.Run("InUseNeverExceedsLimit", func(t *testing.T) {
		xtest.TestManyTimes(t, func(t testing.TB) {
			var (
				counter atomic.Int64
				limit   = 1 + rand.Intn(5)   //nolint:gosec
				callers = 10 + rand.Intn(20) //nolint:gosec
				p       = New(
					WithLimit[*testItem, testItem](limit),
					WithCreateFunc(counterCreateFunc(&counter)),
					WithAcquireTimeout[*testItem, testItem](time.Minute),
				)
				inUse    atomic.Int64
				maxInUse atomic.Int64
				wg       sync.WaitGroup
			)
			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 10; j++ {
						item, err := p.Get(ctx)
						if err != nil {
							t.Error(err)

							return
						}
						n := inUse.Add(1)
						for {
							m := maxInUse.Load()
							if n <= m || maxInUse.CompareAndSwap(m, n) {
								break
							}
						}
						if s := p.Stats(); s.InUse > s.Limit {
							t.Errorf("in use %d exceeds limit %d", s.InUse, s.Limit)
						}
						time.Sleep(time.Duration(rand.Intn(100)) * time.Microsecond) //nolint:gosec
						inUse.Add(-1)
						if err := p.Put(ctx, item); err != nil {
							t.Error(err)
						}
					}
				}()
			}
			wg.Wait()
			require.LessOrEqual(t, maxInUse.Load(), int64(limit))
			require.LessOrEqual(t, counter.Load(), int64(limit))
			require.Equal(t, 0, p.Stats().InUse)
			require.NoError(t, p.Close(ctx))
		})
	})
	t.Run("Exhausted", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		p := New(
			WithLimit[*testItem, testItem](1),
			WithClock[*testItem, testItem](clock),
			WithAcquireTimeout[*testItem, testItem](time.Second),
		)
		defer func() {
			require.NoError(t, p.Close(ctx))
		}()
		holder, err := p.Get(ctx)
		require.NoError(t, err)

		errCh := make(chan error, 1)
		go func() {
			_, err := p.Get(ctx)
			errCh <- err
		}()
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(time.Second)

		err = <-errCh
		require.ErrorIs(t, err, ErrExhausted)
		require.Equal(t, 1, p.Stats().InUse)
		require.NoError(t, p.Put(ctx, holder))
	})
	t.Run("WaiterGetsReleasedPermit", func(t *testing.T) {
		p := New(
			WithLimit[*testItem, testItem](1),
			WithAcquireTimeout[*testItem, testItem](time.Minute),
		)
		defer func() {
			require.NoError(t, p.Close(ctx))
		}()
		waited := make(chan bool, 1)
		p.config.trace = &trace.Pool{
			OnGet: func(trace.PoolGetStartInfo) func(trace.PoolGetDoneInfo) {
				return func(info trace.PoolGetDoneInfo) {
					if info.Waited {
						waited <- true
					}
				}
			},
		}
		holder, err := p.Get(ctx)
		require.NoError(t, err)

		got := make(chan *testItem, 1)
		go func() {
			item, err := p.Get(ctx)
			if err != nil {
				t.Error(err)
			}
			got <- item
		}()
		time.Sleep(10 * time.Millisecond)
		require.NoError(t, p.Put(ctx, holder))
		item := <-got
		require.Same(t, holder, item)
		require.True(t, <-waited)
		require.NoError(t, p.Put(ctx, item))
	})
	t.Run("ContextCanceledWhileWaiting", func(t *testing.T) {
		p := New(
			WithLimit[*testItem, testItem](1),
			WithAcquireTimeout[*testItem, testItem](time.Minute),
		)
		defer func() {
			require.NoError(t, p.Close(ctx))
		}()
		holder, err := p.Get(ctx)
		require.NoError(t, err)
		waitCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		_, err = p.Get(waitCtx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.NoError(t, p.Put(ctx, holder))
	})
	t.Run("DeadItemIsNotReadmitted", func(t *testing.T) {
		var counter atomic.Int64
		p := New(
			WithLimit[*testItem, testItem](2),
			WithCreateFunc(counterCreateFunc(&counter)),
		)
		defer func() {
			require.NoError(t, p.Close(ctx))
		}()
		item, err := p.Get(ctx)
		require.NoError(t, err)
		item.dead.Store(true)
		require.Error(t, p.Put(ctx, item))
		require.Equal(t, Stats{Limit: 2, Idle: 0, InUse: 0}, p.Stats())
		require.Eventually(t, item.closed.Load, time.Second, time.Millisecond)

		next, err := p.Get(ctx)
		require.NoError(t, err)
		require.NotSame(t, item, next)
		require.NoError(t, p.Put(ctx, next))
	})
	t.Run("DeadIdleItemIsSkipped", func(t *testing.T) {
		var counter atomic.Int64
		p := New(
			WithLimit[*testItem, testItem](2),
			WithCreateFunc(counterCreateFunc(&counter)),
		)
		defer func() {
			require.NoError(t, p.Close(ctx))
		}()
		item, err := p.Get(ctx)
		require.NoError(t, err)
		require.NoError(t, p.Put(ctx, item))
		item.dead.Store(true)

		next, err := p.Get(ctx)
		require.NoError(t, err)
		require.NotSame(t, item, next)
		require.EqualValues(t, 2, next.id)
		require.Eventually(t, item.closed.Load, time.Second, time.Millisecond)
		require.NoError(t, p.Put(ctx, next))
	})
	t.Run("CreateErrorReleasesPermit", func(t *testing.T) {
		errCreate := errors.New("create")
		p := New(
			WithLimit[*testItem, testItem](1),
			WithCreateFunc(func(context.Context) (*testItem, error) {
				return nil, errCreate
			}),
		)
		defer func() {
			require.NoError(t, p.Close(ctx))
		}()
		for i := 0; i < 3; i++ {
			_, err := p.Get(ctx)
			require.ErrorIs(t, err, errCreate)
			require.Equal(t, 0, p.Stats().InUse)
		}
	})
	t.Run("Replace", func(t *testing.T) {
		t.Run("KeepsPermit", func(t *testing.T) {
			var counter atomic.Int64
			p := New(
				WithLimit[*testItem, testItem](1),
				WithCreateFunc(counterCreateFunc(&counter)),
			)
			defer func() {
				require.NoError(t, p.Close(ctx))
			}()
			item, err := p.Get(ctx)
			require.NoError(t, err)
			item.dead.Store(true)
			next, err := p.Replace(ctx, item)
			require.NoError(t, err)
			require.NotSame(t, item, next)
			require.Equal(t, 1, p.Stats().InUse)
			require.Eventually(t, item.closed.Load, time.Second, time.Millisecond)
			require.NoError(t, p.Put(ctx, next))
			require.Equal(t, Stats{Limit: 1, Idle: 1, InUse: 0}, p.Stats())
		})
		t.Run("CreateErrorReleasesPermit", func(t *testing.T) {
			errCreate := errors.New("create")
			var calls atomic.Int64
			p := New(
				WithLimit[*testItem, testItem](1),
				WithCreateFunc(func(context.Context) (*testItem, error) {
					if calls.Add(1) > 1 {
						return nil, errCreate
					}

					return &testItem{}, nil
				}),
			)
			defer func() {
				require.NoError(t, p.Close(ctx))
			}()
			item, err := p.Get(ctx)
			require.NoError(t, err)
			_, err = p.Replace(ctx, item)
			require.ErrorIs(t, err, errCreate)
			require.Equal(t, 0, p.Stats().InUse)
		})
	})
	t.Run("Close", func(t *testing.T) {
		var counter atomic.Int64
		p := New(
			WithLimit[*testItem, testItem](3),
			WithCreateFunc(counterCreateFunc(&counter)),
		)
		idle, err := p.Get(ctx)
		require.NoError(t, err)
		inFlight, err := p.Get(ctx)
		require.NoError(t, err)
		require.NoError(t, p.Put(ctx, idle))

		require.NoError(t, p.Close(ctx))
		require.True(t, idle.closed.Load())
		require.False(t, inFlight.closed.Load())

		_, err = p.Get(ctx)
		require.ErrorIs(t, err, ErrClosed)

		err = p.Put(ctx, inFlight)
		require.ErrorIs(t, err, ErrClosed)
		require.Eventually(t, inFlight.closed.Load, time.Second, time.Millisecond)
		require.Equal(t, Stats{Limit: 3, Idle: 0, InUse: 0}, p.Stats())

		require.NoError(t, p.Close(ctx))
	})
	t.Run("CloseError", func(t *testing.T) {
		errClose := errors.New("close")
		var counter atomic.Int64
		p := New(
			WithLimit[*testItem, testItem](2),
			WithCreateFunc(counterCreateFunc(&counter)),
		)
		broken, err := p.Get(ctx)
		require.NoError(t, err)
		healthy, err := p.Get(ctx)
		require.NoError(t, err)
		broken.closeErr = errClose
		require.NoError(t, p.Put(ctx, broken))
		require.NoError(t, p.Put(ctx, healthy))

		require.ErrorIs(t, p.Close(ctx), errClose)
		require.True(t, broken.closed.Load())
		require.True(t, healthy.closed.Load())
		require.Equal(t, Stats{Limit: 2, Idle: 0, InUse: 0}, p.Stats())
	})
	t.Run("Trace", func(t *testing.T) {
		var (
			mu      sync.Mutex
			changes []trace.PoolChangeInfo
		)
		p := New(
			WithLimit[*testItem, testItem](2),
			WithTrace[*testItem, testItem](&trace.Pool{
				OnChange: func(info trace.PoolChangeInfo) {
					mu.Lock()
					defer mu.Unlock()
					changes = append(changes, info)
				},
			}),
		)
		item, err := p.Get(ctx)
		require.NoError(t, err)
		require.NoError(t, p.Put(ctx, item))
		require.NoError(t, p.Close(ctx))

		mu.Lock()
		defer mu.Unlock()
		require.Equal(t, []trace.PoolChangeInfo{
			{Limit: 2, Idle: 0, InUse: 1},
			{Limit: 2, Idle: 1, InUse: 0},
			{Limit: 2, Idle: 0, InUse: 0},
		}, changes)
	})
}
