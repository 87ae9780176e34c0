package xrand

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeedDeterminism(t *testing.T) {
	r1 := New(WithSeed(42))
	r2 := New(WithSeed(42))
	for i := 0; i < 100; i++ {
		require.Equal(t, r1.Float64(), r2.Float64())
		require.Equal(t, r1.Int64(1000), r2.Int64(1000))
	}
}

func TestRanges(t *testing.T) {
	r := New()
	for i := 0; i < 1000; i++ {
		f := r.Float64()
		require.GreaterOrEqual(t, f, 0.0)
		require.Less(t, f, 1.0)
		n := r.Int64(10)
		require.GreaterOrEqual(t, n, int64(0))
		require.Less(t, n, int64(10))
	}
}

func TestConcurrentWithLock(t *testing.T) {
	r := New(WithLock())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = r.Float64()
			}
		}()
	}
	wg.Wait()
}
