package xtest

import (
	"context"
	"runtime/pprof"
	"testing"
	"time"
)

const commonWaitTimeout = 10 * time.Second

// Context returns a context which is cancelled when the test finishes.
func Context(t testing.TB) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = pprof.WithLabels(ctx, pprof.Labels("test", t.Name()))
	pprof.SetGoroutineLabels(ctx)

	t.Cleanup(func() {
		pprof.SetGoroutineLabels(ctx)
		cancel()
	})

	return ctx
}

func ContextWithCommonTimeout(ctx context.Context, t testing.TB) context.Context {
	if ctx.Done() == nil {
		t.Fatal("Use context with timeout only with context, cancelled on finish test, for example xtest.Context")
	}

	ctx, ctxCancel := context.WithTimeout(ctx, commonWaitTimeout)
	_ = ctxCancel // suppress linters, it is ok for leak for small amount of time: it will cancel by parent context

	return ctx
}

// WaitChannelClosed fails the test if ch is not closed within the common timeout.
func WaitChannelClosed(t testing.TB, ch <-chan struct{}) {
	t.Helper()

	select {
	case <-ch:
	case <-time.After(commonWaitTimeout):
		t.Fatal("channel was not closed in time")
	}
}
