package trace

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolCompose(t *testing.T) {
	var calls []string
	a := &Pool{
		OnGet: func(PoolGetStartInfo) func(PoolGetDoneInfo) {
			calls = append(calls, "a.start")

			return func(info PoolGetDoneInfo) {
				calls = append(calls, "a.done")
			}
		},
		OnChange: func(PoolChangeInfo) {
			calls = append(calls, "a.change")
		},
	}
	b := &Pool{
		OnGet: func(PoolGetStartInfo) func(PoolGetDoneInfo) {
			calls = append(calls, "b.start")

			return nil
		},
	}
	ctx := context.Background()
	c := a.Compose(b)
	PoolOnGet(c, &ctx)(true, nil)
	PoolOnChange(c, PoolChangeInfo{Limit: 1})
	require.Equal(t, []string{"a.start", "b.start", "a.done", "a.change"}, calls)
}

func TestNilTraces(t *testing.T) {
	ctx := context.Background()
	err := errors.New("test")
	require.NotPanics(t, func() {
		PoolOnGet(nil, &ctx)(false, err)
		PoolOnPut(nil, &ctx, true)(err)
		PoolOnClose(nil, &ctx)(err)
		PoolOnChange(nil, PoolChangeInfo{})
		RetryOnRetry(nil, &ctx, "")(1, err)
		RetryOnAttemptFailed(nil, RetryAttemptInfo{})
		SessionOnCreate(nil, &ctx, "ledger")("id", err)
		SessionOnEnd(nil, &ctx, "id")(err)
		SessionOnBegin(nil, &ctx, "id")("tx", err)
		SessionOnExecute(nil, &ctx, "id", "tx", "SELECT 1")(err)
		SessionOnCommit(nil, &ctx, "id", "tx")(err)
		SessionOnAbort(nil, &ctx, "id", "tx")(err)
		SessionOnAbort(&Session{}, &ctx, "id", "tx")(err)
	})
	require.Nil(t, (*Retry)(nil).Compose(nil))
	x := &Session{}
	require.Equal(t, x, (*Session)(nil).Compose(x))
	require.Equal(t, x, x.Compose(nil))
}

func TestDetailsString(t *testing.T) {
	require.Equal(t, "ledger.pool|ledger.retry", (PoolEvents | RetryEvents).String())
	require.Equal(t, "", Details(0).String())
}
