package trace

import (
	"context"
	"time"
)

type (
	// Retry contains hooks of the retry loop
	Retry struct {
		OnRetry func(RetryLoopStartInfo) func(RetryLoopDoneInfo)
		// OnAttemptFailed is called for every failed attempt which will be retried,
		// before the backoff delay.
		OnAttemptFailed func(RetryAttemptInfo)
	}
	RetryLoopStartInfo struct {
		Context *context.Context
		Label   string
	}
	RetryLoopDoneInfo struct {
		Attempts int
		Error    error
	}
	RetryAttemptInfo struct {
		Label    string
		Attempt  int
		Error    error
		Recovery string
		Delay    time.Duration
	}
)

// Compose returns a new Retry which has functional fields composed both from t and x.
func (t *Retry) Compose(x *Retry) *Retry {
	if t == nil {
		return x
	}
	if x == nil {
		return t
	}

	return &Retry{
		OnRetry:         composeStartDone(t.OnRetry, x.OnRetry),
		OnAttemptFailed: composeEvent(t.OnAttemptFailed, x.OnAttemptFailed),
	}
}

func RetryOnRetry(t *Retry, c *context.Context, label string) func(attempts int, err error) {
	var onDone func(RetryLoopDoneInfo)
	if t != nil && t.OnRetry != nil {
		onDone = t.OnRetry(RetryLoopStartInfo{Context: c, Label: label})
	}

	return func(attempts int, err error) {
		if onDone != nil {
			onDone(RetryLoopDoneInfo{Attempts: attempts, Error: err})
		}
	}
}

func RetryOnAttemptFailed(t *Retry, info RetryAttemptInfo) {
	if t != nil && t.OnAttemptFailed != nil {
		t.OnAttemptFailed(info)
	}
}
