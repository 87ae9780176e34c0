package trace

import (
	"context"
)

type (
	// Pool contains hooks of the session pool
	Pool struct {
		OnGet    func(PoolGetStartInfo) func(PoolGetDoneInfo)
		OnPut    func(PoolPutStartInfo) func(PoolPutDoneInfo)
		OnClose  func(PoolCloseStartInfo) func(PoolCloseDoneInfo)
		OnChange func(PoolChangeInfo)
	}
	PoolGetStartInfo struct {
		// Context make available context in trace callback function.
		// Pointer to context provide replacement of context in trace callback function.
		// Warning: concurrent access to pointer on client side must be excluded.
		// Safe replacement of context are provided only inside callback function
		Context *context.Context
	}
	PoolGetDoneInfo struct {
		// Waited is true when the permit was not immediately available.
		Waited bool
		Error  error
	}
	PoolPutStartInfo struct {
		Context *context.Context
		Alive   bool
	}
	PoolPutDoneInfo struct {
		Error error
	}
	PoolCloseStartInfo struct {
		Context *context.Context
	}
	PoolCloseDoneInfo struct {
		Error error
	}
	PoolChangeInfo struct {
		Limit int
		Idle  int
		InUse int
	}
)

// Compose returns a new Pool which has functional fields composed both from t and x.
func (t *Pool) Compose(x *Pool) *Pool {
	if t == nil {
		return x
	}
	if x == nil {
		return t
	}

	return &Pool{
		OnGet:    composeStartDone(t.OnGet, x.OnGet),
		OnPut:    composeStartDone(t.OnPut, x.OnPut),
		OnClose:  composeStartDone(t.OnClose, x.OnClose),
		OnChange: composeEvent(t.OnChange, x.OnChange),
	}
}

func PoolOnGet(t *Pool, c *context.Context) func(waited bool, err error) {
	var onDone func(PoolGetDoneInfo)
	if t != nil && t.OnGet != nil {
		onDone = t.OnGet(PoolGetStartInfo{Context: c})
	}

	return func(waited bool, err error) {
		if onDone != nil {
			onDone(PoolGetDoneInfo{Waited: waited, Error: err})
		}
	}
}

func PoolOnPut(t *Pool, c *context.Context, alive bool) func(err error) {
	var onDone func(PoolPutDoneInfo)
	if t != nil && t.OnPut != nil {
		onDone = t.OnPut(PoolPutStartInfo{Context: c, Alive: alive})
	}

	return func(err error) {
		if onDone != nil {
			onDone(PoolPutDoneInfo{Error: err})
		}
	}
}

func PoolOnClose(t *Pool, c *context.Context) func(err error) {
	var onDone func(PoolCloseDoneInfo)
	if t != nil && t.OnClose != nil {
		onDone = t.OnClose(PoolCloseStartInfo{Context: c})
	}

	return func(err error) {
		if onDone != nil {
			onDone(PoolCloseDoneInfo{Error: err})
		}
	}
}

func PoolOnChange(t *Pool, info PoolChangeInfo) {
	if t != nil && t.OnChange != nil {
		t.OnChange(info)
	}
}
