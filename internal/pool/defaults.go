package pool

import "time"

const (
	DefaultLimit          = 50
	DefaultAcquireTimeout = time.Second
	DefaultCreateTimeout  = 5 * time.Second
	DefaultCloseTimeout   = 500 * time.Millisecond
)
