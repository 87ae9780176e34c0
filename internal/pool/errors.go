package pool

import (
	"errors"
)

var (
	// ErrClosed is returned by any operation of a closed pool
	ErrClosed = errors.New("pool is closed")
	// ErrExhausted is returned when no permit was released within the acquire timeout
	ErrExhausted = errors.New("pool is exhausted")

	errItemIsNotAlive = errors.New("item is not alive")
	errNilItem        = errors.New("create func returned nil item")
)
