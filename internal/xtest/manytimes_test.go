package xtest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTestManyTimesCleanup(t *testing.T) {
	runs, cleanups := 0, 0
	TestManyTimes(t, func(t testing.TB) {
		runs++
		t.Cleanup(func() {
			cleanups++
		})
	})
	require.Positive(t, runs)
	require.Equal(t, runs, cleanups)
}

func TestCurrentFileLine(t *testing.T) {
	require.Equal(t, "manytimes_test.go:22", CurrentFileLine())
}
