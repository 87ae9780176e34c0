package xerrors

import (
	"fmt"
	"strings"
)

// Recovery describes what must happen with the session before the next attempt.
type Recovery uint8

const (
	// RecoverySameSession retries on the session which produced the failure.
	RecoverySameSession = Recovery(iota)
	// RecoveryNextSession gives the session back to the pool and takes another one.
	RecoveryNextSession
	// RecoveryNewSession drops the dead session and starts a brand-new one.
	RecoveryNewSession
)

func (r Recovery) String() string {
	switch r {
	case RecoverySameSession:
		return "same session"
	case RecoveryNextSession:
		return "next session"
	case RecoveryNewSession:
		return "new session"
	default:
		return fmt.Sprintf("unknown recovery %d", r)
	}
}

type retryableError struct {
	name     string
	err      error
	recovery Recovery
}

func (re *retryableError) Name() string {
	return "retryable/" + re.name
}

func (re *retryableError) Recovery() Recovery {
	return re.recovery
}

func (re *retryableError) Error() string {
	var b strings.Builder
	b.WriteString(re.Name())
	fmt.Fprintf(&b, " (recovery = %s, source error = %q)", re.recovery, re.err.Error())

	return b.String()
}

func (re *retryableError) Unwrap() error {
	return re.err
}

type RetryableErrorOption interface {
	applyToRetryableError(re *retryableError)
}

var (
	_ RetryableErrorOption = recoveryOption(0)
	_ RetryableErrorOption = nameOption("")
)

type recoveryOption Recovery

func (r recoveryOption) applyToRetryableError(re *retryableError) {
	re.recovery = Recovery(r)
}

func WithRecovery(r Recovery) recoveryOption {
	return recoveryOption(r)
}

type nameOption string

func (name nameOption) applyToRetryableError(re *retryableError) {
	re.name = string(name)
}

func WithName(name string) nameOption {
	return nameOption(name)
}

// Retryable marks err as retryable. By default the same session is reused for
// the next attempt.
func Retryable(err error, opts ...RetryableErrorOption) error {
	if err == nil {
		return nil
	}
	re := &retryableError{
		err:      err,
		name:     "CUSTOM",
		recovery: RecoverySameSession,
	}
	for _, opt := range opts {
		if opt != nil {
			opt.applyToRetryableError(re)
		}
	}

	return re
}

// RetryableError reports whether err was marked as retryable and how the
// next attempt must recover.
func RetryableError(err error) (recovery Recovery, ok bool) {
	var re *retryableError
	if As(err, &re) {
		return re.recovery, true
	}

	return RecoverySameSession, false
}

// Unretryable strips the retry bookkeeping from err and returns the underlying
// failure. Errors without retry bookkeeping are returned as is.
func Unretryable(err error) error {
	var re *retryableError
	if As(err, &re) {
		return re.err
	}

	return err
}
