package xerrors

import (
	"runtime"
	"strconv"
	"strings"
)

type withStackTraceOptions struct {
	skipDepth int
}

type withStackTraceOption func(o *withStackTraceOptions)

func WithSkipDepth(skipDepth int) withStackTraceOption {
	return func(o *withStackTraceOptions) {
		o.skipDepth = skipDepth
	}
}

// WithStackTrace is a wrapper over original err with file:line identification
func WithStackTrace(err error, opts ...withStackTraceOption) error {
	if err == nil {
		return nil
	}
	options := withStackTraceOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	return &stackError{
		stackRecord: record(options.skipDepth + 1),
		err:         err,
	}
}

// record returns caller description in form `pkg.Func(file.go:line)`
func record(depth int) string {
	pc, file, line, ok := runtime.Caller(depth + 1)
	if !ok {
		return "unknown"
	}
	name := strings.ReplaceAll(runtime.FuncForPC(pc).Name(), "[...]", "")
	if i := strings.LastIndex(file, "/"); i > -1 {
		file = file[i+1:]
	}

	var b strings.Builder
	b.Grow(len(name) + len(file) + 8)
	b.WriteString(name)
	b.WriteByte('(')
	b.WriteString(file)
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(line))
	b.WriteByte(')')

	return b.String()
}

type stackError struct {
	stackRecord string
	err         error
}

func (e *stackError) Error() string {
	return e.err.Error() + " at `" + e.stackRecord + "`"
}

func (e *stackError) Unwrap() error {
	return e.err
}
