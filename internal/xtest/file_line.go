package xtest

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// CurrentFileLine returns `file.go:line` of the caller. Handy for naming
// table-driven test cases.
func CurrentFileLine() string {
	_, file, line, _ := runtime.Caller(1)

	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}
