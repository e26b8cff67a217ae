//go:build !windows

package console

import "github.com/soar/padview/internal/logger"

const isWindows = false

// SetupConsoleHandler returns a no-op function on non-Windows platforms.
func SetupConsoleHandler(shutdown chan struct{}, log *logger.Logger) func() {
	return func() {}
}

// Detached is always false: there is no double-click start to detect.
func Detached() bool { return false }
