// Package loggertest builds Loggers for tests. It lives outside the logger
// package so production binaries never link the testing machinery.
package loggertest

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"template-manager/internal/common/logger"
)

// New creates a Logger that writes through testing.T.
func New(t testing.TB) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}
