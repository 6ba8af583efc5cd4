package allocmany

import (
	"github.com/go-kit/log"
	"go.uber.org/atomic"
)

var logger = atomic.NewPointer(func() *log.Logger {
	l := log.NewNopLogger()
	return &l
}())

// SetLogger sets the logger used by this module. By default nothing is logged.
func SetLogger(l log.Logger) {
	if l == nil {
		l = log.NewNopLogger()
	}
	logger.Store(&l)
}

// Logger returns the logger set with SetLogger.
func Logger() log.Logger {
	return *logger.Load()
}
