package allocmany

import (
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// OOMHandler is called with the layout of a request that could not be
// satisfied. It must not return: abort, panic or exit are all acceptable.
type OOMHandler func(Layout)

var oomHandler = atomic.NewPointer[OOMHandler](nil)

// SetOOMHandler installs h as the process-wide OOM handler and returns the
// previous one. A nil h restores the default, which logs and panics.
func SetOOMHandler(h OOMHandler) OOMHandler {
	var prev *OOMHandler
	if h == nil {
		prev = oomHandler.Swap(nil)
	} else {
		prev = oomHandler.Swap(&h)
	}
	if prev == nil {
		return nil
	}
	return *prev
}

// HandleAllocError reports a failed request for l to the OOM handler.
// It never returns.
func HandleAllocError(l Layout) {
	h := defaultOOMHandler
	if p := oomHandler.Load(); p != nil {
		h = *p
	}
	h(l)
	panic(errors.Wrap(&AllocError{Layout: l}, "oom handler returned"))
}

func defaultOOMHandler(l Layout) {
	err := &AllocError{Layout: l}
	level.Error(Logger()).Log("msg", "out of memory", "size", l.size, "align", l.align, "err", err)
	panic(err)
}
