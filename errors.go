package allocmany

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrAllocationFailure is the cause of every *AllocError: an allocator could
	// not satisfy a request because it ran out of capacity, the alignment was
	// unsupported or an internal counter would overflow.
	ErrAllocationFailure = errors.New("allocation failure")

	// ErrCapacityOverflow is raised when computing the byte size or element count
	// required for a collection overflows. It is fatal and distinct from
	// ErrAllocationFailure.
	ErrCapacityOverflow = errors.New("capacity overflow")

	// ErrInvalidLayout is returned by NewLayout for unusable size/alignment pairs.
	ErrInvalidLayout = errors.New("invalid layout")

	// ErrPointerType is raised when a type holding Go pointers is placed in arena
	// memory, which the garbage collector does not scan.
	ErrPointerType = errors.New("type contains Go pointers")

	// ErrNoMainAllocator is raised by the *Main constructors when SetMainAllocator
	// was never called.
	ErrNoMainAllocator = errors.New("no main allocator configured")
)

// AllocError reports the request that an allocator failed to satisfy.
type AllocError struct {
	Layout Layout
}

func (e *AllocError) Error() string {
	return fmt.Sprintf("memory allocation of %s failed", e.Layout)
}

// Unwrap makes errors.Is(err, ErrAllocationFailure) hold.
func (e *AllocError) Unwrap() error { return ErrAllocationFailure }
