// Package bump implements a fixed-capacity, lock-free bump pointer arena that
// never frees memory.
package bump

import (
	"math"
	"unsafe"

	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/pavanmanishd/allocmany"
)

const (
	// MaxCapacity is the largest arena that the cursor can address.
	MaxCapacity = math.MaxUint16

	// MaxAlign is the largest alignment an arena serves.
	MaxAlign = 1 << 15
)

// ErrInvalidCapacity is returned by New for capacities outside (0, MaxCapacity].
var ErrInvalidCapacity = errors.New("invalid arena capacity")

// Arena hands out memory by advancing a single atomic cursor through a
// fixed buffer. Dealloc is a no-op: once handed out, a byte is never reused.
//
// Alloc, AllocZeroed and Realloc are lock-free and safe for concurrent use.
// The contents of a returned block belong to the caller; publishing the
// pointer to other goroutines needs its own synchronization.
type Arena struct {
	// cursor only ever holds 16-bit values.
	cursor   atomic.Uint32
	capacity uint32
	memory   []byte

	allocs   atomic.Uint64
	failures atomic.Uint64
}

// New creates an arena of capacity bytes. Arenas are meant to be created once
// at start-up and live for the rest of the process.
func New(capacity int) (*Arena, error) {
	if capacity <= 0 || capacity > MaxCapacity {
		return nil, errors.Wrapf(ErrInvalidCapacity, "capacity %d not in (0, %d]", capacity, MaxCapacity)
	}
	a := &Arena{
		capacity: uint32(capacity),
		memory:   make([]byte, capacity),
	}
	level.Debug(allocmany.Logger()).Log("msg", "bump arena created", "capacity", capacity)
	return a, nil
}

// MustNew is like New but panics on error. It suits package-level arenas:
//
//	var A = bump.MustNew(128)
func MustNew(capacity int) *Arena {
	a, err := New(capacity)
	if err != nil {
		panic(err)
	}
	return a
}

// Alloc returns the next block that satisfies l, or nil once the arena cannot
// fit it. Sizes and alignments beyond the cursor width are refused.
func (a *Arena) Alloc(l allocmany.Layout) unsafe.Pointer {
	if l.Size() == 0 || l.Size() > MaxCapacity || l.Align() > MaxAlign {
		a.failures.Inc()
		return nil
	}
	size := uint32(l.Size())
	align := uint32(l.Align())
	base := uintptr(unsafe.Pointer(unsafe.SliceData(a.memory)))

	for {
		index := a.cursor.Load()

		res := uint32((base + uintptr(index)) % uintptr(align))
		start := index
		if res != 0 {
			start = index + align - res
		}

		if start+size > a.capacity {
			a.failures.Inc()
			return nil
		}
		if a.cursor.CompareAndSwap(index, start+size) {
			a.allocs.Inc()
			return unsafe.Pointer(&a.memory[start])
		}
	}
}

// Dealloc does nothing; arena memory is never reclaimed.
func (a *Arena) Dealloc(unsafe.Pointer, allocmany.Layout) {}

// AllocZeroed is Alloc with the block cleared.
func (a *Arena) AllocZeroed(l allocmany.Layout) unsafe.Pointer {
	return allocmany.AllocZeroedDefault(a, l)
}

// Realloc always moves to a fresh block; the old one is retired.
func (a *Arena) Realloc(p unsafe.Pointer, l allocmany.Layout, newSize uintptr) unsafe.Pointer {
	return allocmany.ReallocDefault(a, p, l, newSize)
}

// Capacity returns the arena size in bytes.
func (a *Arena) Capacity() int {
	return int(a.capacity)
}

// Used returns the cursor offset: bytes handed out plus alignment padding.
func (a *Arena) Used() int {
	return int(a.cursor.Load())
}

// Remaining returns the number of bytes past the cursor.
func (a *Arena) Remaining() int {
	return int(a.capacity - a.cursor.Load())
}

// Contains reports whether p points into the arena's buffer.
func (a *Arena) Contains(p unsafe.Pointer) bool {
	base := uintptr(unsafe.Pointer(unsafe.SliceData(a.memory)))
	addr := uintptr(p)
	return addr >= base && addr < base+uintptr(a.capacity)
}
