package allocmany

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/pavanmanishd/allocmany/internal/raw"
)

// Allocator is the capability every arena implements.
//
// A nil return from Alloc, AllocZeroed or Realloc signals failure; none of them
// block or panic on exhaustion. Callers that cannot tolerate failure hand the
// layout to HandleAllocError. Zero-size layouts are invalid requests.
type Allocator interface {
	// Alloc returns a pointer to size bytes aligned to align, or nil.
	Alloc(l Layout) unsafe.Pointer

	// Dealloc gives back a block previously returned for l.
	Dealloc(p unsafe.Pointer, l Layout)

	// AllocZeroed behaves like Alloc but the returned block is all zeroes.
	AllocZeroed(l Layout) unsafe.Pointer

	// Realloc moves the block at p, allocated for l, into a block of newSize
	// bytes with the same alignment. The first min(l.Size(), newSize) bytes are
	// preserved. On failure p is left untouched and nil is returned.
	Realloc(p unsafe.Pointer, l Layout, newSize uintptr) unsafe.Pointer
}

// Dropper is implemented by values that need teardown before their memory is
// given back to an allocator.
type Dropper interface {
	Drop()
}

// AllocZeroedDefault implements AllocZeroed on top of a.Alloc.
func AllocZeroedDefault(a Allocator, l Layout) unsafe.Pointer {
	p := a.Alloc(l)
	if p != nil {
		clear(unsafe.Slice((*byte)(p), l.size))
	}
	return p
}

// ReallocDefault implements Realloc on top of a.Alloc and a.Dealloc: it
// allocates a fresh block, copies the common prefix and deallocates the old one.
func ReallocDefault(a Allocator, p unsafe.Pointer, l Layout, newSize uintptr) unsafe.Pointer {
	nl, err := NewLayout(newSize, l.align)
	if err != nil {
		return nil
	}
	np := a.Alloc(nl)
	if np == nil {
		return nil
	}
	copy(unsafe.Slice((*byte)(np), newSize), unsafe.Slice((*byte)(p), min(l.size, newSize)))
	a.Dealloc(p, l)
	return np
}

// New returns a zeroed *T allocated from a. The arena must outlive every use
// of the returned pointer and T must not contain Go pointers.
func New[T any](a Allocator) *T {
	MustBePointerFree[T]()
	l := LayoutOf[T]()
	if l.size == 0 {
		return new(T)
	}
	p := a.AllocZeroed(l)
	if p == nil {
		HandleAllocError(l)
	}
	return (*T)(p)
}

// MakeSlice returns a zeroed slice of n elements of T allocated from a.
// Returns nil if n <= 0.
func MakeSlice[T any](a Allocator, n int) []T {
	if n <= 0 {
		return nil
	}
	MustBePointerFree[T]()
	l, err := ArrayOf[T](n)
	if err != nil {
		panic(err)
	}
	if l.size == 0 {
		return make([]T, n)
	}
	p := a.AllocZeroed(l)
	if p == nil {
		HandleAllocError(l)
	}
	return unsafe.Slice((*T)(p), n)
}

// CheckPointerFree returns an error wrapping ErrPointerType if T holds Go
// pointers and therefore cannot live in allocator memory.
func CheckPointerFree[T any]() error {
	if raw.HasPointers[T]() {
		return errors.Wrapf(ErrPointerType, "%s cannot be stored in arena memory", raw.TypeName[T]())
	}
	return nil
}

// MustBePointerFree panics with the error from CheckPointerFree, if any.
func MustBePointerFree[T any]() {
	if err := CheckPointerFree[T](); err != nil {
		panic(err)
	}
}
