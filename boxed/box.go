// Package boxed provides Box, a single-owner handle for one value stored in
// allocator memory.
package boxed

import (
	"cmp"
	"fmt"
	"unsafe"

	"github.com/pavanmanishd/allocmany"
	"github.com/pavanmanishd/allocmany/internal/raw"
)

// Box owns one T placed in memory obtained from an Allocator.
//
// A Box must not be copied; pass *Box around and call Drop exactly when the
// value's lifetime ends, typically with defer. T must not contain Go pointers.
type Box[T any] struct {
	_ noCopy

	alloc  allocmany.Allocator
	ptr    *T
	layout allocmany.Layout
}

// New allocates room for a T on a and moves value into it. If a cannot
// satisfy the request the OOM handler is invoked; New never returns a
// failed Box.
func New[T any](a allocmany.Allocator, value T) *Box[T] {
	allocmany.MustBePointerFree[T]()

	l := allocmany.LayoutOf[T]()
	b := &Box[T]{alloc: a, layout: l}
	if raw.IsZeroSize[T]() {
		b.ptr = raw.Dangling[T]()
		return b
	}

	p := a.Alloc(l)
	if p == nil {
		allocmany.HandleAllocError(l)
	}
	b.ptr = (*T)(p)
	*b.ptr = value
	return b
}

// NewMain is New on the main allocator.
func NewMain[T any](value T) *Box[T] {
	return New(allocmany.MainAllocator(), value)
}

// Get returns a pointer to the boxed value, valid until Drop or Take.
func (b *Box[T]) Get() *T {
	if b.ptr == nil {
		panic("boxed: use after Drop")
	}
	return b.ptr
}

// Value returns a copy of the boxed value.
func (b *Box[T]) Value() T {
	return *b.Get()
}

// Set tears down the boxed value and replaces it with value.
func (b *Box[T]) Set(value T) {
	p := b.Get()
	raw.Drop(p)
	*p = value
}

// Take moves the value out of the box and gives its memory back. Teardown
// is not run since the caller now owns the value.
func (b *Box[T]) Take() T {
	v := *b.Get()
	b.release()
	return v
}

// Drop tears down the boxed value, if *T implements allocmany.Dropper, and
// gives its memory back. Calling Drop again has no effect.
func (b *Box[T]) Drop() {
	if b.ptr == nil {
		return
	}
	raw.Drop(b.ptr)
	b.release()
}

// Dropped reports whether Drop or Take has been called.
func (b *Box[T]) Dropped() bool {
	return b.ptr == nil
}

func (b *Box[T]) release() {
	p := b.ptr
	b.ptr = nil
	if b.layout.Size() == 0 {
		return
	}
	b.alloc.Dealloc(unsafe.Pointer(p), b.layout)
}

// Format formats the boxed value as if it were passed to fmt directly.
func (b *Box[T]) Format(f fmt.State, verb rune) {
	fmt.Fprintf(f, fmt.FormatString(f, verb), *b.Get())
}

func (b *Box[T]) String() string {
	return fmt.Sprint(*b.Get())
}

// Equal reports whether the values in a and b are equal. The boxes may live on
// different allocators.
func Equal[T comparable](a, b *Box[T]) bool {
	return *a.Get() == *b.Get()
}

// EqualFunc is like Equal but uses eq to compare the values.
func EqualFunc[T any](a, b *Box[T], eq func(T, T) bool) bool {
	return eq(*a.Get(), *b.Get())
}

// Compare orders a and b by their values, following cmp.Compare.
func Compare[T cmp.Ordered](a, b *Box[T]) int {
	return cmp.Compare(*a.Get(), *b.Get())
}
