// Package vec provides Vec, a contiguous growable array whose elements live in
// allocator memory.
package vec

import (
	"iter"
	"math"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/pavanmanishd/allocmany"
	"github.com/pavanmanishd/allocmany/internal/raw"
)

// Vec is a growable array of T backed by a single block from an Allocator.
// Slots [0, Len) hold values; slots [Len, Cap) are unused.
//
// A Vec is not safe for concurrent use and must not be copied. T must not
// contain Go pointers.
type Vec[T any] struct {
	_ noCopy

	alloc allocmany.Allocator
	ptr   unsafe.Pointer
	len   int
	cap   int
}

// New returns an empty Vec that allocates from a. No memory is requested
// until the first element is pushed.
func New[T any](a allocmany.Allocator) *Vec[T] {
	allocmany.MustBePointerFree[T]()

	v := &Vec[T]{alloc: a}
	if raw.IsZeroSize[T]() {
		v.ptr = unsafe.Pointer(raw.Dangling[T]())
		v.cap = math.MaxInt
	}
	return v
}

// WithCapacity returns an empty Vec with room for at least n elements.
func WithCapacity[T any](a allocmany.Allocator, n int) *Vec[T] {
	v := New[T](a)
	v.Reserve(n)
	return v
}

// NewMain is New on the main allocator.
func NewMain[T any]() *Vec[T] {
	return New[T](allocmany.MainAllocator())
}

// Len returns the number of elements.
func (v *Vec[T]) Len() int { return v.len }

// Cap returns the number of elements the Vec can hold without growing.
func (v *Vec[T]) Cap() int { return v.cap }

// IsEmpty reports whether the Vec has no elements.
func (v *Vec[T]) IsEmpty() bool { return v.len == 0 }

// Push appends value, growing the backing block first if it is full.
func (v *Vec[T]) Push(value T) {
	if v.len == v.cap {
		v.Reserve(1)
	}
	*v.slot(v.len) = value
	v.len++
}

// Extend appends values in order, growing at most once.
func (v *Vec[T]) Extend(values ...T) {
	v.Reserve(len(values))
	for _, value := range values {
		*v.slot(v.len) = value
		v.len++
	}
}

// Pop removes and returns the last element. It reports false if the Vec is
// empty. Capacity is kept.
func (v *Vec[T]) Pop() (T, bool) {
	if v.len == 0 {
		var zero T
		return zero, false
	}
	v.len--
	return *v.slot(v.len), true
}

// At returns the element at i. It panics if i is out of range.
func (v *Vec[T]) At(i int) T {
	return v.Slice()[i]
}

// Set tears down the element at i and replaces it with value. It panics if
// i is out of range.
func (v *Vec[T]) Set(i int, value T) {
	p := &v.Slice()[i]
	raw.Drop(p)
	*p = value
}

// Ptr returns a pointer to the element at i, valid until the Vec grows.
func (v *Vec[T]) Ptr(i int) *T {
	return &v.Slice()[i]
}

// Slice returns the elements as a slice that aliases the backing block. It
// is invalidated by any operation that grows the Vec.
func (v *Vec[T]) Slice() []T {
	if v.ptr == nil {
		return nil
	}
	return unsafe.Slice((*T)(v.ptr), v.len)
}

// All iterates over the elements with their indices.
func (v *Vec[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < v.len; i++ {
			if !yield(i, *v.slot(i)) {
				return
			}
		}
	}
}

// Truncate tears down the elements from n onwards and shortens the Vec to n.
// It does nothing if n >= Len.
func (v *Vec[T]) Truncate(n int) {
	if n < 0 {
		panic("vec: negative length")
	}
	for v.len > n {
		v.len--
		raw.Drop(v.slot(v.len))
	}
}

// Reserve makes room for at least additional more elements. The new capacity
// is max(2*Cap, Cap+additional), so repeated pushes run in amortized O(1).
// An overflowing size panics with an error wrapping ErrCapacityOverflow; a
// failed allocation invokes the OOM handler.
func (v *Vec[T]) Reserve(additional int) {
	if additional < 0 {
		panic("vec: negative reserve")
	}
	if v.cap-v.len >= additional {
		return
	}
	if raw.IsZeroSize[T]() {
		// Zero-size elements never need memory, so only the length can overflow.
		capacityOverflow(v.len, additional)
	}

	newCap, ok := amortizedNewCapacity(v.cap, additional)
	if !ok {
		capacityOverflow(v.cap, additional)
	}
	newLayout, err := allocmany.ArrayOf[T](newCap)
	if err != nil {
		panic(err)
	}

	var p unsafe.Pointer
	if v.cap == 0 {
		p = v.alloc.Alloc(newLayout)
	} else {
		p = v.alloc.Realloc(v.ptr, v.currentLayout(), newLayout.Size())
	}
	if p == nil {
		allocmany.HandleAllocError(newLayout)
	}
	v.ptr = p
	v.cap = newCap
}

// Drop tears down every element and gives the backing block back. The Vec
// is left empty and may be reused.
func (v *Vec[T]) Drop() {
	v.Truncate(0)
	if raw.IsZeroSize[T]() || v.cap == 0 {
		return
	}
	v.alloc.Dealloc(v.ptr, v.currentLayout())
	v.ptr = nil
	v.cap = 0
}

func (v *Vec[T]) slot(i int) *T {
	return (*T)(unsafe.Add(v.ptr, uintptr(i)*unsafe.Sizeof(*(*T)(nil))))
}

// currentLayout is the layout the live block was allocated with; it is only
// meaningful while cap > 0.
func (v *Vec[T]) currentLayout() allocmany.Layout {
	l, err := allocmany.ArrayOf[T](v.cap)
	if err != nil {
		// cap was reached through ArrayOf, so this cannot fail.
		panic(err)
	}
	return l
}

func amortizedNewCapacity(curr, additional int) (int, bool) {
	if curr > math.MaxInt/2 || additional > math.MaxInt-curr {
		return 0, false
	}
	return max(2*curr, curr+additional), true
}

func capacityOverflow(curr, additional int) {
	panic(errors.Wrapf(allocmany.ErrCapacityOverflow, "growing %d elements by %d", curr, additional))
}
