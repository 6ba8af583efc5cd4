package allocmany

import (
	"fmt"
	"math"
	"math/bits"
	"unsafe"

	"github.com/pkg/errors"
)

// Layout describes the size and alignment of a block of memory.
// The zero Layout is invalid; build one with NewLayout, LayoutOf or ArrayOf.
type Layout struct {
	size  uintptr
	align uintptr
}

// NewLayout returns a Layout for size bytes aligned to align.
// align must be a non-zero power of two and size, rounded up to align,
// must not overflow.
func NewLayout(size, align uintptr) (Layout, error) {
	if align == 0 || align&(align-1) != 0 {
		return Layout{}, errors.Wrapf(ErrInvalidLayout, "alignment %d is not a power of two", align)
	}
	if size > math.MaxUint-(align-1) {
		return Layout{}, errors.Wrapf(ErrInvalidLayout, "size %d overflows when aligned to %d", size, align)
	}
	return Layout{size: size, align: align}, nil
}

// MustLayout is like NewLayout but panics on an invalid layout.
func MustLayout(size, align uintptr) Layout {
	l, err := NewLayout(size, align)
	if err != nil {
		panic(err)
	}
	return l
}

// LayoutOf returns the layout of a single T.
func LayoutOf[T any]() Layout {
	var zero T
	return Layout{size: unsafe.Sizeof(zero), align: unsafe.Alignof(zero)}
}

// ArrayOf returns the layout of n contiguous T slots.
func ArrayOf[T any](n int) (Layout, error) {
	if n < 0 {
		return Layout{}, errors.Wrapf(ErrCapacityOverflow, "negative element count %d", n)
	}
	l, _, err := LayoutOf[T]().Repeat(uintptr(n))
	if err != nil {
		return Layout{}, err
	}
	if l.size > math.MaxInt {
		return Layout{}, errors.Wrapf(ErrCapacityOverflow, "%d elements need %d bytes", n, l.size)
	}
	return l, nil
}

// Size returns the size in bytes.
func (l Layout) Size() uintptr { return l.size }

// Align returns the alignment in bytes.
func (l Layout) Align() uintptr { return l.align }

// PaddingNeededFor returns the number of bytes that must follow l so that the
// next address is a multiple of align.
func (l Layout) PaddingNeededFor(align uintptr) uintptr {
	return alignUp(l.size, align) - l.size
}

// Repeat returns the layout of n copies of l laid out back to back, each padded
// to l's alignment, together with the distance between consecutive copies.
func (l Layout) Repeat(n uintptr) (Layout, uintptr, error) {
	padded, carry := bits.Add(uint(l.size), uint(l.PaddingNeededFor(l.align)), 0)
	if carry != 0 {
		return Layout{}, 0, errors.Wrapf(ErrCapacityOverflow, "padding %s", l)
	}
	hi, total := bits.Mul(padded, uint(n))
	if hi != 0 {
		return Layout{}, 0, errors.Wrapf(ErrCapacityOverflow, "%d copies of %s", n, l)
	}
	return Layout{size: uintptr(total), align: l.align}, uintptr(padded), nil
}

func (l Layout) String() string {
	return fmt.Sprintf("size=%d align=%d", l.size, l.align)
}

// alignUp rounds off up to the next multiple of align, which must be a power of two.
func alignUp(off, align uintptr) uintptr {
	mask := align - 1
	return (off + mask) &^ mask
}
