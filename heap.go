package allocmany

import (
	"fmt"
	"sync"
	"unsafe"
)

// MaxHeapBlockSize bounds the backing slice of a single block, alignment slack
// included.
const MaxHeapBlockSize = 1 << 40

// HeapAllocator is a reclaiming Allocator backed by Go heap slices. Unlike an
// arena it gives memory back on Dealloc, so it doubles as a reference for
// checking that callers deallocate what they allocate.
//
// All operations are safe for concurrent use.
type HeapAllocator struct {
	mu     sync.Mutex
	blocks map[uintptr]heapBlock
	limit  uint64
	live   uint64
	peak   uint64
	allocs uint64
	frees  uint64
}

type heapBlock struct {
	buf    []byte // keeps the backing array reachable
	layout Layout
}

// NewHeapAllocator returns a HeapAllocator that refuses requests once limit
// live bytes are in use. A limit of 0 means unlimited.
func NewHeapAllocator(limit uint64) *HeapAllocator {
	return &HeapAllocator{
		blocks: make(map[uintptr]heapBlock),
		limit:  limit,
	}
}

// Alloc returns a fresh block for l, or nil if l is empty, larger than
// MaxHeapBlockSize or past the limit.
func (h *HeapAllocator) Alloc(l Layout) unsafe.Pointer {
	if l.size == 0 || l.size+l.align-1 > MaxHeapBlockSize {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.limit > 0 && h.live+uint64(l.size) > h.limit {
		return nil
	}

	// Over-allocate so that an aligned start always fits.
	buf := make([]byte, l.size+l.align-1)
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	shift := alignUp(addr, l.align) - addr
	p := unsafe.Pointer(&buf[shift])

	h.blocks[uintptr(p)] = heapBlock{buf: buf, layout: l}
	h.live += uint64(l.size)
	h.peak = max(h.peak, h.live)
	h.allocs++
	return p
}

// Dealloc releases the block at p. It panics if p was not returned by this
// allocator for a layout equal to l.
func (h *HeapAllocator) Dealloc(p unsafe.Pointer, l Layout) {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.blocks[uintptr(p)]
	if !ok {
		panic(fmt.Sprintf("allocmany: dealloc of unknown pointer %p", p))
	}
	if b.layout != l {
		panic(fmt.Sprintf("allocmany: dealloc of %p with layout %s, allocated with %s", p, l, b.layout))
	}
	delete(h.blocks, uintptr(p))
	h.live -= uint64(l.size)
	h.frees++
}

// AllocZeroed is Alloc with the block cleared.
func (h *HeapAllocator) AllocZeroed(l Layout) unsafe.Pointer {
	// make already zeroes, but keep the contract explicit.
	return AllocZeroedDefault(h, l)
}

// Realloc moves the block at p into a fresh block of newSize bytes.
func (h *HeapAllocator) Realloc(p unsafe.Pointer, l Layout, newSize uintptr) unsafe.Pointer {
	return ReallocDefault(h, p, l, newSize)
}

// HeapStats is a snapshot of a HeapAllocator's accounting.
type HeapStats struct {
	LiveBytes  uint64 // Bytes currently allocated
	LiveBlocks int    // Blocks currently allocated
	PeakBytes  uint64 // High-water mark of LiveBytes
	Allocs     uint64 // Successful allocations
	Frees      uint64 // Deallocations
}

// Stats returns a snapshot of the allocator's accounting.
func (h *HeapAllocator) Stats() HeapStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return HeapStats{
		LiveBytes:  h.live,
		LiveBlocks: len(h.blocks),
		PeakBytes:  h.peak,
		Allocs:     h.allocs,
		Frees:      h.frees,
	}
}
