// Package allocmany lets values and collections be placed in memory drawn from
// an explicit allocator instead of the Go heap.
//
// # Overview
//
// An Allocator hands out raw blocks described by a Layout (size and
// alignment) and takes them back through Dealloc. Typed containers are
// built on top of it:
//
//   - boxed.Box holds a single value in allocator memory
//   - vec.Vec is a growable array whose elements live in allocator memory
//   - bump.Arena is a fixed-capacity, lock-free allocator that never frees
//   - HeapAllocator is a reclaiming allocator backed by the Go heap
//
// # Basic Usage
//
//	var scratch = bump.MustNew(4096) // created once, lives forever
//
//	b := boxed.New(scratch, int32(42))
//	v := vec.New[uint64](scratch)
//	v.Extend(1, 2, 3)
//
// Several arenas may coexist; each container remembers the one it was
// created with.
//
// # Out of Memory
//
// Containers treat a nil block as exhaustion and call HandleAllocError,
// which runs the process-wide handler installed with SetOOMHandler. The
// default handler logs the failed Layout and panics with an *AllocError.
// A handler must not return.
//
// # Garbage Collection
//
// Allocator memory is not scanned by the garbage collector. Element types
// that contain Go pointers (strings, slices, maps, interfaces, channels,
// funcs or pointers) are rejected with a panic wrapping ErrPointerType.
// Zero-size types never reach the allocator.
//
// # Important Notes
//
//   - A bump arena's Dealloc is a no-op; released bytes are never reused
//   - Growing a Vec on a bump arena retires the old block for good
//   - Boxes and Vecs are not safe for concurrent use; arenas are
//   - Call Drop to run element teardown (the Dropper interface) and give
//     memory back to reclaiming allocators
package allocmany
