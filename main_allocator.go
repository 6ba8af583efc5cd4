package allocmany

import "go.uber.org/atomic"

var mainAllocator = atomic.NewPointer[Allocator](nil)

// SetMainAllocator makes a the allocator used by constructors that do not
// name one. Passing nil unsets it.
func SetMainAllocator(a Allocator) {
	if a == nil {
		mainAllocator.Store(nil)
		return
	}
	mainAllocator.Store(&a)
}

// MainAllocator returns the allocator set with SetMainAllocator.
// It panics with ErrNoMainAllocator if none has been set.
func MainAllocator() Allocator {
	p := mainAllocator.Load()
	if p == nil {
		panic(ErrNoMainAllocator)
	}
	return *p
}
