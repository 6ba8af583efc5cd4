// Package raw holds the helpers shared by the owning collections that place
// typed values in allocator memory.
package raw

import (
	"reflect"
	"sync"
	"unsafe"
)

var pointerFree sync.Map // reflect.Type -> bool

// HasPointers reports whether values of T hold Go pointers that the garbage
// collector would have to trace.
func HasPointers[T any]() bool {
	t := reflect.TypeFor[T]()
	if v, ok := pointerFree.Load(t); ok {
		return !v.(bool)
	}
	has := hasPointers(t)
	pointerFree.Store(t, !has)
	return has
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// TypeName returns a printable name for T.
func TypeName[T any]() string {
	return reflect.TypeFor[T]().String()
}

// Drop runs the teardown of the value at p if *T implements Drop.
func Drop[T any](p *T) {
	if d, ok := any(p).(interface{ Drop() }); ok {
		d.Drop()
	}
}

// zeroBase is the address handed out for zero-size values, which never occupy
// allocator memory.
var zeroBase [0]uint64

// Dangling returns a non-nil pointer usable for zero-size T.
func Dangling[T any]() *T {
	return (*T)(unsafe.Pointer(&zeroBase))
}

// IsZeroSize reports whether T occupies no memory.
func IsZeroSize[T any]() bool {
	var zero T
	return unsafe.Sizeof(zero) == 0
}
