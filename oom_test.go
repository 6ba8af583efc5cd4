package allocmany

import (
	"bytes"
	"testing"

	"github.com/go-kit/log"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleAllocErrorDefault(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(log.NewLogfmtLogger(&buf))
	t.Cleanup(func() { SetLogger(nil) })

	l := MustLayout(16, 8)
	defer func() {
		r := recover()
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)

		var allocErr *AllocError
		require.True(t, errors.As(err, &allocErr))
		assert.Equal(t, l, allocErr.Layout)
		assert.ErrorIs(t, err, ErrAllocationFailure)
		assert.Contains(t, buf.String(), `msg="out of memory" size=16 align=8`)
	}()
	HandleAllocError(l)
}

func TestSetOOMHandler(t *testing.T) {
	type oomPanic struct{ layout Layout }

	var seen []Layout
	first := func(l Layout) {
		seen = append(seen, l)
		panic(oomPanic{l})
	}
	require.Nil(t, SetOOMHandler(first))
	t.Cleanup(func() { SetOOMHandler(nil) })

	l := MustLayout(4, 4)
	require.PanicsWithValue(t, oomPanic{l}, func() { HandleAllocError(l) })
	assert.Equal(t, []Layout{l}, seen)

	prev := SetOOMHandler(nil)
	require.NotNil(t, prev)
	require.PanicsWithValue(t, oomPanic{l}, func() { prev(l) })
}

func TestHandleAllocErrorWhenHandlerReturns(t *testing.T) {
	calls := 0
	SetOOMHandler(func(Layout) { calls++ })
	t.Cleanup(func() { SetOOMHandler(nil) })

	require.PanicsWithError(t, "oom handler returned: memory allocation of size=1 align=1 failed", func() {
		HandleAllocError(MustLayout(1, 1))
	})
	assert.Equal(t, 1, calls)
}

func TestMainAllocator(t *testing.T) {
	require.PanicsWithValue(t, ErrNoMainAllocator, func() { MainAllocator() })

	h := NewHeapAllocator(0)
	SetMainAllocator(h)
	t.Cleanup(func() { SetMainAllocator(nil) })
	assert.Same(t, h, MainAllocator())
}
