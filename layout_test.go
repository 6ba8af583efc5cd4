package allocmany

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLayout(t *testing.T) {
	tests := []struct {
		name  string
		size  uintptr
		align uintptr
		valid bool
	}{
		{"byte", 1, 1, true},
		{"word", 8, 8, true},
		{"empty", 0, 1, true},
		{"zero alignment", 4, 0, false},
		{"alignment not a power of two", 4, 3, false},
		{"size overflows when aligned", math.MaxUint - 2, 8, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLayout(tt.size, tt.align)
			if !tt.valid {
				require.ErrorIs(t, err, ErrInvalidLayout)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.size, l.Size())
			assert.Equal(t, tt.align, l.Align())
		})
	}
}

func TestLayoutOf(t *testing.T) {
	type padded struct {
		a int64
		b int8
	}

	assert.Equal(t, MustLayout(1, 1), LayoutOf[uint8]())
	assert.Equal(t, MustLayout(4, 4), LayoutOf[int32]())
	assert.Equal(t, MustLayout(16, 8), LayoutOf[padded]())
	assert.Equal(t, MustLayout(0, 1), LayoutOf[struct{}]())
	assert.Equal(t, "size=4 align=4", LayoutOf[int32]().String())
}

func TestPaddingNeededFor(t *testing.T) {
	tests := []struct {
		size, align, want uintptr
	}{
		{0, 8, 0},
		{1, 8, 7},
		{8, 8, 0},
		{9, 4, 3},
	}
	for _, tt := range tests {
		got := MustLayout(tt.size, 1).PaddingNeededFor(tt.align)
		assert.Equal(t, tt.want, got, "PaddingNeededFor(size=%d, align=%d)", tt.size, tt.align)
	}
}

func TestRepeat(t *testing.T) {
	l, stride, err := MustLayout(6, 4).Repeat(3)
	require.NoError(t, err)
	assert.Equal(t, uintptr(8), stride)
	assert.Equal(t, MustLayout(24, 4), l)

	_, _, err = MustLayout(8, 8).Repeat(math.MaxUint / 4)
	require.ErrorIs(t, err, ErrCapacityOverflow)
}

func TestArrayOf(t *testing.T) {
	l, err := ArrayOf[uint32](10)
	require.NoError(t, err)
	assert.Equal(t, MustLayout(40, 4), l)

	l, err = ArrayOf[struct{}](math.MaxInt)
	require.NoError(t, err)
	assert.Zero(t, l.Size())

	_, err = ArrayOf[uint64](math.MaxInt / 4)
	require.ErrorIs(t, err, ErrCapacityOverflow)

	_, err = ArrayOf[uint8](-1)
	require.ErrorIs(t, err, ErrCapacityOverflow)
}

func TestAlignUp(t *testing.T) {
	tests := []struct {
		off, align, want uintptr
	}{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{5, 1, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, alignUp(tt.off, tt.align), "alignUp(%d, %d)", tt.off, tt.align)
	}
}
