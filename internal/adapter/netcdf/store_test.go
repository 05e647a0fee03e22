package netcdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenUint16(t *testing.T) {
	t.Run("2D grid", func(t *testing.T) {
		flat, dims, err := flattenUint16([][]uint16{{1, 2, 3}, {4, 5, 6}})
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3}, dims)
		assert.Equal(t, []uint16{1, 2, 3, 4, 5, 6}, flat)
	})

	t.Run("4D slab", func(t *testing.T) {
		slab := [][][][]uint16{{
			{{1, 2}, {3, 4}, {5, 6}},
			{{7, 8}, {9, 10}, {11, 12}},
		}}
		flat, dims, err := flattenUint16(slab)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3, 2}, dims)
		assert.Equal(t, []uint16{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, flat)
	})

	t.Run("1D", func(t *testing.T) {
		flat, dims, err := flattenUint16([]uint16{9, 8})
		require.NoError(t, err)
		assert.Equal(t, []int{2}, dims)
		assert.Equal(t, []uint16{9, 8}, flat)
	})

	t.Run("wrong element type", func(t *testing.T) {
		_, _, err := flattenUint16([][]int32{{1}})
		assert.Error(t, err)
	})

	t.Run("scalar", func(t *testing.T) {
		_, _, err := flattenUint16(uint16(1))
		assert.Error(t, err)
	})

	t.Run("ragged rows", func(t *testing.T) {
		_, _, err := flattenUint16([][]uint16{{1, 2}, {3}})
		assert.Error(t, err)
	})
}
