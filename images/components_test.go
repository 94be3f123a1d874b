package images

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectLargestComponent(t *testing.T) {
	// 10x10 block (area 100) and a 5x10 block (area 50).
	in := maskWithRects(t, 60, 40,
		image.Rect(2, 2, 11, 11),
		image.Rect(40, 20, 44, 29),
	)
	defer in.Close()

	out, comp, err := SelectLargestComponent(in)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, 100, comp.Area)
	assert.Equal(t, image.Rect(2, 2, 12, 12), comp.Bounds)
	assert.Equal(t, 100, out.Area())
	assert.True(t, out.At(5, 5))
	assert.False(t, out.At(42, 25))
	assert.Equal(t, in.Size(), out.Size())
}

func TestSelectLargestComponent_TieKeepsLowestLabel(t *testing.T) {
	in := maskWithRects(t, 40, 40,
		image.Rect(25, 25, 29, 29),
		image.Rect(2, 2, 6, 6),
	)
	defer in.Close()

	out, comp, err := SelectLargestComponent(in)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, 1, comp.Label)
	assert.Equal(t, 25, comp.Area)
	// Raster order labels the top-left block first.
	assert.True(t, out.At(4, 4))
	assert.False(t, out.At(27, 27))
}

func TestSelectLargestComponent_DiagonalNeighborsConnect(t *testing.T) {
	in := NewEmptyMask(10, 10)
	defer in.Close()
	in.mat.SetUCharAt(3, 3, Foreground)
	in.mat.SetUCharAt(4, 4, Foreground)

	comps, err := Components(in)
	require.NoError(t, err)
	require.Len(t, comps, 1)
	assert.Equal(t, 2, comps[0].Area)

	out, comp, err := SelectLargestComponent(in)
	require.NoError(t, err)
	defer out.Close()
	assert.Equal(t, 2, comp.Area)
	assert.Equal(t, 2, out.Area())
}

func TestSelectLargestComponent_BlankMask(t *testing.T) {
	in := NewEmptyMask(20, 20)
	defer in.Close()

	out, _, err := SelectLargestComponent(in)
	assert.ErrorIs(t, err, ErrNoForegroundComponent)
	assert.Nil(t, out)
}

func TestComponents_ReportsEveryRegion(t *testing.T) {
	in := maskWithRects(t, 50, 50,
		image.Rect(0, 0, 3, 3),
		image.Rect(10, 10, 14, 14),
		image.Rect(30, 30, 31, 31),
	)
	defer in.Close()

	comps, err := Components(in)
	require.NoError(t, err)
	require.Len(t, comps, 3)

	areas := make([]int, 0, len(comps))
	for i, c := range comps {
		assert.Equal(t, i+1, c.Label)
		areas = append(areas, c.Area)
	}
	assert.ElementsMatch(t, []int{16, 25, 4}, areas)
}
