package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestMaskFromBytes(t *testing.T) {
	data := []byte{
		0, 255, 0,
		255, 255, 0,
	}
	m, err := MaskFromBytes(3, 2, data)
	require.NoError(t, err)
	defer m.Close()

	// The mask owns a copy.
	data[1] = 0

	assert.Equal(t, 3, m.Width())
	assert.Equal(t, 2, m.Height())
	assert.Equal(t, 3, m.Area())
	assert.True(t, m.At(1, 0))
	assert.True(t, m.At(0, 1))
	assert.False(t, m.At(2, 1))

	_, err = MaskFromBytes(3, 3, data)
	assert.Error(t, err)
	_, err = MaskFromBytes(0, 2, nil)
	assert.Error(t, err)
}

func TestMask_Inverted(t *testing.T) {
	m, err := MaskFromBytes(2, 2, []byte{255, 0, 0, 0})
	require.NoError(t, err)
	defer m.Close()

	inv := m.Inverted()
	defer inv.Close()

	assert.Equal(t, 3, inv.Area())
	assert.False(t, inv.At(0, 0))
	assert.True(t, inv.At(1, 1))
	assert.Equal(t, 1, m.Area(), "inversion must not touch the source")
}

func TestNewMask(t *testing.T) {
	_, err := NewMask(gocv.NewMat())
	assert.Error(t, err)

	rgb := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8UC3)
	defer rgb.Close()
	_, err = NewMask(rgb)
	assert.Error(t, err)

	empty := NewEmptyMask(4, 4)
	defer empty.Close()
	assert.True(t, empty.IsBlank())
}

func TestMasksHoldOnlyForeground(t *testing.T) {
	boolean := []byte{
		0, 1, 0,
		1, 7, 0,
	}
	m, err := MaskFromBytes(3, 2, boolean)
	require.NoError(t, err)
	defer m.Close()
	mMat := m.Mat()
	assert.Equal(t, uint8(Foreground), mMat.GetUCharAt(0, 1))
	assert.Equal(t, uint8(Foreground), mMat.GetUCharAt(1, 1))
	assert.Equal(t, uint8(0), mMat.GetUCharAt(1, 2))

	mat, err := gocv.NewMatFromBytes(2, 3, gocv.MatTypeCV8UC1, boolean)
	require.NoError(t, err)
	wrapped, err := NewMask(mat.Clone())
	mat.Close()
	require.NoError(t, err)
	defer wrapped.Close()
	wrappedMat := wrapped.Mat()
	assert.Equal(t, uint8(Foreground), wrappedMat.GetUCharAt(1, 0))
	assert.Equal(t, 3, wrapped.Area())

	inv := m.Inverted()
	defer inv.Close()
	invMat := inv.Mat()
	assert.Equal(t, uint8(0), invMat.GetUCharAt(0, 1), "inverting a boolean mask must clear its foreground")
}
