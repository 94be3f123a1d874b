package images

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// maskWithRects returns a width x height mask with the given rectangles filled.
// Rectangle corners are inclusive, as drawn by OpenCV.
func maskWithRects(t *testing.T, width, height int, rects ...image.Rectangle) *Mask {
	t.Helper()
	m := NewEmptyMask(width, height)
	for _, r := range rects {
		gocv.Rectangle(&m.mat, r, color.RGBA{255, 255, 255, 0}, -1)
	}
	return m
}

func newTestRefiner(t *testing.T) *MaskRefiner {
	t.Helper()
	r, err := NewMaskRefiner(DefaultRefinerConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func assertBinary(t *testing.T, m *Mask) {
	t.Helper()
	data, err := m.mat.DataPtrUint8()
	require.NoError(t, err)
	for i, v := range data {
		if v != 0 && v != Foreground {
			t.Fatalf("pixel %d has value %d, want 0 or 255", i, v)
		}
	}
}

func TestMaskRefiner_FixedPoints(t *testing.T) {
	refiner := newTestRefiner(t)

	tests := []struct {
		name string
		mask func() *Mask
	}{
		{name: "empty mask", mask: func() *Mask { return NewEmptyMask(32, 24) }},
		{name: "full mask", mask: func() *Mask { return maskWithRects(t, 32, 24, image.Rect(0, 0, 31, 23)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.mask()
			defer in.Close()

			once, err := refiner.Refine(in)
			require.NoError(t, err)
			defer once.Close()
			twice, err := refiner.Refine(once)
			require.NoError(t, err)
			defer twice.Close()

			assert.Equal(t, MaskChecksum(in), MaskChecksum(once))
			assert.Equal(t, MaskChecksum(once), MaskChecksum(twice))
		})
	}
}

func TestMaskRefiner_LeavesInputUntouched(t *testing.T) {
	refiner := newTestRefiner(t)

	in := maskWithRects(t, 40, 40, image.Rect(10, 10, 20, 20))
	defer in.Close()
	before := MaskChecksum(in)

	out, err := refiner.Refine(in)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, before, MaskChecksum(in))
	assert.Equal(t, in.Size(), out.Size())
	assertBinary(t, out)
}

func TestMaskRefiner_FillsHoles(t *testing.T) {
	refiner := newTestRefiner(t)

	in := maskWithRects(t, 40, 40, image.Rect(10, 10, 29, 29))
	defer in.Close()
	in.mat.SetUCharAt(20, 20, 0)
	require.False(t, in.At(20, 20))

	out, err := refiner.Refine(in)
	require.NoError(t, err)
	defer out.Close()

	assert.True(t, out.At(20, 20), "single-pixel hole should be filled")
}

func TestMaskRefiner_BridgesNarrowGaps(t *testing.T) {
	refiner := newTestRefiner(t)

	// Two blocks separated by a two-column gap at x=10 and x=11.
	in := maskWithRects(t, 30, 30,
		image.Rect(2, 5, 9, 24),
		image.Rect(12, 5, 19, 24),
	)
	defer in.Close()

	before, err := Components(in)
	require.NoError(t, err)
	require.Len(t, before, 2)

	out, err := refiner.Refine(in)
	require.NoError(t, err)
	defer out.Close()

	after, err := Components(out)
	require.NoError(t, err)
	assert.Len(t, after, 1)
	assertBinary(t, out)
}

func TestMaskRefiner_BooleanMask(t *testing.T) {
	refiner := newTestRefiner(t)

	data := make([]byte, 40*40)
	for y := 10; y < 30; y++ {
		for x := 10; x < 30; x++ {
			data[y*40+x] = 1
		}
	}
	in, err := MaskFromBytes(40, 40, data)
	require.NoError(t, err)
	defer in.Close()

	out, err := refiner.Refine(in)
	require.NoError(t, err)
	defer out.Close()

	assert.False(t, out.IsBlank(), "a 0/1 mask must survive refinement")
	assert.True(t, out.At(20, 20))
	assertBinary(t, out)

	sel, comp, err := SelectLargestComponent(out)
	require.NoError(t, err)
	defer sel.Close()
	assert.True(t, image.Rect(10, 10, 30, 30).In(comp.Bounds), "bounds %v lost the block", comp.Bounds)
}

func TestRefinerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  RefinerConfig
		wantErr bool
	}{
		{name: "defaults", config: DefaultRefinerConfig()},
		{name: "even blur kernel", config: RefinerConfig{BlurKernel: 4, Threshold: 30, CloseKernel: 5}, wantErr: true},
		{name: "zero close kernel", config: RefinerConfig{BlurKernel: 5, Threshold: 30, CloseKernel: 0}, wantErr: true},
		{name: "threshold out of range", config: RefinerConfig{BlurKernel: 5, Threshold: 300, CloseKernel: 5}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
