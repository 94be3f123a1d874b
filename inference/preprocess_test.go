package inference

import (
	"encoding/json"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(width, height int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestPrepareInput(t *testing.T) {
	norm := ImageNetNormalization(52)
	in, err := PrepareInput(solidImage(64, 48, color.RGBA{R: 255, G: 0, B: 128, A: 255}), norm)
	require.NoError(t, err)

	assert.Equal(t, 3, in.Channels)
	assert.Equal(t, 52, in.Height)
	assert.Equal(t, 69, in.Width)
	assert.Equal(t, []int64{1, 3, 52, 69}, in.Shape())
	assert.Len(t, in.Data, 3*52*69)

	assert.InDelta(t, (1.0-0.485)/0.229, in.Plane(0)[100], 1e-4)
	assert.InDelta(t, (0.0-0.456)/0.224, in.Plane(1)[100], 1e-4)
	assert.InDelta(t, (128.0/255.0-0.406)/0.225, in.Plane(2)[100], 1e-4)
}

func TestPrepareInput_InvalidNormalization(t *testing.T) {
	img := solidImage(4, 4, color.RGBA{A: 255})

	_, err := PrepareInput(img, Normalization{ShortSide: 0, Std: [3]float32{1, 1, 1}})
	assert.Error(t, err)

	_, err = PrepareInput(img, Normalization{ShortSide: 4, Std: [3]float32{1, 0, 1}})
	assert.Error(t, err)
}

func TestKeypointJSON(t *testing.T) {
	b, err := json.Marshal([]Keypoint{{Y: 0.25, X: 0.5, Score: 0.75}})
	require.NoError(t, err)
	assert.JSONEq(t, `[[0.25, 0.5, 0.75]]`, string(b))

	var k Keypoint
	assert.Error(t, json.Unmarshal([]byte(`{"y": 1}`), &k))
}

func TestNewTensor(t *testing.T) {
	_, err := NewTensor(3, 2, 2, make([]float32, 11))
	assert.Error(t, err)

	tensor, err := NewTensor(1, 2, 2, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, tensor.Plane(0))
}
