package inference

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Tensor is a dense float32 NCHW tensor with a batch of one.
type Tensor struct {
	// Data holds Channels*Height*Width values, channel-major.
	Data []float32
	// Channels, Height and Width describe the layout of Data.
	Channels int
	Height   int
	Width    int
}

// NewTensor validates the layout and wraps data.
func NewTensor(channels, height, width int, data []float32) (Tensor, error) {
	if channels <= 0 || height <= 0 || width <= 0 {
		return Tensor{}, errors.Errorf("invalid tensor shape %dx%dx%d", channels, height, width)
	}
	if len(data) != channels*height*width {
		return Tensor{}, errors.Errorf("tensor data holds %d values, shape %dx%dx%d needs %d",
			len(data), channels, height, width, channels*height*width)
	}
	return Tensor{Data: data, Channels: channels, Height: height, Width: width}, nil
}

// Shape returns the NCHW shape.
func (t Tensor) Shape() []int64 {
	return []int64{1, int64(t.Channels), int64(t.Height), int64(t.Width)}
}

// Plane returns the values of channel c.
func (t Tensor) Plane(c int) []float32 {
	size := t.Height * t.Width
	return t.Data[c*size : (c+1)*size]
}

// Keypoint is one body joint in normalized image coordinates.
type Keypoint struct {
	Y     float32
	X     float32
	Score float32
}

// MarshalJSON encodes the keypoint as [y, x, score].
func (k Keypoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float32{k.Y, k.X, k.Score})
}

// UnmarshalJSON decodes a [y, x, score] triple.
func (k *Keypoint) UnmarshalJSON(b []byte) error {
	var v [3]float32
	if err := json.Unmarshal(b, &v); err != nil {
		return errors.Wrap(err, "keypoint must be a [y, x, score] triple")
	}
	k.Y, k.X, k.Score = v[0], v[1], v[2]
	return nil
}
