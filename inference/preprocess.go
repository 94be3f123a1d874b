package inference

import (
	"image"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-stillpose/images"
)

// Normalization describes how an image is turned into a model input tensor.
type Normalization struct {
	// ShortSide is the length the shorter image side is resized to.
	ShortSide int `json:"short_side" yaml:"short_side"`
	// Mean is subtracted per RGB channel after scaling to [0, 1].
	Mean [3]float32 `json:"mean" yaml:"mean"`
	// Std divides each RGB channel after mean subtraction.
	Std [3]float32 `json:"std" yaml:"std"`
}

// ImageNetNormalization returns the ImageNet statistics with the given short side.
func ImageNetNormalization(shortSide int) Normalization {
	return Normalization{
		ShortSide: shortSide,
		Mean:      [3]float32{0.485, 0.456, 0.406},
		Std:       [3]float32{0.229, 0.224, 0.225},
	}
}

// Validate checks that the resize target is positive and no std is zero.
func (n Normalization) Validate() error {
	if n.ShortSide <= 0 {
		return errors.Errorf("short side must be positive, got %d", n.ShortSide)
	}
	for i, s := range n.Std {
		if s == 0 {
			return errors.Errorf("std of channel %d is zero", i)
		}
	}
	return nil
}

// PrepareInput prepares an image for a pixel classifier: short-side resize,
// RGB planes scaled to [0, 1], then standardized per channel.
//
// Arguments:
//   - img: The RGB image to prepare.
//   - norm: The resize and normalization parameters.
//
// Returns:
//   - Tensor: A 3-channel CHW tensor at the resized size.
//   - error: An error if the input preparation fails.
func PrepareInput(img image.Image, norm Normalization) (Tensor, error) {
	if err := norm.Validate(); err != nil {
		return Tensor{}, err
	}
	resized, err := images.ResizeShortSide(img, norm.ShortSide)
	if err != nil {
		return Tensor{}, errors.Wrap(err, "failed to resize input")
	}

	b := resized.Bounds()
	w, h := b.Dx(), b.Dy()
	channelSize := w * h
	data := make([]float32, channelSize*3)
	red := data[0:channelSize]
	green := data[channelSize : channelSize*2]
	blue := data[channelSize*2 : channelSize*3]

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := resized.At(x, y).RGBA()
			red[i] = (float32(r>>8)/255.0 - norm.Mean[0]) / norm.Std[0]
			green[i] = (float32(g>>8)/255.0 - norm.Mean[1]) / norm.Std[1]
			blue[i] = (float32(bl>>8)/255.0 - norm.Mean[2]) / norm.Std[2]
			i++
		}
	}
	return NewTensor(3, h, w, data)
}
