package inference

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-stillpose/images"
)

// ScoreMap holds a classifier's raw per-class scores (logits) laid out as
// classes x height x width.
type ScoreMap struct {
	dense   *tensor.Dense
	data    []float32
	classes int
	height  int
	width   int
}

// NewScoreMap wraps data without copying it.
//
// Arguments:
//   - classes: Number of score planes.
//   - height: Plane height.
//   - width: Plane width.
//   - data: classes*height*width scores, class-major.
//
// Returns:
//   - *ScoreMap: The score map.
//   - error: An error if the data does not match the shape.
func NewScoreMap(classes, height, width int, data []float32) (*ScoreMap, error) {
	if classes <= 0 || height <= 0 || width <= 0 {
		return nil, errors.Errorf("invalid score map shape %dx%dx%d", classes, height, width)
	}
	if len(data) != classes*height*width {
		return nil, errors.Errorf("score map holds %d values, shape %dx%dx%d needs %d",
			len(data), classes, height, width, classes*height*width)
	}
	return &ScoreMap{
		dense:   tensor.New(tensor.WithShape(classes, height, width), tensor.WithBacking(data)),
		data:    data,
		classes: classes,
		height:  height,
		width:   width,
	}, nil
}

// Classes returns the number of score planes.
func (s *ScoreMap) Classes() int { return s.classes }

// Height returns the plane height.
func (s *ScoreMap) Height() int { return s.height }

// Width returns the plane width.
func (s *ScoreMap) Width() int { return s.width }

// Argmax returns, for each pixel in row-major order, the class with the highest
// score. Ties resolve to the lowest class index.
func (s *ScoreMap) Argmax() ([]int, error) {
	am, err := s.dense.Argmax(0)
	if err != nil {
		return nil, errors.Wrap(err, "argmax over classes failed")
	}
	labels, ok := am.Data().([]int)
	if !ok {
		return nil, errors.Errorf("unexpected argmax data type %T", am.Data())
	}
	return labels, nil
}

// ClassMask returns a mask whose foreground is every pixel whose argmax class is
// class.
//
// Arguments:
//   - class: The class index to keep.
//
// Returns:
//   - *images.Mask: A width x height mask owned by the caller.
//   - error: An error if class is out of range or argmax fails.
func (s *ScoreMap) ClassMask(class int) (*images.Mask, error) {
	if class < 0 || class >= s.classes {
		return nil, errors.Errorf("class %d out of range for %d classes", class, s.classes)
	}
	labels, err := s.Argmax()
	if err != nil {
		return nil, err
	}
	pixels := make([]byte, len(labels))
	for i, l := range labels {
		if l == class {
			pixels[i] = images.Foreground
		}
	}
	return images.MaskFromBytes(s.width, s.height, pixels)
}

// Probability returns the softmax probability of class at pixel (x, y).
func (s *ScoreMap) Probability(class, x, y int) float32 {
	plane := s.height * s.width
	offset := y*s.width + x

	peak := s.data[offset]
	for c := 1; c < s.classes; c++ {
		if v := s.data[c*plane+offset]; v > peak {
			peak = v
		}
	}
	var sum float32
	for c := 0; c < s.classes; c++ {
		sum += math32.Exp(s.data[c*plane+offset] - peak)
	}
	return math32.Exp(s.data[class*plane+offset]-peak) / sum
}

// MeanProbability averages the softmax probability of class over the foreground
// of mask. It returns 0 for a blank mask.
//
// Arguments:
//   - class: The class index.
//   - mask: A mask with the same size as the score map.
//
// Returns:
//   - float32: The mean probability in [0, 1].
//   - error: An error if the mask size differs from the score map.
func (s *ScoreMap) MeanProbability(class int, mask *images.Mask) (float32, error) {
	if class < 0 || class >= s.classes {
		return 0, errors.Errorf("class %d out of range for %d classes", class, s.classes)
	}
	if mask.Width() != s.width || mask.Height() != s.height {
		return 0, errors.Errorf("mask is %dx%d, score map is %dx%d",
			mask.Width(), mask.Height(), s.width, s.height)
	}

	var (
		sum   float32
		count int
	)
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			if !mask.At(x, y) {
				continue
			}
			sum += s.Probability(class, x, y)
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return sum / float32(count), nil
}
