// Package images - This file contains the frame-differencing motion estimator
// using OpenCV (via gocv).
//
// The MotionEstimator scores how much of a frame changed relative to its
// predecessor:
//
// ┌───────────────────────────┐
// │ Previous / current (gray) │
// └──────┬────────────────────┘
// ┌────────────────────────────┐
// │ Absolute difference        │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Threshold (noise floor)    │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Count changed / total      │
// └────────────────────────────┘
//
// Usage:
//
//	est := images.NewMotionEstimator(images.DefaultNoiseThreshold)
//	defer est.Close()
//
//	score, err := est.Score(prevGray, currGray)
//
// Note: You must call Close() when finished to release native resources.
package images

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// DefaultNoiseThreshold is the per-pixel absolute intensity difference (0-255)
// that a pixel must exceed to count as changed.
const DefaultNoiseThreshold = 10

// ErrDimensionMismatch is returned when two frames that must be compared have
// different sizes or channel counts.
var ErrDimensionMismatch = errors.New("frame dimensions differ")

// MotionEstimator computes the fraction of pixels that changed between two
// consecutive grayscale frames.
//
// This struct reuses its intermediate matrices across calls, so it is cheap to
// call once per frame in a decode loop. It is not safe for concurrent use.
// Always call Close() when done to release native resources.
type MotionEstimator struct {
	// NoiseThreshold is the absolute difference a pixel must exceed to be counted.
	NoiseThreshold float32

	delta   gocv.Mat // Absolute difference of the two frames.
	changed gocv.Mat // Binary mask of pixels above the noise threshold.
}

// NewMotionEstimator constructs a MotionEstimator with initialized OpenCV matrices.
//
// Arguments:
//   - noiseThreshold: Pixel difference (0-255) that must be exceeded to count as change.
//
// Returns:
//   - *MotionEstimator: The estimator, ready for use.
func NewMotionEstimator(noiseThreshold float32) *MotionEstimator {
	return &MotionEstimator{
		NoiseThreshold: noiseThreshold,
		delta:          gocv.NewMat(),
		changed:        gocv.NewMat(),
	}
}

// Score returns the motion score between prev and curr: the number of pixels whose
// absolute difference exceeds the noise threshold divided by the total pixel count.
//
// Arguments:
//   - prev: The earlier grayscale (CV8UC1) frame.
//   - curr: The later grayscale (CV8UC1) frame, same size as prev.
//
// Returns:
//   - float64: A value in [0, 1].
//   - error: ErrDimensionMismatch if the frames cannot be compared.
func (m *MotionEstimator) Score(prev, curr gocv.Mat) (float64, error) {
	if prev.Empty() || curr.Empty() {
		return 0, errors.New("cannot score an empty frame")
	}
	if prev.Rows() != curr.Rows() || prev.Cols() != curr.Cols() {
		return 0, errors.Wrapf(ErrDimensionMismatch, "%dx%d vs %dx%d",
			prev.Cols(), prev.Rows(), curr.Cols(), curr.Rows())
	}
	if prev.Channels() != 1 || curr.Channels() != 1 {
		return 0, errors.Wrapf(ErrDimensionMismatch, "expected single-channel frames, got %d and %d channels",
			prev.Channels(), curr.Channels())
	}

	gocv.AbsDiff(prev, curr, &m.delta)
	// ThresholdBinary keeps strictly greater values, matching "exceeds".
	gocv.Threshold(m.delta, &m.changed, m.NoiseThreshold, 255, gocv.ThresholdBinary)

	total := m.changed.Rows() * m.changed.Cols()
	if total == 0 {
		return 0, nil
	}
	return float64(gocv.CountNonZero(m.changed)) / float64(total), nil
}

// ToGray writes a single-channel grayscale copy of src into dst. BGR and BGRA
// frames are converted; frames that are already single-channel are copied.
//
// Arguments:
//   - src: The decoded frame.
//   - dst: Destination Mat, reallocated as needed.
//
// Returns:
//   - error: An error if the frame has an unsupported channel count.
func ToGray(src gocv.Mat, dst *gocv.Mat) error {
	switch src.Channels() {
	case 1:
		src.CopyTo(dst)
	case 3:
		gocv.CvtColor(src, dst, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(src, dst, gocv.ColorBGRAToGray)
	default:
		return errors.Errorf("unsupported channel count %d", src.Channels())
	}
	return nil
}

// Close releases all OpenCV native resources used by the estimator.
func (m *MotionEstimator) Close() {
	m.delta.Close()
	m.changed.Close()
}
