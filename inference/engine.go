// Package inference - Predictor contracts and the tensors exchanged with them.
//
// Models are opaque: a PixelClassifier turns a normalized image tensor into
// per-class score planes and a PoseEstimator turns a frame into body keypoints.
// Backends live in the segmentation and pose subpackages.
package inference

import (
	"context"
	"image"
)

// PixelClassifier is a semantic segmentation model.
//
// Implementations must serialize calls that reach the accelerator; callers may
// invoke Classify from several goroutines.
type PixelClassifier interface {
	// Classify returns one score plane per class at the input's spatial size.
	Classify(ctx context.Context, input Tensor) (*ScoreMap, error)
	// Close releases the model.
	Close() error
}

// PoseEstimator is a single-person keypoint model.
type PoseEstimator interface {
	// InputSize returns the square side the model expects frames resized to.
	InputSize() int
	// Estimate returns the keypoints of the most prominent person in frame.
	Estimate(ctx context.Context, frame image.Image) ([]Keypoint, error)
	// Close releases the model.
	Close() error
}
