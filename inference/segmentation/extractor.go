// Package segmentation extracts the person foreground of a frame with a
// semantic segmentation model.
//
// Flow:
//
//	frame (BGR Mat) -> RGB image -> short-side resize + ImageNet normalize
//	-> PixelClassifier -> argmax over classes -> person mask
package segmentation

import (
	"context"
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-stillpose/images"
	"github.com/nvr-ai/go-stillpose/inference"
	"github.com/nvr-ai/go-stillpose/models"
)

// Config holds the extractor tunables.
type Config struct {
	// ShortSide is the length the shorter frame side is resized to before inference.
	ShortSide int `json:"short_side" yaml:"short_side"`
	// PersonLabel names the foreground class in the Pascal VOC label set.
	PersonLabel string `json:"person_label" yaml:"person_label"`
}

// DefaultConfig returns a 520 short side and the VOC "person" class.
func DefaultConfig() Config {
	return Config{
		ShortSide:   520,
		PersonLabel: "person",
	}
}

// Extraction is the result of running the extractor on one frame.
type Extraction struct {
	// Mask is the raw person mask at the resized frame size.
	Mask *images.Mask
	// Class is the label index the mask was built from.
	Class int
	// Confidence is the mean person probability over the mask, 0 for a blank mask.
	Confidence float32
}

// Close releases the mask.
func (e *Extraction) Close() error {
	if e == nil {
		return nil
	}
	return e.Mask.Close()
}

// Extractor turns frames into raw person masks using a PixelClassifier.
// It is safe for concurrent use when the classifier is.
type Extractor struct {
	classifier inference.PixelClassifier
	norm       inference.Normalization
	class      int
}

// NewExtractor resolves the person class and binds the classifier.
//
// Arguments:
//   - classifier: The segmentation model.
//   - cfg: The extractor configuration.
//
// Returns:
//   - *Extractor: The extractor.
//   - error: An error if the label is unknown or the short side invalid.
func NewExtractor(classifier inference.PixelClassifier, cfg Config) (*Extractor, error) {
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	class, err := models.PascalVOCClasses.IndexOf(cfg.PersonLabel)
	if err != nil {
		return nil, errors.Wrap(err, "unknown person label")
	}
	norm := inference.ImageNetNormalization(cfg.ShortSide)
	if err := norm.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{
		classifier: classifier,
		norm:       norm,
		class:      class,
	}, nil
}

// Extract runs segmentation on a decoded BGR frame.
//
// Arguments:
//   - ctx: Passed to the classifier.
//   - frame: The decoded frame.
//
// Returns:
//   - *Extraction: The person mask, owned by the caller.
//   - error: An error if conversion or prediction fails.
func (e *Extractor) Extract(ctx context.Context, frame gocv.Mat) (*Extraction, error) {
	if frame.Empty() {
		return nil, errors.New("cannot extract from an empty frame")
	}
	// ToImage reorders BGR to RGB.
	img, err := frame.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert frame")
	}
	return e.ExtractImage(ctx, img)
}

// ExtractImage runs segmentation on an RGB image.
func (e *Extractor) ExtractImage(ctx context.Context, img image.Image) (*Extraction, error) {
	input, err := inference.PrepareInput(img, e.norm)
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare input")
	}

	scores, err := e.classifier.Classify(ctx, input)
	if err != nil {
		return nil, errors.Wrap(err, "classifier failed")
	}
	if scores.Width() != input.Width || scores.Height() != input.Height {
		return nil, errors.Errorf("classifier returned %dx%d scores for a %dx%d input",
			scores.Width(), scores.Height(), input.Width, input.Height)
	}

	mask, err := scores.ClassMask(e.class)
	if err != nil {
		return nil, err
	}
	confidence, err := scores.MeanProbability(e.class, mask)
	if err != nil {
		mask.Close()
		return nil, err
	}
	return &Extraction{Mask: mask, Class: e.class, Confidence: confidence}, nil
}
