package images

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// RefinerConfig holds the tunables of the mask cleanup stage.
type RefinerConfig struct {
	// BlurKernel is the side of the square Gaussian kernel. Must be odd.
	BlurKernel int `json:"blur_kernel" yaml:"blur_kernel"`
	// Threshold is the intensity (0-255) above which a blurred pixel becomes foreground.
	Threshold float32 `json:"threshold" yaml:"threshold"`
	// CloseKernel is the side of the elliptical closing kernel.
	CloseKernel int `json:"close_kernel" yaml:"close_kernel"`
}

// DefaultRefinerConfig returns the 5x5 blur, threshold 30 and 5x5 ellipse close
// used for person silhouettes.
func DefaultRefinerConfig() RefinerConfig {
	return RefinerConfig{
		BlurKernel:  5,
		Threshold:   30,
		CloseKernel: 5,
	}
}

// Validate checks that the kernel sizes and threshold are usable by OpenCV.
func (c RefinerConfig) Validate() error {
	if c.BlurKernel <= 0 || c.BlurKernel%2 == 0 {
		return errors.Errorf("blur kernel must be a positive odd number, got %d", c.BlurKernel)
	}
	if c.CloseKernel <= 0 {
		return errors.Errorf("close kernel must be positive, got %d", c.CloseKernel)
	}
	if c.Threshold < 0 || c.Threshold >= 255 {
		return errors.Errorf("threshold must be in [0, 255), got %v", c.Threshold)
	}
	return nil
}

// MaskRefiner smooths a raw segmentation mask: Gaussian blur, re-binarize and a
// morphological close. Ragged edges are softened and small gaps inside the
// silhouette are filled.
//
// A MaskRefiner holds a native structuring element and must be closed. It is
// safe for concurrent use since Refine only reads that element.
type MaskRefiner struct {
	config RefinerConfig
	kernel gocv.Mat
}

// NewMaskRefiner validates config and builds the closing kernel.
//
// Arguments:
//   - config: The refinement parameters.
//
// Returns:
//   - *MaskRefiner: The refiner.
//   - error: An error if config is invalid.
func NewMaskRefiner(config RefinerConfig) (*MaskRefiner, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid refiner config")
	}
	return &MaskRefiner{
		config: config,
		kernel: gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(config.CloseKernel, config.CloseKernel)),
	}, nil
}

// Config returns the refinement parameters.
func (r *MaskRefiner) Config() RefinerConfig {
	return r.config
}

// Refine returns a new mask; the input is left untouched.
//
// Arguments:
//   - mask: The raw binary mask.
//
// Returns:
//   - *Mask: The refined mask, same size as the input, values 0 or 255.
//   - error: An error if the input is nil.
func (r *MaskRefiner) Refine(mask *Mask) (*Mask, error) {
	if mask == nil {
		return nil, errors.New("cannot refine a nil mask")
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	ksize := image.Pt(r.config.BlurKernel, r.config.BlurKernel)
	gocv.GaussianBlur(mask.mat, &blurred, ksize, 0, 0, gocv.BorderDefault)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(blurred, &binary, r.config.Threshold, Foreground, gocv.ThresholdBinary)

	closed := gocv.NewMat()
	gocv.MorphologyEx(binary, &closed, gocv.MorphClose, r.kernel)

	return &Mask{mat: closed}, nil
}

// Close releases the structuring element.
func (r *MaskRefiner) Close() error {
	return r.kernel.Close()
}
