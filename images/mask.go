package images

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Foreground is the pixel value used for foreground pixels in a Mask.
const Foreground = 255

// Mask is a binary, single-channel 8-bit image: Foreground (255) marks the
// subject and 0 marks background.
//
// Every processing stage returns a new Mask instead of mutating its input, so
// each stage can be tested on its own. The caller owns every Mask it receives
// and must Close it.
type Mask struct {
	mat gocv.Mat
}

// NewMask takes ownership of mat and wraps it as a Mask. Every non-zero pixel
// is set to Foreground, so boolean 0/1 masks are accepted as well as 0/255.
//
// Arguments:
//   - mat: A CV8UC1 matrix whose non-zero pixels are foreground.
//
// Returns:
//   - *Mask: The wrapped mask.
//   - error: An error if mat is empty or not single-channel 8-bit.
func NewMask(mat gocv.Mat) (*Mask, error) {
	if mat.Empty() {
		return nil, errors.New("mask matrix is empty")
	}
	if mat.Type() != gocv.MatTypeCV8UC1 {
		return nil, errors.Errorf("mask must be CV8UC1, got %v", mat.Type())
	}
	binarize(mat, &mat)
	return &Mask{mat: mat}, nil
}

// NewEmptyMask allocates an all-background mask of the given size.
func NewEmptyMask(width, height int) *Mask {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC1)
	mat.SetTo(gocv.NewScalar(0, 0, 0, 0))
	return &Mask{mat: mat}
}

// MaskFromBytes builds a mask from row-major pixel data. The data is copied, so
// the caller may reuse the slice afterwards.
//
// Arguments:
//   - width: Mask width in pixels.
//   - height: Mask height in pixels.
//   - data: width*height bytes; non-zero bytes become Foreground.
//
// Returns:
//   - *Mask: The new mask.
//   - error: An error if the data length does not match the dimensions.
func MaskFromBytes(width, height int, data []byte) (*Mask, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid mask dimensions: %dx%d", width, height)
	}
	if len(data) != width*height {
		return nil, errors.Errorf("mask data holds %d bytes, needs %d", len(data), width*height)
	}
	view, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC1, data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create mask matrix")
	}
	defer view.Close()

	// NewMatFromBytes may alias Go memory; threshold into a fresh Mat so the
	// mask owns its pixels.
	dst := gocv.NewMat()
	binarize(view, &dst)
	return &Mask{mat: dst}, nil
}

// binarize maps every non-zero pixel of src to Foreground and the rest to 0.
func binarize(src gocv.Mat, dst *gocv.Mat) {
	gocv.Threshold(src, dst, 0, Foreground, gocv.ThresholdBinary)
}

// Mat returns the underlying matrix. It must be treated as read-only and stays
// owned by the mask.
func (m *Mask) Mat() gocv.Mat {
	return m.mat
}

// Width returns the mask width in pixels.
func (m *Mask) Width() int {
	return m.mat.Cols()
}

// Height returns the mask height in pixels.
func (m *Mask) Height() int {
	return m.mat.Rows()
}

// Size returns the mask dimensions as a point (X = width, Y = height).
func (m *Mask) Size() image.Point {
	return image.Pt(m.Width(), m.Height())
}

// Area returns the number of foreground pixels.
func (m *Mask) Area() int {
	return gocv.CountNonZero(m.mat)
}

// IsBlank reports whether the mask has no foreground pixels.
func (m *Mask) IsBlank() bool {
	return m.Area() == 0
}

// At reports whether the pixel at (x, y) is foreground.
func (m *Mask) At(x, y int) bool {
	return m.mat.GetUCharAt(y, x) != 0
}

// Inverted returns a new mask with foreground and background swapped. This is
// the black-on-white rendering expected by bitmap tracers.
func (m *Mask) Inverted() *Mask {
	dst := gocv.NewMat()
	gocv.BitwiseNot(m.mat, &dst)
	return &Mask{mat: dst}
}

// Close releases the native matrix.
func (m *Mask) Close() error {
	if m == nil {
		return nil
	}
	return m.mat.Close()
}
