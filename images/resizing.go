package images

import (
	"image"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// ShortSideDimensions returns the width and height that make the shorter side of
// a width x height image equal to size while keeping the aspect ratio. The long
// side is truncated toward zero.
//
// Arguments:
//   - width: Source width.
//   - height: Source height.
//   - size: Target length of the shorter side.
//
// Returns:
//   - int: The target width.
//   - int: The target height.
func ShortSideDimensions(width, height, size int) (int, int) {
	if width <= height {
		return size, int(int64(size) * int64(height) / int64(width))
	}
	return int(int64(size) * int64(width) / int64(height)), size
}

// ResizeShortSide scales img with bilinear interpolation so that its shorter side
// equals size.
//
// Arguments:
//   - img: The source image.
//   - size: Target length of the shorter side.
//
// Returns:
//   - image.Image: The resized image. img itself is returned when already at size.
//   - error: An error if the image or target size is empty.
func ResizeShortSide(img image.Image, size int) (image.Image, error) {
	if img == nil {
		return nil, errors.New("cannot resize a nil image")
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.Errorf("cannot resize an empty image: %v", b)
	}
	if size <= 0 {
		return nil, errors.Errorf("invalid target size %d", size)
	}

	w, h := ShortSideDimensions(b.Dx(), b.Dy(), size)
	if w == b.Dx() && h == b.Dy() {
		return img, nil
	}
	return resize.Resize(uint(w), uint(h), img, resize.Bilinear), nil
}

// ResizeExact scales img to exactly width x height with bilinear interpolation,
// ignoring the aspect ratio.
func ResizeExact(img image.Image, width, height int) (image.Image, error) {
	if img == nil {
		return nil, errors.New("cannot resize a nil image")
	}
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid target dimensions %dx%d", width, height)
	}
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img, nil
	}
	return resize.Resize(uint(width), uint(height), img, resize.Bilinear), nil
}
