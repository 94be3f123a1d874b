// Package vectorize converts binary silhouette masks into vector outlines.
package vectorize

import (
	"context"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-stillpose/images"
)

// ErrVectorizationFailed is returned when the tracer is missing, exits with an
// error or produces no output.
var ErrVectorizationFailed = errors.New("vectorization failed")

// Vectorizer traces a bitmap into a vector file.
type Vectorizer interface {
	// Vectorize reads bitmapPath and writes the outline to outputPath, returning
	// the path actually written.
	Vectorize(ctx context.Context, bitmapPath, outputPath string) (string, error)
}

// WriteBitmap writes mask as a black silhouette on a white background, the
// polarity bitmap tracers expect. The format follows the path's extension
// (.pgm or .png).
//
// Arguments:
//   - mask: The selected silhouette, foreground 255.
//   - path: The destination file.
//
// Returns:
//   - error: An error if the mask is nil or the file cannot be written.
func WriteBitmap(mask *images.Mask, path string) error {
	if mask == nil {
		return errors.New("cannot write a nil mask")
	}
	inverted := mask.Inverted()
	defer inverted.Close()

	if err := images.WriteMat(path, inverted.Mat()); err != nil {
		return errors.Wrap(err, "failed to write bitmap")
	}
	return nil
}
