package images

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ImageFormat represents the image formats written as pipeline artifacts.
type ImageFormat string

// ImageFormat constants
const (
	// FormatPNG is used for representative frames.
	FormatPNG ImageFormat = "png"
	// FormatPGM is the binary graymap consumed by bitmap tracers.
	FormatPGM ImageFormat = "pgm"
	// FormatSVG is the vector silhouette format.
	FormatSVG ImageFormat = "svg"
)

// Ext returns the file extension for the format, including the dot.
func (f ImageFormat) Ext() string {
	return "." + string(f)
}

// FormatOf returns the format implied by a path's extension.
func FormatOf(path string) (ImageFormat, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ImageFormat(ext) {
	case FormatPNG, FormatPGM, FormatSVG:
		return ImageFormat(ext), nil
	}
	return "", errors.Errorf("unsupported image format %q", ext)
}

// ArtifactName builds "<prefix>_<index>.<ext>", the naming used for all
// per-interval artifacts.
func ArtifactName(prefix string, index int, format ImageFormat) string {
	return fmt.Sprintf("%s_%d%s", prefix, index, format.Ext())
}

// WriteMat encodes mat to path; the format follows the extension.
//
// Arguments:
//   - path: Destination file (.png or .pgm).
//   - mat: The image to encode.
//
// Returns:
//   - error: An error if the format is not raster or encoding fails.
func WriteMat(path string, mat gocv.Mat) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	if format == FormatSVG {
		return errors.Errorf("cannot encode a raster image as %s", format)
	}
	if mat.Empty() {
		return errors.Errorf("refusing to write an empty image to %s", path)
	}
	if !gocv.IMWrite(path, mat) {
		return errors.Errorf("failed to write image to %s", path)
	}
	return nil
}
