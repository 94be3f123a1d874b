package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-stillpose/images"
)

// Output subdirectories.
const (
	FramesDir      = "frames"
	SilhouettesDir = "silhouettes"
	PosesDir       = "poses"
)

// Layout maps artifacts to paths under an output root:
//
//	frames/frame_<i>.png      representative frame of interval i
//	frames/pose_<i>.pgm       selected silhouette bitmap of interval i
//	silhouettes/pose_<i>.svg  traced silhouette of interval i
//	poses/<video>_poses.json  per-frame keypoints
type Layout struct {
	Root string
}

// Ensure creates every output directory.
func (l Layout) Ensure() error {
	for _, dir := range []string{FramesDir, SilhouettesDir, PosesDir} {
		if err := os.MkdirAll(filepath.Join(l.Root, dir), 0o755); err != nil {
			return errors.Wrapf(ErrArtifactWrite, "create %s: %v", dir, err)
		}
	}
	return nil
}

// FramePath returns the representative frame path for interval i.
func (l Layout) FramePath(i int) string {
	return filepath.Join(l.Root, FramesDir, images.ArtifactName("frame", i, images.FormatPNG))
}

// MaskPath returns the silhouette bitmap path for interval i.
func (l Layout) MaskPath(i int) string {
	return filepath.Join(l.Root, FramesDir, images.ArtifactName("pose", i, images.FormatPGM))
}

// VectorPath returns the traced silhouette path for interval i.
func (l Layout) VectorPath(i int) string {
	return filepath.Join(l.Root, SilhouettesDir, images.ArtifactName("pose", i, images.FormatSVG))
}

// PosesPath returns the keypoint JSON path for a source video.
func (l Layout) PosesPath(source string) string {
	return filepath.Join(l.Root, PosesDir, filepath.Base(source)+"_poses.json")
}

// resolveSource joins filename onto dir, refusing names that escape it.
func resolveSource(dir, filename string) (string, error) {
	if filename == "" {
		return "", errors.Wrap(ErrSourceNotFound, "empty filename")
	}
	clean := filepath.Clean(filename)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.Wrapf(ErrSourceNotFound, "%s is outside the upload directory", filename)
	}
	path := filepath.Join(dir, clean)
	info, err := os.Stat(path)
	if err != nil {
		return "", errors.Wrapf(ErrSourceNotFound, "%s: %v", path, err)
	}
	if info.IsDir() {
		return "", errors.Wrapf(ErrSourceNotFound, "%s is a directory", path)
	}
	return path, nil
}
