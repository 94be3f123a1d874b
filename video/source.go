// Package video provides frame sources for the silhouette pipeline: sequential
// decoding for the motion pass and random access for fetching a single
// representative frame.
package video

import (
	"os"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ErrSeekOutOfRange is returned when a seek targets a frame past the end of the
// source.
var ErrSeekOutOfRange = errors.New("seek past end of video")

// Source yields decoded frames in order.
type Source interface {
	// Read decodes the next frame into dst. It returns false at end of stream or
	// when a frame cannot be decoded.
	Read(dst *gocv.Mat) bool
	// Seek positions the source so that the next Read returns frame index.
	Seek(index int) error
	// Close releases the underlying decoder.
	Close() error
}

// Opener opens a Source for a path. The pipeline opens a fresh source for each
// pass, so implementations must support repeated opens of the same path.
type Opener interface {
	Open(path string) (Source, error)
}

// FileOpener opens video files with OpenCV's video capture backend.
type FileOpener struct{}

// Open opens path for decoding.
//
// Arguments:
//   - path: The video file.
//
// Returns:
//   - Source: A source positioned at frame 0.
//   - error: An error if the file is missing or no decoder accepts it.
func (FileOpener) Open(path string) (Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "failed to stat video %s", path)
	}
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open video %s", path)
	}
	if !vc.IsOpened() {
		_ = vc.Close()
		return nil, errors.Errorf("no decoder could open %s", path)
	}
	return &captureSource{vc: vc}, nil
}

type captureSource struct {
	vc *gocv.VideoCapture
}

func (s *captureSource) Read(dst *gocv.Mat) bool {
	return s.vc.Read(dst) && !dst.Empty()
}

func (s *captureSource) Seek(index int) error {
	if index < 0 {
		return errors.Errorf("invalid frame index %d", index)
	}
	// Some containers report 0 frames; only reject when the count is known.
	if count := int(s.vc.Get(gocv.VideoCaptureFrameCount)); count > 0 && index >= count {
		return errors.Wrapf(ErrSeekOutOfRange, "frame %d of %d", index, count)
	}
	s.vc.Set(gocv.VideoCapturePosFrames, float64(index))
	return nil
}

func (s *captureSource) Close() error {
	return s.vc.Close()
}
