package video

import (
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// MemoryOpener serves the same in-memory frames for every path. It is used to
// drive the pipeline from synthetic clips. The opener does not own the frames;
// the caller closes them after the last Open.
type MemoryOpener struct {
	frames []gocv.Mat

	mu    sync.Mutex
	opens int
}

// NewMemoryOpener returns an opener over frames.
func NewMemoryOpener(frames []gocv.Mat) *MemoryOpener {
	return &MemoryOpener{frames: frames}
}

// Open returns a new source positioned at frame 0.
func (o *MemoryOpener) Open(string) (Source, error) {
	o.mu.Lock()
	o.opens++
	o.mu.Unlock()
	return &memorySource{frames: o.frames}, nil
}

// Opens returns how many sources have been opened.
func (o *MemoryOpener) Opens() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens
}

type memorySource struct {
	frames []gocv.Mat
	pos    int
}

func (s *memorySource) Read(dst *gocv.Mat) bool {
	if s.pos >= len(s.frames) {
		return false
	}
	s.frames[s.pos].CopyTo(dst)
	s.pos++
	return true
}

func (s *memorySource) Seek(index int) error {
	if index < 0 {
		return errors.Errorf("invalid frame index %d", index)
	}
	if index >= len(s.frames) {
		return errors.Wrapf(ErrSeekOutOfRange, "frame %d of %d", index, len(s.frames))
	}
	s.pos = index
	return nil
}

func (s *memorySource) Close() error {
	return nil
}

// ReadFrame opens path, seeks to index and decodes exactly one frame.
//
// Arguments:
//   - opener: The source factory.
//   - path: The video to read from.
//   - index: Zero-based frame index.
//
// Returns:
//   - gocv.Mat: The decoded frame, owned by the caller.
//   - error: An error if the source cannot be opened, seeked or decoded.
func ReadFrame(opener Opener, path string, index int) (gocv.Mat, error) {
	src, err := opener.Open(path)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer src.Close()

	if err := src.Seek(index); err != nil {
		return gocv.Mat{}, err
	}
	frame := gocv.NewMat()
	if !src.Read(&frame) {
		_ = frame.Close()
		return gocv.Mat{}, errors.Errorf("failed to decode frame %d", index)
	}
	return frame, nil
}
