package video

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func numberedFrames(n int) []gocv.Mat {
	frames := make([]gocv.Mat, n)
	for i := range frames {
		frames[i] = gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8UC1)
		frames[i].SetTo(gocv.NewScalar(float64(i*10), 0, 0, 0))
	}
	return frames
}

func closeAll(frames []gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}

func TestMemorySource_SequentialRead(t *testing.T) {
	frames := numberedFrames(5)
	defer closeAll(frames)

	src, err := NewMemoryOpener(frames).Open("clip.mp4")
	require.NoError(t, err)
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	count := 0
	for src.Read(&dst) {
		assert.Equal(t, uint8(count*10), dst.GetUCharAt(0, 0))
		count++
	}
	assert.Equal(t, 5, count)
}

func TestReadFrame(t *testing.T) {
	frames := numberedFrames(10)
	defer closeAll(frames)
	opener := NewMemoryOpener(frames)

	frame, err := ReadFrame(opener, "clip.mp4", 7)
	require.NoError(t, err)
	defer frame.Close()
	assert.Equal(t, uint8(70), frame.GetUCharAt(1, 1))

	_, err = ReadFrame(opener, "clip.mp4", 10)
	assert.ErrorIs(t, err, ErrSeekOutOfRange)

	_, err = ReadFrame(opener, "clip.mp4", -1)
	assert.Error(t, err)

	assert.Equal(t, 3, opener.Opens())
}

func TestFileOpener_MissingFile(t *testing.T) {
	_, err := FileOpener{}.Open(filepath.Join(t.TempDir(), "missing.mp4"))
	assert.Error(t, err)
}
