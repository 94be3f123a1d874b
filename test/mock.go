// Package test provides deterministic fixtures shared by package tests:
// synthetic clips, stub predictors and a stub vectorizer.
package test

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// MockFrameGenerator creates deterministic test frames.
//
// @example
// gen := NewMockFrameGenerator(640, 480)
// frame := gen.GenerateStaticFrame()
// defer frame.Close()
type MockFrameGenerator struct {
	width  int
	height int
}

// NewMockFrameGenerator creates a new frame generator with specified dimensions.
//
// Arguments:
// - width: Frame width in pixels.
// - height: Frame height in pixels.
//
// Returns:
// - A configured MockFrameGenerator instance.
func NewMockFrameGenerator(width, height int) *MockFrameGenerator {
	return &MockFrameGenerator{
		width:  width,
		height: height,
	}
}

// GenerateStaticFrame creates a mid-gray single-channel frame.
func (g *MockFrameGenerator) GenerateStaticFrame() gocv.Mat {
	frame := gocv.NewMatWithSize(g.height, g.width, gocv.MatTypeCV8UC1)
	frame.SetTo(gocv.NewScalar(128, 0, 0, 0))
	return frame
}

// GenerateMotionFrame creates a static frame with a bright square at (x, y).
func (g *MockFrameGenerator) GenerateMotionFrame(x, y, size int) gocv.Mat {
	frame := g.GenerateStaticFrame()
	rect := image.Rect(x, y, x+size, y+size)
	gocv.Rectangle(&frame, rect, color.RGBA{255, 255, 255, 0}, -1)
	return frame
}

// GenerateBackgroundFrame creates a uniform BGR frame of the given intensity.
func (g *MockFrameGenerator) GenerateBackgroundFrame(value float64) gocv.Mat {
	frame := gocv.NewMatWithSize(g.height, g.width, gocv.MatTypeCV8UC3)
	frame.SetTo(gocv.NewScalar(value, value, value, 0))
	return frame
}

// GenerateSubjectFrame creates a black BGR frame with white subjects drawn as
// filled rectangles (corners inclusive).
func (g *MockFrameGenerator) GenerateSubjectFrame(subjects ...image.Rectangle) gocv.Mat {
	frame := g.GenerateBackgroundFrame(0)
	for _, s := range subjects {
		gocv.Rectangle(&frame, s, color.RGBA{255, 255, 255, 0}, -1)
	}
	return frame
}

// Segment describes a run of frames in a synthetic clip.
type Segment struct {
	// Frames is the number of frames in the run.
	Frames int
	// Still holds the run on a single frame; otherwise every frame alternates
	// between two background levels so consecutive frames differ everywhere.
	Still bool
	// Subjects are drawn on still frames.
	Subjects []image.Rectangle
}

// GenerateClip renders segments back to back. The caller closes every frame.
//
// @example
// clip := gen.GenerateClip(
//
//	test.Segment{Frames: 10, Still: true, Subjects: []image.Rectangle{subject}},
//	test.Segment{Frames: 20},
//
// )
// defer test.CloseFrames(clip)
func (g *MockFrameGenerator) GenerateClip(segments ...Segment) []gocv.Mat {
	var frames []gocv.Mat
	for _, s := range segments {
		for i := 0; i < s.Frames; i++ {
			if s.Still {
				frames = append(frames, g.GenerateSubjectFrame(s.Subjects...))
				continue
			}
			level := 60.0
			if (len(frames))%2 == 1 {
				level = 180
			}
			frames = append(frames, g.GenerateBackgroundFrame(level))
		}
	}
	return frames
}

// CloseFrames closes every frame.
func CloseFrames(frames []gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}
