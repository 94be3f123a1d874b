package test

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-stillpose/inference"
	"github.com/nvr-ai/go-stillpose/models"
	"github.com/nvr-ai/go-stillpose/vectorize"
)

// BrightnessClassifier is a PixelClassifier that labels every pixel whose
// normalized red channel is positive (brighter than the ImageNet mean) as
// person and everything else as background.
type BrightnessClassifier struct {
	mu    sync.Mutex
	calls int
}

// Classify implements inference.PixelClassifier.
func (c *BrightnessClassifier) Classify(ctx context.Context, input inference.Tensor) (*inference.ScoreMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()

	classes := models.PascalVOCClasses.Len()
	person, _ := models.PascalVOCClasses.IndexOf("person")
	plane := input.Height * input.Width

	data := make([]float32, classes*plane)
	red := input.Plane(0)
	for i := 0; i < plane; i++ {
		if red[i] > 0 {
			data[person*plane+i] = 4
		} else {
			data[i] = 4
		}
	}
	return inference.NewScoreMap(classes, input.Height, input.Width, data)
}

// Calls returns how many times Classify ran.
func (c *BrightnessClassifier) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Close implements inference.PixelClassifier.
func (c *BrightnessClassifier) Close() error { return nil }

// FailingClassifier always returns Err.
type FailingClassifier struct {
	Err error
}

// Classify implements inference.PixelClassifier.
func (c FailingClassifier) Classify(context.Context, inference.Tensor) (*inference.ScoreMap, error) {
	return nil, c.Err
}

// Close implements inference.PixelClassifier.
func (c FailingClassifier) Close() error { return nil }

// VectorizeCall records one StubVectorizer invocation.
type VectorizeCall struct {
	BitmapPath string
	OutputPath string
}

// StubVectorizer writes a placeholder SVG instead of running a tracer. Output
// paths whose base name is listed in FailOn fail with ErrVectorizationFailed.
type StubVectorizer struct {
	FailOn map[string]bool

	mu    sync.Mutex
	calls []VectorizeCall
}

// Vectorize implements vectorize.Vectorizer.
func (v *StubVectorizer) Vectorize(_ context.Context, bitmapPath, outputPath string) (string, error) {
	v.mu.Lock()
	v.calls = append(v.calls, VectorizeCall{BitmapPath: bitmapPath, OutputPath: outputPath})
	v.mu.Unlock()

	if v.FailOn[filepath.Base(outputPath)] {
		return "", errors.Wrapf(vectorize.ErrVectorizationFailed, "stub failure for %s", outputPath)
	}
	if _, err := os.Stat(bitmapPath); err != nil {
		return "", errors.Wrapf(vectorize.ErrVectorizationFailed, "bitmap missing: %v", err)
	}
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><path d="M0 0"/></svg>`)
	if err := os.WriteFile(outputPath, svg, 0o644); err != nil {
		return "", errors.Wrap(vectorize.ErrVectorizationFailed, err.Error())
	}
	return outputPath, nil
}

// Calls returns the recorded invocations.
func (v *StubVectorizer) Calls() []VectorizeCall {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]VectorizeCall(nil), v.calls...)
}

// StubPoseEstimator returns 17 keypoints whose score encodes the call number.
type StubPoseEstimator struct {
	Size int
	Err  error

	mu     sync.Mutex
	frames []image.Rectangle
}

// InputSize implements inference.PoseEstimator.
func (p *StubPoseEstimator) InputSize() int {
	if p.Size == 0 {
		return 192
	}
	return p.Size
}

// Estimate implements inference.PoseEstimator.
func (p *StubPoseEstimator) Estimate(_ context.Context, frame image.Image) ([]inference.Keypoint, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	p.mu.Lock()
	p.frames = append(p.frames, frame.Bounds())
	n := len(p.frames)
	p.mu.Unlock()

	kps := make([]inference.Keypoint, models.COCOKeypoints.Len())
	for i := range kps {
		kps[i] = inference.Keypoint{
			Y:     float32(i) / 17,
			X:     float32(i) / 34,
			Score: float32(n) / 100,
		}
	}
	return kps, nil
}

// Frames returns the bounds of every frame passed to Estimate.
func (p *StubPoseEstimator) Frames() []image.Rectangle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]image.Rectangle(nil), p.frames...)
}

// Close implements inference.PoseEstimator.
func (p *StubPoseEstimator) Close() error { return nil }
