package segmentation

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-stillpose/inference/providers"
	"github.com/nvr-ai/go-stillpose/test"
)

func TestExtractor_Extract(t *testing.T) {
	classifier := &test.BrightnessClassifier{}
	ext, err := NewExtractor(classifier, DefaultConfig())
	require.NoError(t, err)

	gen := test.NewMockFrameGenerator(64, 48)
	frame := gen.GenerateSubjectFrame(image.Rect(20, 10, 39, 39))
	defer frame.Close()

	res, err := ext.Extract(context.Background(), frame)
	require.NoError(t, err)
	defer res.Close()

	assert.Equal(t, 1, classifier.Calls())
	assert.Equal(t, 15, res.Class)
	// 64x48 scaled so the short side is 520.
	assert.Equal(t, image.Pt(693, 520), res.Mask.Size())
	assert.True(t, res.Mask.At(325, 270), "subject center should be foreground")
	assert.False(t, res.Mask.At(10, 10), "background corner should be empty")
	// Person logit 4 against twenty zero logits.
	assert.InDelta(t, 0.7319, res.Confidence, 1e-3)
}

func TestExtractor_BlankFrame(t *testing.T) {
	ext, err := NewExtractor(&test.BrightnessClassifier{}, Config{ShortSide: 32, PersonLabel: "person"})
	require.NoError(t, err)

	frame := test.NewMockFrameGenerator(40, 40).GenerateBackgroundFrame(0)
	defer frame.Close()

	res, err := ext.Extract(context.Background(), frame)
	require.NoError(t, err)
	defer res.Close()

	assert.True(t, res.Mask.IsBlank())
	assert.Zero(t, res.Confidence)
}

func TestExtractor_ClassifierFailure(t *testing.T) {
	boom := errors.New("device lost")
	ext, err := NewExtractor(test.FailingClassifier{Err: boom}, DefaultConfig())
	require.NoError(t, err)

	frame := test.NewMockFrameGenerator(16, 16).GenerateBackgroundFrame(0)
	defer frame.Close()

	_, err = ext.Extract(context.Background(), frame)
	assert.ErrorIs(t, err, boom)
}

func TestNewExtractor_Validation(t *testing.T) {
	_, err := NewExtractor(nil, DefaultConfig())
	assert.Error(t, err)

	_, err = NewExtractor(&test.BrightnessClassifier{}, Config{ShortSide: 520, PersonLabel: "pedestrian"})
	assert.Error(t, err)

	_, err = NewExtractor(&test.BrightnessClassifier{}, Config{ShortSide: 0, PersonLabel: "person"})
	assert.Error(t, err)
}

func TestNewClassifier_UnknownBackend(t *testing.T) {
	cfg := DefaultModelConfig()
	cfg.Backend = "tflite"
	_, err := NewClassifier(cfg, providers.DefaultConfig())
	assert.Error(t, err)
}
