package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-stillpose/images"
)

// twoClassMap builds a 2-class 3x2 score map where class 1 wins at the given pixels.
func twoClassMap(t *testing.T, winners ...int) *ScoreMap {
	t.Helper()
	const w, h = 3, 2
	data := make([]float32, 2*w*h)
	for i := 0; i < w*h; i++ {
		data[i] = 1
	}
	for _, p := range winners {
		data[w*h+p] = 3
	}
	s, err := NewScoreMap(2, h, w, data)
	require.NoError(t, err)
	return s
}

func TestScoreMap_Argmax(t *testing.T) {
	s := twoClassMap(t, 1, 5)
	labels, err := s.Argmax()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 0, 0, 0, 1}, labels)
}

func TestScoreMap_ClassMask(t *testing.T) {
	s := twoClassMap(t, 0, 4)
	mask, err := s.ClassMask(1)
	require.NoError(t, err)
	defer mask.Close()

	assert.Equal(t, 3, mask.Width())
	assert.Equal(t, 2, mask.Height())
	assert.Equal(t, 2, mask.Area())
	assert.True(t, mask.At(0, 0))
	assert.True(t, mask.At(1, 1))
	assert.False(t, mask.At(2, 1))

	_, err = s.ClassMask(2)
	assert.Error(t, err)
}

func TestScoreMap_Probability(t *testing.T) {
	s := twoClassMap(t, 2)
	// Equal logits split evenly.
	assert.InDelta(t, 0.5, s.Probability(1, 0, 0), 1e-6)
	// Logit gap of 2: sigmoid(2).
	assert.InDelta(t, 0.880797, s.Probability(1, 2, 0), 1e-5)
	assert.InDelta(t, 1.0, s.Probability(0, 2, 0)+s.Probability(1, 2, 0), 1e-6)
}

func TestScoreMap_MeanProbability(t *testing.T) {
	s := twoClassMap(t, 2, 3)
	mask, err := s.ClassMask(1)
	require.NoError(t, err)
	defer mask.Close()

	p, err := s.MeanProbability(1, mask)
	require.NoError(t, err)
	assert.InDelta(t, 0.880797, p, 1e-5)

	blank := images.NewEmptyMask(3, 2)
	defer blank.Close()
	p, err = s.MeanProbability(1, blank)
	require.NoError(t, err)
	assert.Zero(t, p)

	wrong := images.NewEmptyMask(4, 4)
	defer wrong.Close()
	_, err = s.MeanProbability(1, wrong)
	assert.Error(t, err)
}

func TestNewScoreMap_ShapeMismatch(t *testing.T) {
	_, err := NewScoreMap(2, 2, 2, make([]float32, 7))
	assert.Error(t, err)
	_, err = NewScoreMap(0, 2, 2, nil)
	assert.Error(t, err)
}
