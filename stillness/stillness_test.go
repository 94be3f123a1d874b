package stillness

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoresOf(n int, value float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = value
	}
	return s
}

func TestSegment(t *testing.T) {
	tests := []struct {
		name     string
		scores   []float64
		expected []Interval
	}{
		{
			name:     "all still",
			scores:   scoresOf(12, 0),
			expected: []Interval{{0, 12}},
		},
		{
			name:     "empty stream",
			scores:   nil,
			expected: []Interval{},
		},
		{
			name:     "alternating motion",
			scores:   []float64{0, 0.5, 0, 0.5, 0, 0.5, 0, 0.5, 0, 0.5},
			expected: []Interval{},
		},
		{
			name:     "still run of exactly the minimum length",
			scores:   []float64{0, 0, 0, 0, 0, 1, 1},
			expected: []Interval{{0, 5}},
		},
		{
			name:     "still run one frame short",
			scores:   []float64{0, 0, 0, 0, 1, 1},
			expected: []Interval{},
		},
		{
			name:     "score equal to the threshold is motion",
			scores:   []float64{0, 0, 0, 0, 0.02, 0, 0, 0, 0},
			expected: []Interval{},
		},
		{
			name:     "score just below the threshold is still",
			scores:   []float64{0, 0, 0, 0, 0.0199, 1},
			expected: []Interval{{0, 5}},
		},
		{
			name: "two runs separated by motion",
			scores: append(append(append(scoresOf(6, 0), scoresOf(3, 0.3)...),
				scoresOf(7, 0.001)...), 0.9),
			expected: []Interval{{0, 6}, {9, 16}},
		},
		{
			name:     "trailing run closed at end of stream",
			scores:   append(scoresOf(4, 1), scoresOf(5, 0)...),
			expected: []Interval{{4, 9}},
		},
		{
			name:     "NaN counts as motion",
			scores:   []float64{0, 0, 0, math.NaN(), 0, 0, 0},
			expected: []Interval{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Segment(DefaultConfig(), tt.scores)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSegment_Properties(t *testing.T) {
	cfg := DefaultConfig()
	scores := []float64{
		0, 0, 0, 0, 0, 0, 0.5, 0, 0, 0.01, 0, 0, 0, 0.3, 0.3, 0, 0, 0,
		0, 0, 0, 0, 0.04, 0, 0.011, 0.019, 0, 0, 0, 0.1,
	}

	got := Segment(cfg, scores)
	require.NotEmpty(t, got)

	for i, iv := range got {
		assert.GreaterOrEqual(t, iv.Len(), cfg.MinLength, "interval %v too short", iv)
		assert.GreaterOrEqual(t, iv.Start, 0)
		assert.LessOrEqual(t, iv.End, len(scores))
		for f := iv.Start; f < iv.End; f++ {
			assert.Less(t, scores[f], cfg.MotionThreshold, "frame %d inside %v is not still", f, iv)
		}
		if i > 0 {
			assert.LessOrEqual(t, got[i-1].End, iv.Start, "intervals must be ordered and disjoint")
		}
		assert.GreaterOrEqual(t, iv.Midpoint(), iv.Start)
		assert.Less(t, iv.Midpoint(), iv.End)
	}
}

func TestSegmenter_Streaming(t *testing.T) {
	s := NewSegmenter(DefaultConfig())

	for i := 0; i < 6; i++ {
		_, ok := s.Push(0)
		assert.False(t, ok)
	}
	iv, ok := s.Push(1)
	require.True(t, ok)
	assert.Equal(t, Interval{0, 6}, iv)

	for i := 0; i < 5; i++ {
		s.Push(0)
	}
	iv, ok = s.Flush()
	require.True(t, ok)
	assert.Equal(t, Interval{7, 12}, iv)

	_, ok = s.Flush()
	assert.False(t, ok, "second flush must not emit again")

	assert.Equal(t, []Interval{{0, 6}, {7, 12}}, s.Intervals())
}

func TestInterval(t *testing.T) {
	iv := Interval{Start: 0, End: 10}
	assert.Equal(t, 10, iv.Len())
	assert.Equal(t, 5, iv.Midpoint())
	assert.Equal(t, "[0, 10)", iv.String())

	assert.Equal(t, 9, Interval{Start: 7, End: 12}.Midpoint())
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{MotionThreshold: 0, MinLength: 5}.Validate())
	assert.Error(t, Config{MotionThreshold: 0.02, MinLength: 0}.Validate())
}
