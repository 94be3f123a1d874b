// Package stillness turns a stream of per-frame motion scores into the
// intervals during which the subject held still.
//
// The score pushed for frame i is the motion between frame i-1 and frame i.
// Frame 0 has no predecessor and is pushed with a score of 0, so a clip that
// opens on a held pose yields an interval starting at 0.
//
// Usage:
//
//	seg := stillness.NewSegmenter(stillness.DefaultConfig())
//	for _, score := range scores {
//		if iv, ok := seg.Push(score); ok {
//			fmt.Println("closed", iv)
//		}
//	}
//	seg.Flush()
//	intervals := seg.Intervals()
package stillness

import (
	"fmt"

	"github.com/pkg/errors"
)

// Config holds the thresholds of the segmenter.
type Config struct {
	// MotionThreshold is the score at or above which a frame counts as motion.
	MotionThreshold float64 `json:"motion_threshold" yaml:"motion_threshold"`
	// MinLength is the minimum number of frames a still run must span to be kept.
	MinLength int `json:"min_length" yaml:"min_length"`
}

// DefaultConfig returns a 2% movement threshold and a five-frame minimum run.
func DefaultConfig() Config {
	return Config{
		MotionThreshold: 0.02,
		MinLength:       5,
	}
}

// Validate checks that the thresholds are usable.
func (c Config) Validate() error {
	if c.MotionThreshold <= 0 || c.MotionThreshold > 1 {
		return errors.Errorf("motion threshold must be in (0, 1], got %v", c.MotionThreshold)
	}
	if c.MinLength < 1 {
		return errors.Errorf("minimum length must be at least 1, got %d", c.MinLength)
	}
	return nil
}

// Interval is a half-open frame range [Start, End).
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of frames in the interval.
func (i Interval) Len() int {
	return i.End - i.Start
}

// Midpoint returns the representative frame index, floor((Start+End)/2).
func (i Interval) Midpoint() int {
	return (i.Start + i.End) / 2
}

func (i Interval) String() string {
	return fmt.Sprintf("[%d, %d)", i.Start, i.End)
}

// Segmenter is a single-pass state machine over motion scores. It keeps O(1)
// state besides the list of closed intervals. It is not safe for concurrent use.
type Segmenter struct {
	config    Config
	start     int // First frame of the open run, or -1.
	next      int // Index of the next frame to be pushed.
	intervals []Interval
}

// NewSegmenter returns a segmenter with no open run.
func NewSegmenter(config Config) *Segmenter {
	return &Segmenter{config: config, start: -1}
}

// Push feeds the score of the next frame. When the score ends a still run long
// enough to keep, the closed interval is returned with ok set.
func (s *Segmenter) Push(score float64) (Interval, bool) {
	i := s.next
	s.next++

	if score < s.config.MotionThreshold {
		if s.start < 0 {
			s.start = i
		}
		return Interval{}, false
	}
	return s.close(i)
}

// Flush ends the stream and closes any open run. Calling it again is a no-op.
func (s *Segmenter) Flush() (Interval, bool) {
	return s.close(s.next)
}

// Intervals returns the intervals closed so far, ordered by start.
func (s *Segmenter) Intervals() []Interval {
	out := make([]Interval, len(s.intervals))
	copy(out, s.intervals)
	return out
}

func (s *Segmenter) close(end int) (Interval, bool) {
	if s.start < 0 {
		return Interval{}, false
	}
	iv := Interval{Start: s.start, End: end}
	s.start = -1
	if iv.Len() < s.config.MinLength {
		return Interval{}, false
	}
	s.intervals = append(s.intervals, iv)
	return iv, true
}

// Segment runs a fresh segmenter over scores and returns every kept interval.
func Segment(config Config, scores []float64) []Interval {
	s := NewSegmenter(config)
	for _, score := range scores {
		s.Push(score)
	}
	s.Flush()
	return s.Intervals()
}
