package profiler

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageTimer_Observe(t *testing.T) {
	timer := NewStageTimer()
	timer.Observe("motion", 10*time.Millisecond)
	timer.Observe("predict", 40*time.Millisecond)
	timer.Observe("motion", 30*time.Millisecond)

	stats := timer.Stats()
	require.Len(t, stats, 2)

	assert.Equal(t, StageStats{
		Name:  "motion",
		Count: 2,
		Total: 40 * time.Millisecond,
		Min:   10 * time.Millisecond,
		Max:   30 * time.Millisecond,
		Avg:   20 * time.Millisecond,
	}, stats[0])
	assert.Equal(t, "predict", stats[1].Name)
}

func TestStageTimer_TrackConcurrent(t *testing.T) {
	timer := NewStageTimer()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			done := timer.Track("vectorize")
			done()
		}()
	}
	wg.Wait()

	stats := timer.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, int64(8), stats[0].Count)
}

func TestStageTimer_NilIsNoop(t *testing.T) {
	var timer *StageTimer
	timer.Track("x")()
	timer.Observe("x", time.Second)
	assert.Nil(t, timer.Stats())
	assert.Zero(t, timer.Elapsed())
	timer.Report(zerolog.Nop())
}

func TestStageTimer_Report(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	timer := NewStageTimer()
	timer.Observe("refine", time.Millisecond)
	timer.Report(logger)

	out := buf.String()
	assert.Contains(t, out, `"stage":"refine"`)
	assert.Contains(t, out, `"message":"run profile"`)
}
