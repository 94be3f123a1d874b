// Package profiler accumulates per-stage timing statistics for a pipeline run
// and reports them through the logger.
package profiler

import (
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TimeTracker tracks operation timing statistics.
type TimeTracker struct {
	name      string
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	count     int64
}

// StageStats is a snapshot of one stage's timings.
type StageStats struct {
	Name  string        `json:"name"`
	Count int64         `json:"count"`
	Total time.Duration `json:"total"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
	Avg   time.Duration `json:"avg"`
}

// StageTimer records how long each named stage takes. It is safe for
// concurrent use. A nil *StageTimer records nothing.
type StageTimer struct {
	mu        sync.Mutex
	startTime time.Time
	order     []string
	stages    map[string]*TimeTracker
}

// NewStageTimer creates an empty timer whose clock starts now.
func NewStageTimer() *StageTimer {
	return &StageTimer{
		startTime: time.Now(),
		stages:    make(map[string]*TimeTracker),
	}
}

// Track starts timing an operation.
//
// Arguments:
// - name: The stage name.
//
// Returns:
// - A function to call when the operation completes
func (t *StageTimer) Track(name string) func() {
	if t == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		t.Observe(name, time.Since(start))
	}
}

// Observe records one duration for a stage.
func (t *StageTimer) Observe(name string, d time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	tracker, exists := t.stages[name]
	if !exists {
		tracker = &TimeTracker{name: name, minTime: d, maxTime: d}
		t.stages[name] = tracker
		t.order = append(t.order, name)
	}
	tracker.totalTime += d
	tracker.count++
	if d < tracker.minTime {
		tracker.minTime = d
	}
	if d > tracker.maxTime {
		tracker.maxTime = d
	}
}

// Stats returns a snapshot of every stage in first-seen order.
func (t *StageTimer) Stats() []StageStats {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]StageStats, 0, len(t.order))
	for _, name := range t.order {
		tr := t.stages[name]
		out = append(out, StageStats{
			Name:  name,
			Count: tr.count,
			Total: tr.totalTime,
			Min:   tr.minTime,
			Max:   tr.maxTime,
			Avg:   tr.totalTime / time.Duration(tr.count),
		})
	}
	return out
}

// Elapsed returns the time since the timer was created.
func (t *StageTimer) Elapsed() time.Duration {
	if t == nil {
		return 0
	}
	return time.Since(t.startTime)
}

// Report logs one debug event per stage and a summary with the run's memory
// footprint.
func (t *StageTimer) Report(logger zerolog.Logger) {
	if t == nil {
		return
	}
	for _, s := range t.Stats() {
		logger.Debug().
			Str("stage", s.Name).
			Int64("count", s.Count).
			Dur("total", s.Total).
			Dur("avg", s.Avg).
			Dur("min", s.Min).
			Dur("max", s.Max).
			Msg("stage timing")
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	logger.Info().
		Dur("elapsed", t.Elapsed()).
		Uint64("heap_alloc", mem.HeapAlloc).
		Int("goroutines", runtime.NumGoroutine()).
		Msg("run profile")
}
