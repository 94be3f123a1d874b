package pipeline

import (
	"time"

	"github.com/nvr-ai/go-stillpose/images"
	"github.com/nvr-ai/go-stillpose/stillness"
)

// Artifact is everything produced for one still interval.
type Artifact struct {
	// Index is the interval's position in Result.Intervals.
	Index      int                `json:"index"`
	Interval   stillness.Interval `json:"interval"`
	FrameIndex int                `json:"frame_index"`
	FramePath  string             `json:"frame_path"`
	MaskPath   string             `json:"mask_path"`
	VectorPath string             `json:"vector_path"`
	// Component is the selected silhouette region at the segmentation resolution.
	Component images.Component `json:"component"`
	// Confidence is the mean person probability over the raw mask.
	Confidence float32 `json:"confidence"`
}

// Skipped records an interval that produced no artifact.
type Skipped struct {
	Index    int                `json:"index"`
	Interval stillness.Interval `json:"interval"`
	Kind     string             `json:"kind"`
	Reason   string             `json:"reason"`
	Err      error              `json:"-"`
}

// Result describes a silhouette extraction run.
type Result struct {
	RunID      string               `json:"run_id"`
	Source     string               `json:"source"`
	Frames     int                  `json:"frames"`
	Intervals  []stillness.Interval `json:"intervals"`
	Artifacts  []Artifact           `json:"artifacts"`
	Skipped    []Skipped            `json:"skipped"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
}

// Files returns the run manifest: the traced silhouette paths in interval
// order.
func (r *Result) Files() []string {
	files := make([]string, 0, len(r.Artifacts))
	for _, a := range r.Artifacts {
		files = append(files, a.VectorPath)
	}
	return files
}

// ArtifactPaths returns every file the run wrote, interval by interval:
// frame, mask, then vector.
func (r *Result) ArtifactPaths() []string {
	paths := make([]string, 0, len(r.Artifacts)*3)
	for _, a := range r.Artifacts {
		paths = append(paths, a.FramePath, a.MaskPath, a.VectorPath)
	}
	return paths
}
