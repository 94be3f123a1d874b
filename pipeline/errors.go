package pipeline

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-stillpose/images"
	"github.com/nvr-ai/go-stillpose/vectorize"
)

// Error kinds. Compare with errors.Is.
//
// ErrSourceNotFound, ErrNoStillnessDetected and ErrSourceUnreadable during the
// motion pass abort a run. Every other kind, and ErrSourceUnreadable while
// fetching a representative frame, skips a single interval.
var (
	ErrSourceNotFound        = errors.New("source video not found")
	ErrSourceUnreadable      = errors.New("source video unreadable")
	ErrNoStillnessDetected   = errors.New("no stillness detected")
	ErrPredictionFailed      = errors.New("foreground prediction failed")
	ErrRefinementFailed      = errors.New("mask refinement failed")
	ErrArtifactWrite         = errors.New("failed to write artifact")
	ErrNoForegroundComponent = images.ErrNoForegroundComponent
	ErrVectorizationFailed   = vectorize.ErrVectorizationFailed
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrSourceNotFound, "source_not_found"},
	{ErrSourceUnreadable, "source_unreadable"},
	{ErrNoStillnessDetected, "no_stillness_detected"},
	{ErrPredictionFailed, "prediction_failed"},
	{ErrRefinementFailed, "refinement_failed"},
	{ErrArtifactWrite, "artifact_write"},
	{ErrNoForegroundComponent, "no_foreground_component"},
	{ErrVectorizationFailed, "vectorization_failed"},
}

// KindOf returns a stable name for the error kind of err, or "unknown".
func KindOf(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "unknown"
}
