// Package pipeline runs the two-pass silhouette extraction over a video and
// the per-frame pose export.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-stillpose/images"
	"github.com/nvr-ai/go-stillpose/inference/segmentation"
	"github.com/nvr-ai/go-stillpose/logging"
	"github.com/nvr-ai/go-stillpose/profiler"
	"github.com/nvr-ai/go-stillpose/stillness"
	"github.com/nvr-ai/go-stillpose/vectorize"
	"github.com/nvr-ai/go-stillpose/video"
)

// Stage names reported by the profiler.
const (
	StageMotion    = "motion"
	StageSeek      = "seek"
	StagePredict   = "predict"
	StageRefine    = "refine"
	StageSelect    = "select"
	StageVectorize = "vectorize"
)

// MaskExtractor predicts a raw person mask for a frame.
type MaskExtractor interface {
	Extract(ctx context.Context, frame gocv.Mat) (*segmentation.Extraction, error)
}

// MaskRefiner cleans a raw mask into a binary silhouette mask.
type MaskRefiner interface {
	Refine(mask *images.Mask) (*images.Mask, error)
}

// Recorder persists a finished run.
type Recorder interface {
	Record(ctx context.Context, result *Result) error
}

// Options configures a SilhouettePipeline.
type Options struct {
	// UploadDir is where source videos are looked up by filename.
	UploadDir string `yaml:"upload_dir" json:"upload_dir"`
	// OutputDir is the artifact root, see Layout.
	OutputDir string `yaml:"output_dir" json:"output_dir"`
	// NoiseThreshold is the per-pixel gray-level change ignored as noise.
	NoiseThreshold float32          `yaml:"noise_threshold" json:"noise_threshold"`
	Stillness      stillness.Config `yaml:"stillness" json:"stillness"`
}

// DefaultOptions returns options rooted at ./uploads and ./outputs.
func DefaultOptions() Options {
	return Options{
		UploadDir:      "uploads",
		OutputDir:      "outputs",
		NoiseThreshold: images.DefaultNoiseThreshold,
		Stillness:      stillness.DefaultConfig(),
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.UploadDir == "" {
		return errors.New("upload dir must be set")
	}
	if o.OutputDir == "" {
		return errors.New("output dir must be set")
	}
	if o.NoiseThreshold < 0 || o.NoiseThreshold > 255 {
		return errors.Errorf("noise threshold must be within [0, 255], got %v", o.NoiseThreshold)
	}
	return o.Stillness.Validate()
}

// Dependencies are the collaborators a SilhouettePipeline drives.
type Dependencies struct {
	Opener     video.Opener
	Extractor  MaskExtractor
	Refiner    MaskRefiner
	Vectorizer vectorize.Vectorizer
	// Recorder is optional.
	Recorder Recorder
}

// SilhouettePipeline finds still intervals in a video and produces one traced
// silhouette per interval.
//
// The first pass decodes every frame once, scoring motion between consecutive
// grayscale frames and segmenting the scores into still intervals. The second
// pass seeks to each interval's midpoint and runs
// predict -> refine -> select -> bitmap -> vectorize on that frame alone.
type SilhouettePipeline struct {
	deps   Dependencies
	opts   Options
	layout Layout
	logger zerolog.Logger
}

// NewSilhouettePipeline validates options and dependencies.
//
// Arguments:
//   - deps: Opener, Extractor, Refiner and Vectorizer are required.
//   - opts: Directories and thresholds.
//   - logger: The base logger; each run adds run_id and source fields.
//
// Returns:
//   - *SilhouettePipeline: The pipeline.
//   - error: An error if a dependency is missing or the options are invalid.
func NewSilhouettePipeline(deps Dependencies, opts Options, logger zerolog.Logger) (*SilhouettePipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid pipeline options")
	}
	switch {
	case deps.Opener == nil:
		return nil, errors.New("video opener is required")
	case deps.Extractor == nil:
		return nil, errors.New("mask extractor is required")
	case deps.Refiner == nil:
		return nil, errors.New("mask refiner is required")
	case deps.Vectorizer == nil:
		return nil, errors.New("vectorizer is required")
	}
	return &SilhouettePipeline{
		deps:   deps,
		opts:   opts,
		layout: Layout{Root: opts.OutputDir},
		logger: logging.WithComponent(logger, "silhouette"),
	}, nil
}

// Layout returns where the pipeline writes artifacts.
func (p *SilhouettePipeline) Layout() Layout {
	return p.layout
}

// Run extracts silhouettes from filename, resolved against the upload
// directory.
//
// Arguments:
//   - ctx: Cancels the run between frames and intervals.
//   - filename: The video name inside the upload directory.
//
// Returns:
//   - *Result: Intervals, artifacts in interval order and skipped intervals.
//   - error: ErrSourceNotFound, ErrSourceUnreadable or ErrNoStillnessDetected
//     abort the run. Per-interval failures are reported in Result.Skipped.
func (p *SilhouettePipeline) Run(ctx context.Context, filename string) (*Result, error) {
	result := &Result{
		RunID:     uuid.NewString(),
		Source:    filename,
		StartedAt: time.Now(),
	}
	logger := logging.WithRunID(p.logger, result.RunID).With().Str("source", filename).Logger()
	timer := profiler.NewStageTimer()

	path, err := resolveSource(p.opts.UploadDir, filename)
	if err != nil {
		return nil, err
	}
	if err := p.layout.Ensure(); err != nil {
		return nil, err
	}

	logger.Info().Str("path", path).Msg("scanning for still intervals")
	intervals, frames, err := p.scan(ctx, path, timer)
	if err != nil {
		return nil, err
	}
	result.Frames = frames
	result.Intervals = intervals
	logger.Info().
		Int("frames", frames).
		Int("intervals", len(intervals)).
		Msg("motion pass complete")

	if len(intervals) == 0 {
		return nil, errors.Wrapf(ErrNoStillnessDetected, "%s: %d frames scanned", filename, frames)
	}

	for i, iv := range intervals {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		artifact, err := p.processInterval(ctx, path, i, iv, timer)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			kind := KindOf(err)
			logger.Warn().
				Err(err).
				Int("interval", i).
				Int("start", iv.Start).
				Int("end", iv.End).
				Str("kind", kind).
				Msg("skipping interval")
			result.Skipped = append(result.Skipped, Skipped{
				Index:    i,
				Interval: iv,
				Kind:     kind,
				Reason:   err.Error(),
				Err:      err,
			})
			continue
		}
		logger.Debug().
			Int("interval", i).
			Int("frame", artifact.FrameIndex).
			Int("area", artifact.Component.Area).
			Str("vector", artifact.VectorPath).
			Msg("silhouette written")
		result.Artifacts = append(result.Artifacts, artifact)
	}
	result.FinishedAt = time.Now()

	if p.deps.Recorder != nil {
		if err := p.deps.Recorder.Record(ctx, result); err != nil {
			logger.Error().Err(err).Msg("failed to record run")
		}
	}

	timer.Report(logger)
	logger.Info().
		Int("silhouettes", len(result.Artifacts)).
		Int("skipped", len(result.Skipped)).
		Dur("elapsed", result.FinishedAt.Sub(result.StartedAt)).
		Msg("silhouette extraction complete")
	return result, nil
}

// scan decodes every frame once and segments the motion scores. Frame 0 has
// no predecessor and scores 0.
func (p *SilhouettePipeline) scan(ctx context.Context, path string, timer *profiler.StageTimer) ([]stillness.Interval, int, error) {
	defer timer.Track(StageMotion)()

	src, err := p.deps.Opener.Open(path)
	if err != nil {
		return nil, 0, errors.Wrapf(ErrSourceUnreadable, "open %s: %v", path, err)
	}
	defer src.Close()

	estimator := images.NewMotionEstimator(p.opts.NoiseThreshold)
	defer estimator.Close()
	segmenter := stillness.NewSegmenter(p.opts.Stillness)

	frame := gocv.NewMat()
	defer frame.Close()
	gray := gocv.NewMat()
	defer gray.Close()
	prev := gocv.NewMat()
	defer prev.Close()

	n := 0
	for src.Read(&frame) {
		if frame.Empty() {
			break
		}
		if n%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, n, err
			}
		}
		if err := images.ToGray(frame, &gray); err != nil {
			return nil, n, errors.Wrapf(ErrSourceUnreadable, "frame %d: %v", n, err)
		}
		var score float64
		if n > 0 {
			score, err = estimator.Score(prev, gray)
			if err != nil {
				return nil, n, errors.Wrapf(ErrSourceUnreadable, "frame %d: %v", n, err)
			}
		}
		segmenter.Push(score)
		gray.CopyTo(&prev)
		n++
	}
	if n == 0 {
		return nil, 0, errors.Wrapf(ErrSourceUnreadable, "%s: no frames decoded", path)
	}
	segmenter.Flush()
	return segmenter.Intervals(), n, nil
}

// processInterval produces the artifact for interval i from its midpoint
// frame.
func (p *SilhouettePipeline) processInterval(ctx context.Context, path string, i int, iv stillness.Interval, timer *profiler.StageTimer) (Artifact, error) {
	artifact := Artifact{
		Index:      i,
		Interval:   iv,
		FrameIndex: iv.Midpoint(),
	}

	stop := timer.Track(StageSeek)
	frame, err := video.ReadFrame(p.deps.Opener, path, artifact.FrameIndex)
	stop()
	if err != nil {
		return artifact, errors.Wrapf(ErrSourceUnreadable, "frame %d: %v", artifact.FrameIndex, err)
	}
	defer frame.Close()

	framePath := p.layout.FramePath(i)
	if err := images.WriteMat(framePath, frame); err != nil {
		return artifact, errors.Wrapf(ErrArtifactWrite, "write frame %s: %v", framePath, err)
	}
	artifact.FramePath = framePath

	stop = timer.Track(StagePredict)
	extraction, err := p.deps.Extractor.Extract(ctx, frame)
	stop()
	if err != nil {
		return artifact, errors.Wrapf(ErrPredictionFailed, "segment frame %d: %v", artifact.FrameIndex, err)
	}
	defer extraction.Close()
	artifact.Confidence = extraction.Confidence

	stop = timer.Track(StageRefine)
	refined, err := p.deps.Refiner.Refine(extraction.Mask)
	stop()
	if err != nil {
		return artifact, errors.Wrapf(ErrRefinementFailed, "refine mask: %v", err)
	}
	defer refined.Close()

	stop = timer.Track(StageSelect)
	selected, component, err := images.SelectLargestComponent(refined)
	stop()
	if err != nil {
		return artifact, err
	}
	defer selected.Close()
	artifact.Component = component

	maskPath := p.layout.MaskPath(i)
	if err := vectorize.WriteBitmap(selected, maskPath); err != nil {
		return artifact, errors.Wrapf(ErrArtifactWrite, "write bitmap %s: %v", maskPath, err)
	}
	artifact.MaskPath = maskPath

	stop = timer.Track(StageVectorize)
	vectorPath, err := p.deps.Vectorizer.Vectorize(ctx, maskPath, p.layout.VectorPath(i))
	stop()
	if err != nil {
		if !errors.Is(err, ErrVectorizationFailed) {
			err = errors.Wrapf(ErrVectorizationFailed, "trace %s: %v", maskPath, err)
		}
		return artifact, err
	}
	artifact.VectorPath = vectorPath
	return artifact, nil
}
