package pipeline

import (
	"context"
	"encoding/json"
	"image"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-stillpose/inference"
	"github.com/nvr-ai/go-stillpose/logging"
	"github.com/nvr-ai/go-stillpose/profiler"
	"github.com/nvr-ai/go-stillpose/video"
)

// StagePose is the profiler stage for keypoint estimation.
const StagePose = "pose"

// FramePose holds the keypoints estimated for one frame. Frames are numbered
// from 1.
type FramePose struct {
	Frame     int                  `json:"frame"`
	Keypoints []inference.Keypoint `json:"keypoints"`
}

// PoseResult describes a pose export run.
type PoseResult struct {
	RunID      string      `json:"run_id"`
	Source     string      `json:"source"`
	OutputPath string      `json:"output_path"`
	Frames     []FramePose `json:"frames"`
}

// PosePipeline estimates keypoints on every frame of a video and writes them
// to poses/<video>_poses.json.
type PosePipeline struct {
	opener    video.Opener
	estimator inference.PoseEstimator
	uploadDir string
	layout    Layout
	logger    zerolog.Logger
}

// NewPosePipeline creates a pose pipeline. Only UploadDir and OutputDir of
// opts are used.
func NewPosePipeline(opener video.Opener, estimator inference.PoseEstimator, opts Options, logger zerolog.Logger) (*PosePipeline, error) {
	if opener == nil {
		return nil, errors.New("video opener is required")
	}
	if estimator == nil {
		return nil, errors.New("pose estimator is required")
	}
	if opts.UploadDir == "" || opts.OutputDir == "" {
		return nil, errors.New("upload and output dirs must be set")
	}
	return &PosePipeline{
		opener:    opener,
		estimator: estimator,
		uploadDir: opts.UploadDir,
		layout:    Layout{Root: opts.OutputDir},
		logger:    logging.WithComponent(logger, "pose"),
	}, nil
}

// Run estimates poses for every frame of filename and writes the JSON file.
// Any estimation failure aborts the run and nothing is written.
func (p *PosePipeline) Run(ctx context.Context, filename string) (*PoseResult, error) {
	result := &PoseResult{RunID: uuid.NewString(), Source: filename}
	logger := logging.WithRunID(p.logger, result.RunID).With().Str("source", filename).Logger()
	timer := profiler.NewStageTimer()

	path, err := resolveSource(p.uploadDir, filename)
	if err != nil {
		return nil, err
	}
	if err := p.layout.Ensure(); err != nil {
		return nil, err
	}

	src, err := p.opener.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrSourceUnreadable, "open %s: %v", path, err)
	}
	defer src.Close()

	size := p.estimator.InputSize()
	frame := gocv.NewMat()
	defer frame.Close()
	resized := gocv.NewMat()
	defer resized.Close()

	for src.Read(&frame) {
		if frame.Empty() {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := len(result.Frames) + 1

		gocv.Resize(frame, &resized, image.Pt(size, size), 0, 0, gocv.InterpolationLinear)
		img, err := resized.ToImage()
		if err != nil {
			return nil, errors.Wrapf(ErrSourceUnreadable, "frame %d: %v", n, err)
		}

		stop := timer.Track(StagePose)
		keypoints, err := p.estimator.Estimate(ctx, img)
		stop()
		if err != nil {
			return nil, errors.Wrapf(ErrPredictionFailed, "frame %d: %v", n, err)
		}
		result.Frames = append(result.Frames, FramePose{Frame: n, Keypoints: keypoints})
	}
	if len(result.Frames) == 0 {
		return nil, errors.Wrapf(ErrSourceUnreadable, "%s: no frames decoded", path)
	}

	result.OutputPath = p.layout.PosesPath(filename)
	if err := writeJSON(result.OutputPath, result.Frames); err != nil {
		return nil, err
	}

	timer.Report(logger)
	logger.Info().
		Int("frames", len(result.Frames)).
		Str("output", result.OutputPath).
		Msg("pose export complete")
	return result, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(ErrArtifactWrite, "create %s: %v", path, err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return errors.Wrapf(ErrArtifactWrite, "encode %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(ErrArtifactWrite, "close %s: %v", path, err)
	}
	return nil
}
