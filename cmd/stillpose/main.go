// Command stillpose extracts traced silhouettes from the still moments of a
// video and exports per-frame pose keypoints.
//
// Usage:
//
//	stillpose extract [flags] <video>
//	stillpose poses   [flags] <video>
//	stillpose runs    [flags]
//
// Videos are looked up by name inside the upload directory. Artifacts are
// written below the output directory.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/nvr-ai/go-stillpose/catalog"
	"github.com/nvr-ai/go-stillpose/config"
	"github.com/nvr-ai/go-stillpose/images"
	"github.com/nvr-ai/go-stillpose/inference/pose"
	"github.com/nvr-ai/go-stillpose/inference/providers"
	"github.com/nvr-ai/go-stillpose/inference/segmentation"
	"github.com/nvr-ai/go-stillpose/logging"
	"github.com/nvr-ai/go-stillpose/pipeline"
	"github.com/nvr-ai/go-stillpose/vectorize"
	"github.com/nvr-ai/go-stillpose/video"
)

const usage = `usage: stillpose <command> [flags]

commands:
  extract <video>   trace one silhouette per still interval
  poses <video>     write per-frame keypoints to poses/<video>_poses.json
  runs              list recorded extraction runs

run "stillpose <command> -h" for command flags`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "extract":
		err = runExtract(ctx, os.Args[2:], os.Stdout)
	case "poses":
		err = runPoses(ctx, os.Args[2:], os.Stdout)
	case "runs":
		err = runList(ctx, os.Args[2:], os.Stdout)
	case "-h", "-help", "--help", "help":
		fmt.Fprintln(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s\n", os.Args[1], usage)
		os.Exit(2)
	}

	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "stillpose %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

// commonFlags are accepted by every command and override the config file and
// environment.
type commonFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	uploadDir  string
	outputDir  string
	catalog    string
	backend    string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "Path to a YAML config file (default ./"+config.DefaultFile+" if present)")
	fs.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&c.logFormat, "log-format", "", "Log format: console or json")
	fs.StringVar(&c.uploadDir, "upload-dir", "", "Directory videos are read from")
	fs.StringVar(&c.outputDir, "output-dir", "", "Directory artifacts are written to")
	fs.StringVar(&c.catalog, "catalog", "", "SQLite run catalog path")
	fs.StringVar(&c.backend, "backend", "", "Execution provider: cpu, cuda, coreml, openvino")
}

// load reads the configuration and applies the flags that were set.
func (c *commonFlags) load() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.LogLevel, c.logLevel)
	set(&cfg.LogFormat, c.logFormat)
	set(&cfg.Pipeline.UploadDir, c.uploadDir)
	set(&cfg.Pipeline.OutputDir, c.outputDir)
	set(&cfg.CatalogPath, c.catalog)
	if c.backend != "" {
		cfg.Runtime.Backend = providers.ProviderBackend(c.backend)
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logging.New(cfg.LogFormat, cfg.LogLevel), nil
}

func parseWithVideo(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return "", errors.New("expected exactly one video name")
	}
	return fs.Arg(0), nil
}

func runExtract(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	var (
		common          commonFlags
		motionThreshold float64
		minLength       int
		noCatalog       bool
	)
	common.register(fs)
	fs.Float64Var(&motionThreshold, "motion-threshold", 0, "Changed-pixel fraction at or above which a frame counts as motion")
	fs.IntVar(&minLength, "min-length", 0, "Minimum still run length in frames")
	fs.BoolVar(&noCatalog, "no-catalog", false, "Do not record the run in the catalog")

	filename, err := parseWithVideo(fs, args)
	if err != nil {
		return err
	}
	cfg, logger, err := common.load()
	if err != nil {
		return err
	}
	if motionThreshold > 0 {
		cfg.Pipeline.Stillness.MotionThreshold = motionThreshold
	}
	if minLength > 0 {
		cfg.Pipeline.Stillness.MinLength = minLength
	}

	classifier, err := segmentation.NewClassifier(cfg.Segmentation.Model, cfg.Runtime)
	if err != nil {
		return err
	}
	defer classifier.Close()

	extractor, err := segmentation.NewExtractor(classifier, cfg.Segmentation.Config)
	if err != nil {
		return err
	}
	refiner, err := images.NewMaskRefiner(cfg.Refiner)
	if err != nil {
		return err
	}
	defer refiner.Close()

	tracer := vectorize.NewPotrace(logger, cfg.Vectorizer.Binary, cfg.Vectorizer.Args...)
	if err := tracer.Check(); err != nil {
		return err
	}

	deps := pipeline.Dependencies{
		Opener:     video.FileOpener{},
		Extractor:  extractor,
		Refiner:    refiner,
		Vectorizer: tracer,
	}
	if !noCatalog && cfg.CatalogPath != "" {
		cat, err := catalog.Open(cfg.CatalogPath, logger)
		if err != nil {
			return err
		}
		defer cat.Close()
		deps.Recorder = cat
	}

	p, err := pipeline.NewSilhouettePipeline(deps, cfg.Pipeline, logger)
	if err != nil {
		return err
	}
	result, err := p.Run(ctx, filename)
	if err != nil {
		return err
	}
	return writeJSON(out, struct {
		*pipeline.Result
		Files []string `json:"files"`
	}{result, result.Files()})
}

func runPoses(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("poses", flag.ContinueOnError)
	var (
		common    commonFlags
		modelPath string
	)
	common.register(fs)
	fs.StringVar(&modelPath, "model", "", "MoveNet ONNX model path")

	filename, err := parseWithVideo(fs, args)
	if err != nil {
		return err
	}
	cfg, logger, err := common.load()
	if err != nil {
		return err
	}
	if modelPath != "" {
		cfg.Pose.ModelPath = modelPath
	}

	estimator, err := pose.NewMoveNet(cfg.Pose, cfg.Runtime)
	if err != nil {
		return err
	}
	defer estimator.Close()

	p, err := pipeline.NewPosePipeline(video.FileOpener{}, estimator, cfg.Pipeline, logger)
	if err != nil {
		return err
	}
	result, err := p.Run(ctx, filename)
	if err != nil {
		return err
	}
	return writeJSON(out, struct {
		RunID  string `json:"run_id"`
		Output string `json:"output"`
		Frames int    `json:"frames"`
	}{result.RunID, result.OutputPath, len(result.Frames)})
}

func runList(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	var (
		common commonFlags
		limit  int
		runID  string
	)
	common.register(fs)
	fs.IntVar(&limit, "limit", 20, "Maximum number of runs to list (0 for all)")
	fs.StringVar(&runID, "run", "", "List the silhouettes of this run instead")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, logger, err := common.load()
	if err != nil {
		return err
	}
	if cfg.CatalogPath == "" {
		return errors.New("no catalog configured")
	}

	cat, err := catalog.Open(cfg.CatalogPath, logger)
	if err != nil {
		return err
	}
	defer cat.Close()

	if runID != "" {
		if _, err := cat.GetRun(ctx, runID); err != nil {
			return err
		}
		sils, err := cat.ListSilhouettes(ctx, runID)
		if err != nil {
			return err
		}
		return writeJSON(out, sils)
	}
	runs, err := cat.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	return writeJSON(out, runs)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
