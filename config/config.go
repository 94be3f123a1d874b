// Package config loads stillpose settings from defaults, an optional YAML file
// and STILLPOSE_* environment variables, in that order.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-stillpose/images"
	"github.com/nvr-ai/go-stillpose/inference/pose"
	"github.com/nvr-ai/go-stillpose/inference/providers"
	"github.com/nvr-ai/go-stillpose/inference/segmentation"
	"github.com/nvr-ai/go-stillpose/logging"
	"github.com/nvr-ai/go-stillpose/pipeline"
	"github.com/nvr-ai/go-stillpose/vectorize"
)

// Environment variables read by Load.
const (
	EnvLogLevel          = "STILLPOSE_LOG_LEVEL"
	EnvLogFormat         = "STILLPOSE_LOG_FORMAT"
	EnvUploadDir         = "STILLPOSE_UPLOAD_DIR"
	EnvOutputDir         = "STILLPOSE_OUTPUT_DIR"
	EnvCatalogPath       = "STILLPOSE_CATALOG_PATH"
	EnvMotionThreshold   = "STILLPOSE_MOTION_THRESHOLD"
	EnvMinLength         = "STILLPOSE_MIN_LENGTH"
	EnvSegmentationModel = "STILLPOSE_SEGMENTATION_MODEL"
	EnvPoseModel         = "STILLPOSE_POSE_MODEL"
	EnvBackend           = "STILLPOSE_BACKEND"
	EnvPotrace           = "STILLPOSE_POTRACE"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "stillpose.yaml"

// Config holds all application configuration.
type Config struct {
	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogFormat string `yaml:"log_format" json:"log_format"`
	// CatalogPath is the SQLite run catalog. Empty disables recording.
	CatalogPath string `yaml:"catalog_path" json:"catalog_path"`

	Pipeline     pipeline.Options     `yaml:"pipeline" json:"pipeline"`
	Refiner      images.RefinerConfig `yaml:"refiner" json:"refiner"`
	Segmentation SegmentationConfig   `yaml:"segmentation" json:"segmentation"`
	Pose         pose.Config          `yaml:"pose" json:"pose"`
	Runtime      providers.Config     `yaml:"runtime" json:"runtime"`
	Vectorizer   VectorizerConfig     `yaml:"vectorizer" json:"vectorizer"`
}

// SegmentationConfig combines the extractor tunables with the model location.
type SegmentationConfig struct {
	segmentation.Config `yaml:",inline"`
	Model               segmentation.ModelConfig `yaml:"model" json:"model"`
}

// VectorizerConfig locates the tracer binary.
type VectorizerConfig struct {
	Binary string   `yaml:"binary" json:"binary"`
	Args   []string `yaml:"args" json:"args"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		LogLevel:    "info",
		LogFormat:   logging.FormatConsole,
		CatalogPath: filepath.Join("outputs", "catalog.db"),
		Pipeline:    pipeline.DefaultOptions(),
		Refiner:     images.DefaultRefinerConfig(),
		Segmentation: SegmentationConfig{
			Config: segmentation.DefaultConfig(),
			Model:  segmentation.DefaultModelConfig(),
		},
		Pose:    pose.DefaultConfig(),
		Runtime: providers.DefaultConfig(),
		Vectorizer: VectorizerConfig{
			Binary: vectorize.DefaultPotraceBinary,
		},
	}
}

// Load builds the configuration. An empty path falls back to DefaultFile when
// it exists; an explicit path must exist.
//
// Arguments:
//   - path: The YAML file, or "".
//
// Returns:
//   - *Config: Defaults overlaid with the file and the environment.
//   - error: An error if the file or an environment value is invalid, or the
//     result fails validation.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s", path)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		EnvLogLevel:          &c.LogLevel,
		EnvLogFormat:         &c.LogFormat,
		EnvUploadDir:         &c.Pipeline.UploadDir,
		EnvOutputDir:         &c.Pipeline.OutputDir,
		EnvCatalogPath:       &c.CatalogPath,
		EnvSegmentationModel: &c.Segmentation.Model.ModelPath,
		EnvPoseModel:         &c.Pose.ModelPath,
		EnvPotrace:           &c.Vectorizer.Binary,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	if v := os.Getenv(EnvBackend); v != "" {
		c.Runtime.Backend = providers.ProviderBackend(v)
	}
	if v := os.Getenv(EnvMotionThreshold); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", EnvMotionThreshold)
		}
		c.Pipeline.Stillness.MotionThreshold = f
	}
	if v := os.Getenv(EnvMinLength); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", EnvMinLength)
		}
		c.Pipeline.Stillness.MinLength = n
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	switch c.LogFormat {
	case logging.FormatJSON, logging.FormatConsole:
	default:
		return errors.Errorf("unsupported log format %q", c.LogFormat)
	}
	if err := c.Pipeline.Validate(); err != nil {
		return errors.Wrap(err, "pipeline")
	}
	if err := c.Refiner.Validate(); err != nil {
		return errors.Wrap(err, "refiner")
	}
	if c.Segmentation.ShortSide <= 0 {
		return errors.Errorf("segmentation: short side must be positive, got %d", c.Segmentation.ShortSide)
	}
	if c.Segmentation.PersonLabel == "" {
		return errors.New("segmentation: person label must be set")
	}
	switch c.Segmentation.Model.Backend {
	case segmentation.BackendONNX, segmentation.BackendDNN:
	default:
		return errors.Errorf("segmentation: unsupported backend %q", c.Segmentation.Model.Backend)
	}
	if c.Pose.InputSize <= 0 {
		return errors.Errorf("pose: input size must be positive, got %d", c.Pose.InputSize)
	}
	if err := c.Runtime.Validate(); err != nil {
		return errors.Wrap(err, "runtime")
	}
	if c.Vectorizer.Binary == "" {
		return errors.New("vectorizer: binary must be set")
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to encode config")
	}
	return os.WriteFile(path, data, 0o644)
}
