package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-stillpose/inference/providers"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, float32(10), cfg.Pipeline.NoiseThreshold)
	assert.Equal(t, 0.02, cfg.Pipeline.Stillness.MotionThreshold)
	assert.Equal(t, 5, cfg.Pipeline.Stillness.MinLength)
	assert.Equal(t, 5, cfg.Refiner.BlurKernel)
	assert.Equal(t, float32(30), cfg.Refiner.Threshold)
	assert.Equal(t, 5, cfg.Refiner.CloseKernel)
	assert.Equal(t, 520, cfg.Segmentation.ShortSide)
	assert.Equal(t, "person", cfg.Segmentation.PersonLabel)
	assert.Equal(t, 192, cfg.Pose.InputSize)
	assert.Equal(t, "potrace", cfg.Vectorizer.Binary)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stillpose.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
log_format: json
pipeline:
  upload_dir: /data/in
  noise_threshold: 12
  stillness:
    motion_threshold: 0.05
refiner:
  blur_kernel: 7
segmentation:
  short_side: 480
  model:
    backend: dnn
runtime:
  backend: cuda
  cuda:
    device_id: 1
vectorizer:
  args: ["--turdsize", "4"]
`), 0o644))

	t.Setenv(EnvOutputDir, "/data/out")
	t.Setenv(EnvMinLength, "8")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "/data/in", cfg.Pipeline.UploadDir)
	assert.Equal(t, "/data/out", cfg.Pipeline.OutputDir)
	assert.Equal(t, float32(12), cfg.Pipeline.NoiseThreshold)
	assert.Equal(t, 0.05, cfg.Pipeline.Stillness.MotionThreshold)
	assert.Equal(t, 8, cfg.Pipeline.Stillness.MinLength)
	assert.Equal(t, 7, cfg.Refiner.BlurKernel)
	assert.Equal(t, float32(30), cfg.Refiner.Threshold, "unset fields keep defaults")
	assert.Equal(t, 480, cfg.Segmentation.ShortSide)
	assert.Equal(t, "person", cfg.Segmentation.PersonLabel)
	assert.Equal(t, "dnn", cfg.Segmentation.Model.Backend)
	assert.Equal(t, "out", cfg.Segmentation.Model.OutputName)
	assert.Equal(t, providers.CUDAProviderBackend, cfg.Runtime.Backend)
	assert.Equal(t, 1, cfg.Runtime.CUDA.DeviceID)
	assert.Equal(t, []string{"--turdsize", "4"}, cfg.Vectorizer.Args)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("pipeline: ["), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	invalid := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("refiner:\n  blur_kernel: 4\n"), 0o644))
	_, err = Load(invalid)
	assert.ErrorContains(t, err, "refiner")

	ok := filepath.Join(t.TempDir(), "ok.yaml")
	require.NoError(t, os.WriteFile(ok, []byte("log_level: info\n"), 0o644))
	t.Setenv(EnvMotionThreshold, "fast")
	_, err = Load(ok)
	assert.ErrorContains(t, err, EnvMotionThreshold)
}

func TestValidateRejects(t *testing.T) {
	tests := map[string]func(*Config){
		"log format":   func(c *Config) { c.LogFormat = "xml" },
		"min length":   func(c *Config) { c.Pipeline.Stillness.MinLength = 0 },
		"short side":   func(c *Config) { c.Segmentation.ShortSide = 0 },
		"person label": func(c *Config) { c.Segmentation.PersonLabel = "" },
		"seg backend":  func(c *Config) { c.Segmentation.Model.Backend = "tflite" },
		"pose size":    func(c *Config) { c.Pose.InputSize = -1 },
		"provider":     func(c *Config) { c.Runtime.Backend = "tpu" },
		"vectorizer":   func(c *Config) { c.Vectorizer.Binary = "" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Pipeline.UploadDir = "videos"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "videos", loaded.Pipeline.UploadDir)
	assert.Equal(t, cfg.Segmentation, loaded.Segmentation)
}
