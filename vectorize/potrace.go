package vectorize

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultPotraceBinary is looked up on PATH when no binary is configured.
const DefaultPotraceBinary = "potrace"

// Potrace runs the potrace tracer as a subprocess.
type Potrace struct {
	logger zerolog.Logger
	binary string
	args   []string
}

// NewPotrace creates a tracer that runs binary. Extra arguments (for example
// "--turdsize", "4") are passed before the input file.
func NewPotrace(logger zerolog.Logger, binary string, extraArgs ...string) *Potrace {
	if binary == "" {
		binary = DefaultPotraceBinary
	}
	return &Potrace{
		logger: logger.With().Str("component", "potrace").Logger(),
		binary: binary,
		args:   extraArgs,
	}
}

// Check reports whether the potrace binary can be found.
func (p *Potrace) Check() error {
	if _, err := exec.LookPath(p.binary); err != nil {
		return errors.Wrapf(ErrVectorizationFailed, "potrace not found: %v", err)
	}
	return nil
}

// Vectorize runs "potrace <bitmap> --svg -o <output>".
//
// Arguments:
//   - ctx: Cancels the subprocess.
//   - bitmapPath: A PGM/PBM/BMP bitmap, black foreground on white.
//   - outputPath: The SVG file to write.
//
// Returns:
//   - string: outputPath.
//   - error: ErrVectorizationFailed, wrapped with the tracer's stderr.
func (p *Potrace) Vectorize(ctx context.Context, bitmapPath, outputPath string) (string, error) {
	path, err := exec.LookPath(p.binary)
	if err != nil {
		return "", errors.Wrapf(ErrVectorizationFailed, "potrace not found: %v", err)
	}

	args := append(append([]string{}, p.args...), bitmapPath, "--svg", "-o", outputPath)

	p.logger.Debug().
		Str("cmd", path).
		Strs("args", args).
		Msg("executing potrace")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", errors.Wrapf(ErrVectorizationFailed, "potrace: %v: %s", err, strings.TrimSpace(stderr.String()))
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		return "", errors.Wrapf(ErrVectorizationFailed, "potrace produced no output at %s", outputPath)
	}
	return outputPath, nil
}
