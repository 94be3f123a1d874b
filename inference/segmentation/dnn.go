package segmentation

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-stillpose/inference"
)

// DNNClassifier runs a segmentation model with OpenCV's DNN module. It needs no
// onnxruntime library, at the cost of slower inference.
type DNNClassifier struct {
	mu     sync.Mutex
	net    gocv.Net
	output string
}

// NewDNNClassifier loads the ONNX model with gocv.ReadNetFromONNX.
//
// Arguments:
//   - cfg: The model location, output node and DNN backend/target.
//
// Returns:
//   - *DNNClassifier: The classifier.
//   - error: An error if the model cannot be loaded.
func NewDNNClassifier(cfg ModelConfig) (*DNNClassifier, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, errors.Wrapf(err, "model not found at %s", cfg.ModelPath)
	}
	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, errors.Errorf("failed to load model %s", cfg.ModelPath)
	}
	net.SetPreferableBackend(gocv.ParseNetBackend(cfg.DNNBackend))
	net.SetPreferableTarget(gocv.ParseNetTarget(cfg.DNNTarget))

	return &DNNClassifier{net: net, output: cfg.OutputName}, nil
}

// Classify implements inference.PixelClassifier.
func (c *DNNClassifier) Classify(ctx context.Context, input inference.Tensor) (*inference.ScoreMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blob := gocv.NewMatWithSizes([]int{1, input.Channels, input.Height, input.Width}, gocv.MatTypeCV32F)
	defer blob.Close()
	dst, err := blob.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrap(err, "failed to access input blob")
	}
	copy(dst, input.Data)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.net.SetInput(blob, "")
	out := c.net.Forward(c.output)
	defer out.Close()

	sizes := out.Size()
	if len(sizes) != 4 || sizes[0] != 1 {
		return nil, errors.Errorf("expected a [1, C, H, W] output, got %v", sizes)
	}
	scores, err := out.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read output blob")
	}
	data := append([]float32(nil), scores...)
	return inference.NewScoreMap(sizes[1], sizes[2], sizes[3], data)
}

// Close releases the network.
func (c *DNNClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.net.Close()
}
