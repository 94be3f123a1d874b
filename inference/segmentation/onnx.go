package segmentation

import (
	"context"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-stillpose/inference"
	"github.com/nvr-ai/go-stillpose/inference/providers"
)

// ModelConfig locates a segmentation model and its node names.
type ModelConfig struct {
	// Backend selects the runtime: "onnx" for onnxruntime or "dnn" for OpenCV DNN.
	Backend string `json:"backend" yaml:"backend"`
	// ModelPath is the ONNX file.
	ModelPath string `json:"model_path" yaml:"model_path"`
	// InputName is the image input node.
	InputName string `json:"input_name" yaml:"input_name"`
	// OutputName is the per-class score output node.
	OutputName string `json:"output_name" yaml:"output_name"`
	// DNNBackend and DNNTarget select the OpenCV DNN backend and target.
	DNNBackend string `json:"dnn_backend" yaml:"dnn_backend"`
	DNNTarget  string `json:"dnn_target" yaml:"dnn_target"`
}

// Backends.
const (
	BackendONNX = "onnx"
	BackendDNN  = "dnn"
)

// DefaultModelConfig returns the node names of a torchvision DeepLabV3 export.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Backend:    BackendONNX,
		ModelPath:  "models/deeplabv3_resnet101.onnx",
		InputName:  "input",
		OutputName: "out",
		DNNBackend: "default",
		DNNTarget:  "cpu",
	}
}

// NewClassifier opens the classifier selected by cfg.Backend.
func NewClassifier(cfg ModelConfig, provider providers.Config) (inference.PixelClassifier, error) {
	switch cfg.Backend {
	case BackendONNX, "":
		return NewONNXClassifier(cfg, provider)
	case BackendDNN:
		return NewDNNClassifier(cfg)
	}
	return nil, errors.Errorf("unsupported segmentation backend %q", cfg.Backend)
}

// ONNXClassifier runs a segmentation model on onnxruntime.
type ONNXClassifier struct {
	session *providers.Session
}

// NewONNXClassifier loads the model into an onnxruntime session.
//
// Arguments:
//   - cfg: The model location and node names.
//   - provider: The execution provider configuration.
//
// Returns:
//   - *ONNXClassifier: The classifier.
//   - error: An error if the session cannot be created.
func NewONNXClassifier(cfg ModelConfig, provider providers.Config) (*ONNXClassifier, error) {
	session, err := providers.NewSession(provider, providers.NewSessionArgs{
		ModelPath: cfg.ModelPath,
		Inputs:    []string{cfg.InputName},
		Outputs:   []string{cfg.OutputName},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create segmentation session")
	}
	return &ONNXClassifier{session: session}, nil
}

// Classify implements inference.PixelClassifier.
func (c *ONNXClassifier) Classify(ctx context.Context, input inference.Tensor) (*inference.ScoreMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	in, err := ort.NewTensor(ort.NewShape(input.Shape()...), input.Data)
	if err != nil {
		return nil, errors.Wrap(err, "error creating input tensor")
	}
	defer in.Destroy()

	outputs, err := c.session.Run(in)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, o := range outputs {
			o.Destroy()
		}
	}()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, errors.Errorf("unexpected output type %T", outputs[0])
	}
	shape := out.GetShape()
	if len(shape) != 4 || shape[0] != 1 {
		return nil, errors.Errorf("expected a [1, C, H, W] output, got %v", shape)
	}

	// The tensor is destroyed on return; copy the scores out.
	data := append([]float32(nil), out.GetData()...)
	return inference.NewScoreMap(int(shape[1]), int(shape[2]), int(shape[3]), data)
}

// Close releases the session.
func (c *ONNXClassifier) Close() error {
	return c.session.Close()
}
