// Package pose runs single-person keypoint models.
package pose

import (
	"context"
	"image"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-stillpose/images"
	"github.com/nvr-ai/go-stillpose/inference"
	"github.com/nvr-ai/go-stillpose/inference/providers"
	"github.com/nvr-ai/go-stillpose/models"
)

// Config locates a MoveNet model.
type Config struct {
	// ModelPath is the ONNX file.
	ModelPath string `json:"model_path" yaml:"model_path"`
	// InputName is the image input node.
	InputName string `json:"input_name" yaml:"input_name"`
	// OutputName is the keypoint output node.
	OutputName string `json:"output_name" yaml:"output_name"`
	// InputSize is the square side frames are resized to.
	InputSize int `json:"input_size" yaml:"input_size"`
}

// DefaultConfig returns the settings of the MoveNet Lightning export.
func DefaultConfig() Config {
	return Config{
		ModelPath:  "models/movenet_singlepose_lightning.onnx",
		InputName:  "input",
		OutputName: "output_0",
		InputSize:  192,
	}
}

// MoveNet estimates 17 COCO keypoints for the most prominent person.
type MoveNet struct {
	session *providers.Session
	size    int
}

// NewMoveNet loads the model into an onnxruntime session.
//
// Arguments:
//   - cfg: The model location, node names and input size.
//   - provider: The execution provider configuration.
//
// Returns:
//   - *MoveNet: The estimator.
//   - error: An error if the configuration is invalid or the session fails.
func NewMoveNet(cfg Config, provider providers.Config) (*MoveNet, error) {
	if cfg.InputSize <= 0 {
		return nil, errors.Errorf("invalid input size %d", cfg.InputSize)
	}
	session, err := providers.NewSession(provider, providers.NewSessionArgs{
		ModelPath: cfg.ModelPath,
		Inputs:    []string{cfg.InputName},
		Outputs:   []string{cfg.OutputName},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create pose session")
	}
	return &MoveNet{session: session, size: cfg.InputSize}, nil
}

// InputSize implements inference.PoseEstimator.
func (m *MoveNet) InputSize() int {
	return m.size
}

// Estimate implements inference.PoseEstimator.
func (m *MoveNet) Estimate(ctx context.Context, frame image.Image) ([]inference.Keypoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resized, err := images.ResizeExact(frame, m.size, m.size)
	if err != nil {
		return nil, err
	}

	in, err := ort.NewTensor(ort.NewShape(1, int64(m.size), int64(m.size), 3), EncodeInput(resized))
	if err != nil {
		return nil, errors.Wrap(err, "error creating input tensor")
	}
	defer in.Destroy()

	outputs, err := m.session.Run(in)
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
	return DecodeKeypoints(out.GetData())
}

// Close releases the session.
func (m *MoveNet) Close() error {
	return m.session.Close()
}

// EncodeInput packs img as an int32 NHWC tensor of RGB values in [0, 255].
func EncodeInput(img image.Image) []int32 {
	b := img.Bounds()
	data := make([]int32, 0, b.Dx()*b.Dy()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			data = append(data, int32(r>>8), int32(g>>8), int32(bl>>8))
		}
	}
	return data
}

// DecodeKeypoints reads the [1, 1, 17, 3] MoveNet output of (y, x, score) rows.
func DecodeKeypoints(data []float32) ([]inference.Keypoint, error) {
	n := models.COCOKeypoints.Len()
	if len(data) != n*3 {
		return nil, errors.Errorf("expected %d keypoint values, got %d", n*3, len(data))
	}
	kps := make([]inference.Keypoint, n)
	for i := range kps {
		kps[i] = inference.Keypoint{Y: data[i*3], X: data[i*3+1], Score: data[i*3+2]}
	}
	return kps, nil
}
