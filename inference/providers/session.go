// Package providers - Inference sessions.
package providers

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

var envMu sync.Mutex

// InitializeEnvironment points onnxruntime at its shared library and prepares the
// native environment. It is safe to call repeatedly; only the first call loads
// the library.
//
// Arguments:
//   - libPath: The shared library path; empty selects GetSharedLibPath().
//
// Returns:
//   - error: An error if the library is missing or fails to load.
func InitializeEnvironment(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if libPath == "" {
		libPath = GetSharedLibPath()
	}
	if _, err := os.Stat(libPath); err != nil {
		return errors.Wrapf(err, "ONNX Runtime library not found at %s", libPath)
	}

	// Point ONNX Runtime to the exact shared library path (overrides default search).
	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrap(err, "error initializing ORT environment")
	}
	return nil
}

// Session wraps a dynamic onnxruntime session. Inputs and outputs are bound per
// call, so one session serves frames of any size the model accepts.
//
// Run calls are serialized: the accelerator is not invoked concurrently.
type Session struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
	inputs  []string
	outputs []string
}

// NewSessionArgs represents the arguments for creating a new Session.
type NewSessionArgs struct {
	// The path to the ONNX model file.
	ModelPath string
	// The input node names expected by the model.
	Inputs []string
	// The output node names to fetch.
	Outputs []string
}

// NewSession creates a new ONNX session.
//
// Order of operations:
//  1. Environment setup: loads the native runtime once per process.
//  2. Session options: threading, graph optimization and execution provider.
//  3. Session creation: loads the model and validates the node names.
//
// Arguments:
//   - cfg: The provider configuration.
//   - args: The model and its node names.
//
// Returns:
//   - *Session: The session, ready for Run.
//   - error: An error if the session creation fails.
func NewSession(cfg Config, args NewSessionArgs) (*Session, error) {
	if args.ModelPath == "" {
		return nil, errors.New("model path is required")
	}
	if len(args.Inputs) == 0 || len(args.Outputs) == 0 {
		return nil, errors.New("input and output names are required")
	}
	if _, err := os.Stat(args.ModelPath); err != nil {
		return nil, errors.Wrapf(err, "model not found at %s", args.ModelPath)
	}

	if err := InitializeEnvironment(cfg.LibraryPath); err != nil {
		return nil, err
	}

	options, err := NewSessionOptions(cfg)
	if err != nil {
		return nil, err
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(args.ModelPath, args.Inputs, args.Outputs, options)
	if err != nil {
		return nil, errors.Wrapf(err, "error creating ORT session for %s", args.ModelPath)
	}

	return &Session{
		session: session,
		inputs:  args.Inputs,
		outputs: args.Outputs,
	}, nil
}

// Run executes the model. Outputs are allocated by onnxruntime and owned by the
// caller, who must Destroy each of them.
//
// Arguments:
//   - inputs: One value per input name, in order.
//
// Returns:
//   - []ort.Value: One value per output name, in order.
//   - error: An error if the input count is wrong or inference fails.
func (s *Session) Run(inputs ...ort.Value) ([]ort.Value, error) {
	if len(inputs) != len(s.inputs) {
		return nil, errors.Errorf("expected %d inputs, got %d", len(s.inputs), len(inputs))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, errors.New("session is closed")
	}

	outputs := make([]ort.Value, len(s.outputs))
	if err := s.session.Run(inputs, outputs); err != nil {
		destroyValues(outputs)
		return nil, errors.Wrap(err, "error running ORT session")
	}
	return outputs, nil
}

// Close releases the native session.
//
// Returns:
//   - error: An error if the session cannot be destroyed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	if err != nil {
		return errors.Wrap(err, "error destroying ORT session")
	}
	return nil
}

func destroyValues(values []ort.Value) {
	for _, v := range values {
		if v != nil {
			v.Destroy()
		}
	}
}
