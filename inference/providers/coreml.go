package providers

// CoreML flag bits, from onnxruntime's coreml_provider_factory.h.
const (
	coreMLFlagUseCPUOnly        uint32 = 0x001
	coreMLFlagEnableOnSubgraph  uint32 = 0x002
	coreMLFlagOnlyANECompatible uint32 = 0x004
	coreMLFlagStaticInputShapes uint32 = 0x008
	coreMLFlagCreateMLProgram   uint32 = 0x010
	coreMLFlagUseCPUAndGPU      uint32 = 0x020
)

// CoreMLOptions contains arguments for the CoreML provider.
// See: https://onnxruntime.ai/docs/execution-providers/CoreML-ExecutionProvider.html
type CoreMLOptions struct {
	// Limit CoreML to running on CPU only.
	CPUOnly bool `json:"cpu_only" yaml:"cpu_only"`
	// Limit CoreML to CPU and GPU, skipping the Neural Engine.
	CPUAndGPU bool `json:"cpu_and_gpu" yaml:"cpu_and_gpu"`
	// Enable CoreML EP to run on subgraphs of control flow operators.
	EnableOnSubgraphs bool `json:"enable_on_subgraphs" yaml:"enable_on_subgraphs"`
	// Only take nodes that are compatible with the Apple Neural Engine.
	OnlyANECompatible bool `json:"only_ane_compatible" yaml:"only_ane_compatible"`
	// Only take nodes with static input shapes.
	RequireStaticInputShapes bool `json:"require_static_input_shapes" yaml:"require_static_input_shapes"`
	// Create an MLProgram format model instead of a NeuralNetwork.
	MLProgram bool `json:"ml_program" yaml:"ml_program"`
}

// Flags packs the options into the bit set accepted by the CoreML provider.
func (o CoreMLOptions) Flags() uint32 {
	var flags uint32
	set := func(on bool, bit uint32) {
		if on {
			flags |= bit
		}
	}
	set(o.CPUOnly, coreMLFlagUseCPUOnly)
	set(o.EnableOnSubgraphs, coreMLFlagEnableOnSubgraph)
	set(o.OnlyANECompatible, coreMLFlagOnlyANECompatible)
	set(o.RequireStaticInputShapes, coreMLFlagStaticInputShapes)
	set(o.MLProgram, coreMLFlagCreateMLProgram)
	set(o.CPUAndGPU, coreMLFlagUseCPUAndGPU)
	return flags
}
