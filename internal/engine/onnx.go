package engine

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	runtimeOnce sync.Once
	runtimeErr  error
)

// InitRuntime loads the ONNX Runtime shared library. Only the first call has
// any effect; later calls return the outcome of the first.
// An empty libraryPath leaves the platform default in place.
func InitRuntime(libraryPath string) error {
	runtimeOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		runtimeErr = ort.InitializeEnvironment()
	})
	return runtimeErr
}

// ONNX runs a model through ONNX Runtime.
//
// The session is created from in-memory model bytes and bound to the model's
// first input and first output. ONNX is not safe for concurrent use; wrap it
// in a Locked when it is shared.
type ONNX struct {
	session    *ort.DynamicAdvancedSession
	options    *ort.SessionOptions
	inputName  string
	outputName string
}

// NewONNX creates a session for the given model bytes. InitRuntime must have
// succeeded beforehand.
func NewONNX(model []byte) (*ONNX, error) {
	inputs, outputs, err := ort.GetInputOutputInfoWithONNXData(model)
	if err != nil {
		return nil, fmt.Errorf("failed to read model inputs/outputs: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("model has %d inputs and %d outputs, need at least one of each", len(inputs), len(outputs))
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	// Callers serialize Run per handle, so one thread per session is enough.
	_ = options.SetIntraOpNumThreads(1)
	_ = options.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSessionWithONNXData(
		model,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		options,
	)
	if err != nil {
		options.Destroy()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &ONNX{
		session:    session,
		options:    options,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
	}, nil
}

// Run feeds input to the model and copies the first output out of the runtime.
func (o *ONNX) Run(input Tensor) (Tensor, error) {
	if o.session == nil {
		return Tensor{}, ErrClosed
	}
	if err := input.Validate(); err != nil {
		return Tensor{}, err
	}

	in, err := ort.NewTensor(ort.NewShape(input.Shape...), input.Data)
	if err != nil {
		return Tensor{}, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer in.Destroy()

	outputs := []ort.Value{nil}
	if err := o.session.Run([]ort.Value{in}, outputs); err != nil {
		return Tensor{}, fmt.Errorf("failed to run %s -> %s: %w", o.inputName, o.outputName, err)
	}
	if outputs[0] == nil {
		return Tensor{}, fmt.Errorf("model produced no output")
	}
	defer outputs[0].Destroy()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return Tensor{}, fmt.Errorf("unsupported output type %T, want float32 tensor", outputs[0])
	}

	shape := out.GetShape()
	data := out.GetData()
	result := Tensor{
		Shape: append([]int64(nil), shape...),
		Data:  make([]float32, len(data)),
	}
	copy(result.Data, data)
	return result, nil
}

// Close destroys the session and its options.
func (o *ONNX) Close() error {
	var err error
	if o.session != nil {
		err = o.session.Destroy()
		o.session = nil
	}
	if o.options != nil {
		if e := o.options.Destroy(); err == nil {
			err = e
		}
		o.options = nil
	}
	return err
}
