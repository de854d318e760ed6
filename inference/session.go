package inference

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// Options configures the matting model session.
type Options struct {
	ModelPath  string
	Device     string // auto, cpu or cuda
	PoolSize   int
	InputSize  int
	InputName  string
	OutputName string
}

func (o *Options) applyDefaults() {
	if o.InputSize <= 0 {
		o.InputSize = DefaultInputSize
	}
	if o.PoolSize <= 0 {
		o.PoolSize = 1
	}
	if o.InputName == "" {
		o.InputName = DefaultInputName
	}
	if o.OutputName == "" {
		o.OutputName = DefaultOutputName
	}
}

// ModelSession bundles one ONNX session with its pre-allocated input and
// output tensors. A session must never run two forward passes at once;
// exclusivity is enforced by the SessionPool.
type ModelSession struct {
	Session *ort.AdvancedSession
	Input   *ort.Tensor[float32]
	Output  *ort.Tensor[float32]
}

func (m *ModelSession) Destroy() {
	if m.Session != nil {
		m.Session.Destroy()
	}
	if m.Input != nil {
		m.Input.Destroy()
	}
	if m.Output != nil {
		m.Output.Destroy()
	}
}

// resolveDevice maps the configured device to the provider actually used.
// "auto" probes for CUDA and falls back to the CPU provider.
func resolveDevice(device string) (string, error) {
	switch device {
	case "", "auto":
		cudaOpts, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return "cpu", nil
		}
		_ = cudaOpts.Destroy()
		return "cuda", nil
	case "cpu", "cuda":
		return device, nil
	default:
		return "", fmt.Errorf("unknown device %q (want auto, cpu or cuda)", device)
	}
}

func newSession(opts Options) (*ModelSession, error) {
	sessionOpts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating session options: %w", err)
	}
	defer sessionOpts.Destroy()

	if opts.Device == "cuda" {
		cudaOpts, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return nil, fmt.Errorf("error creating CUDA provider options: %w", err)
		}
		defer cudaOpts.Destroy()
		if err := sessionOpts.AppendExecutionProviderCUDA(cudaOpts); err != nil {
			return nil, fmt.Errorf("error appending CUDA provider: %w", err)
		}
	}

	size := int64(opts.InputSize)
	inputShape := ort.NewShape(1, 3, size, size)
	outputShape := ort.NewShape(1, 1, size, size)

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("error creating output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		opts.ModelPath,
		[]string{opts.InputName},
		[]string{opts.OutputName},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		sessionOpts,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	return &ModelSession{
		Session: session,
		Input:   inputTensor,
		Output:  outputTensor,
	}, nil
}
