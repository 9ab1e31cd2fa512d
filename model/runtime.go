package model

import (
	ort "github.com/yalue/onnxruntime_go"

	"stockcast/forecast"
)

// Runtime is the process-wide capability handle for the onnxruntime shared
// library. It is probed exactly once at startup and passed to the components
// that need graph-format inference, instead of each of them branching on an
// ambient global.
type Runtime struct {
	available bool
	initErr   error
	device    string
	usingCUDA bool
}

// InitRuntime probes the onnxruntime environment. libraryPath overrides the
// shared library location when set; device is "cpu", "cuda" or "auto".
func InitRuntime(libraryPath, device string) *Runtime {
	rt := &Runtime{device: device}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			rt.initErr = err
			return rt
		}
	}
	rt.available = true
	return rt
}

func (r *Runtime) Available() bool { return r != nil && r.available }

func (r *Runtime) UsingCUDA() bool { return r != nil && r.usingCUDA }

// MissingDependency describes the absent runtime for the error taxonomy.
func (r *Runtime) MissingDependency() error {
	hint := "install the onnxruntime shared library and point onnx_library at it"
	if r != nil && r.initErr != nil {
		hint = r.initErr.Error()
	}
	return &forecast.MissingDependencyError{Package: "onnxruntime", Hint: hint}
}

// sessionOptions builds per-session options honoring the static device
// choice. On "auto" a CUDA failure silently falls back to CPU; on "cuda" the
// provider is still attempted but never retried later.
func (r *Runtime) sessionOptions() (*ort.SessionOptions, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, err
	}
	if r.device == "cuda" || r.device == "auto" {
		if cudaOpts, err := ort.NewCUDAProviderOptions(); err == nil {
			if err := opts.AppendExecutionProviderCUDA(cudaOpts); err == nil {
				r.usingCUDA = true
			}
			cudaOpts.Destroy()
		}
	}
	return opts, nil
}
