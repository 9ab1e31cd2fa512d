package model

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXModel wraps a single-output graph-format model behind the Predictor
// interface. The expected per-timestep channel count is read from the graph's
// declared input shape; dynamic dimensions default to 1.
type ONNXModel struct {
	session       *ort.DynamicAdvancedSession
	inputFeatures int
}

func NewONNXModel(rt *Runtime, path string) (*ONNXModel, error) {
	if !rt.Available() {
		return nil, rt.MissingDependency()
	}

	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("inspecting model %s: %w", path, err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("model %s declares no inputs or outputs", path)
	}

	features := 1
	if dims := inputs[0].Dimensions; len(dims) == 3 && dims[2] > 0 {
		features = int(dims[2])
	}

	opts, err := rt.sessionOptions()
	if err != nil {
		return nil, err
	}
	defer opts.Destroy()

	session, err := ort.NewDynamicAdvancedSession(path,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("creating session for %s: %w", path, err)
	}

	return &ONNXModel{session: session, inputFeatures: features}, nil
}

func (m *ONNXModel) InputFeatures() int { return m.inputFeatures }

func (m *ONNXModel) Predict(window [][]float64) (float64, error) {
	steps := len(window)
	if steps == 0 {
		return 0, fmt.Errorf("empty input window")
	}

	flat := make([]float32, 0, steps*m.inputFeatures)
	for i, row := range window {
		if len(row) != m.inputFeatures {
			return 0, fmt.Errorf("timestep %d has %d features, model expects %d", i, len(row), m.inputFeatures)
		}
		for _, v := range row {
			flat = append(flat, float32(v))
		}
	}

	input, err := ort.NewTensor(ort.NewShape(1, int64(steps), int64(m.inputFeatures)), flat)
	if err != nil {
		return 0, err
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return 0, err
	}
	defer output.Destroy()

	if err := m.session.Run([]ort.Value{input}, []ort.Value{output}); err != nil {
		return 0, err
	}

	data := output.GetData()
	if len(data) == 0 {
		return 0, fmt.Errorf("model returned no output")
	}
	return float64(data[0]), nil
}

func (m *ONNXModel) Close() error {
	if m.session == nil {
		return nil
	}
	err := m.session.Destroy()
	m.session = nil
	return err
}
