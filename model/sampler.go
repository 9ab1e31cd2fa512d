package model

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXSampler drives an exported sampling pipeline: one run produces
// numSamples full trajectories, so the caller never loops. Beyond the price
// context the graph may declare prediction_length and num_samples inputs;
// they are fed only when declared (other inputs are rejected at load).
type ONNXSampler struct {
	session    *ort.DynamicAdvancedSession
	inputNames []string
}

func NewONNXSampler(rt *Runtime, path string) (*ONNXSampler, error) {
	if !rt.Available() {
		return nil, rt.MissingDependency()
	}

	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("inspecting pipeline %s: %w", path, err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("pipeline %s declares no inputs or outputs", path)
	}

	names := make([]string, len(inputs))
	for i, info := range inputs {
		names[i] = info.Name
		if i == 0 {
			continue
		}
		switch info.Name {
		case "prediction_length", "num_samples":
		default:
			return nil, fmt.Errorf("pipeline %s declares unsupported input %q", path, info.Name)
		}
	}

	opts, err := rt.sessionOptions()
	if err != nil {
		return nil, err
	}
	defer opts.Destroy()

	session, err := ort.NewDynamicAdvancedSession(path, names, []string{outputs[0].Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("creating session for %s: %w", path, err)
	}

	return &ONNXSampler{session: session, inputNames: names}, nil
}

func (s *ONNXSampler) Sample(prices []float64, steps, numSamples int) ([][]float64, error) {
	if len(prices) == 0 {
		return nil, fmt.Errorf("empty price context")
	}

	context := make([]float32, len(prices))
	for i, v := range prices {
		context[i] = float32(v)
	}

	var values []ort.Value
	destroy := func() {
		for _, v := range values {
			if v != nil {
				v.Destroy()
			}
		}
	}
	defer destroy()

	contextTensor, err := ort.NewTensor(ort.NewShape(1, int64(len(prices))), context)
	if err != nil {
		return nil, err
	}
	values = append(values, contextTensor)

	for _, name := range s.inputNames[1:] {
		var scalar int64
		switch name {
		case "prediction_length":
			scalar = int64(steps)
		case "num_samples":
			scalar = int64(numSamples)
		}
		tensor, err := ort.NewTensor(ort.NewShape(1), []int64{scalar})
		if err != nil {
			return nil, err
		}
		values = append(values, tensor)
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(numSamples), int64(steps)))
	if err != nil {
		return nil, err
	}
	defer output.Destroy()

	if err := s.session.Run(values, []ort.Value{output}); err != nil {
		return nil, err
	}

	data := output.GetData()
	if len(data) < numSamples*steps {
		return nil, fmt.Errorf("pipeline returned %d values, expected %d", len(data), numSamples*steps)
	}

	trajectories := make([][]float64, numSamples)
	for i := 0; i < numSamples; i++ {
		trajectories[i] = make([]float64, steps)
		for j := 0; j < steps; j++ {
			trajectories[i][j] = float64(data[i*steps+j])
		}
	}
	return trajectories, nil
}

func (s *ONNXSampler) Close() error {
	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	return err
}
