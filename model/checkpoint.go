package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nlpodyssey/gopickle/pytorch"
	"github.com/nlpodyssey/gopickle/types"

	"stockcast/forecast"
)

// LoadLSTMFromCheckpoint reads a PyTorch checkpoint and builds a native LSTM
// from it. The state dict may be nested under "model_state_dict" or
// "state_dict"; either is unwrapped. Key matching is loose: tensors with
// unknown keys are ignored and missing keys leave zero weights, but a known
// key with an incompatible shape fails the load.
func LoadLSTMFromCheckpoint(path string) (*LSTM, error) {
	obj, err := pytorch.Load(path)
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint %s: %w", path, err)
	}

	tensors := stateDictTensors(obj)
	if len(tensors) == 0 {
		return nil, &forecast.ArchitectureMismatchError{
			Key: "state_dict",
			Err: errors.New("checkpoint contains no tensors"),
		}
	}

	m := NewLSTM(inferArchitecture(tensors))
	for key, tensor := range tensors {
		dims, data, err := tensorData(tensor)
		if err != nil {
			// Exotic storage types are skipped rather than fatal.
			continue
		}
		if err := m.applyTensor(key, dims, data); err != nil {
			return nil, &forecast.ArchitectureMismatchError{Key: key, Err: err}
		}
	}
	return m, nil
}

// inferArchitecture derives (input, hidden, layers) from the layer-0 gate
// weights, falling back to the published defaults when they are absent.
func inferArchitecture(tensors map[string]*pytorch.Tensor) (inputSize, hiddenSize, numLayers int) {
	inputSize = DefaultInputSize
	hiddenSize = DefaultHiddenSize
	numLayers = DefaultNumLayers

	if t, ok := tensors["lstm.weight_ih_l0"]; ok && len(t.Size) == 2 {
		hiddenSize = t.Size[0] / 4
		inputSize = t.Size[1]
	}

	maxLayer := -1
	for key := range tensors {
		idx := strings.LastIndex(key, "_l")
		if idx < 0 || !strings.HasPrefix(key, "lstm.") {
			continue
		}
		if n, err := strconv.Atoi(key[idx+2:]); err == nil && n > maxLayer {
			maxLayer = n
		}
	}
	if maxLayer >= 0 {
		numLayers = maxLayer + 1
	}
	return inputSize, hiddenSize, numLayers
}

// applyTensor copies checkpoint data into the matching parameter. Unknown
// keys return nil so extra checkpoint entries never fail the load.
func (m *LSTM) applyTensor(key string, dims []int, data []float64) error {
	switch {
	case key == "fc.weight":
		if err := checkSize(dims, data, m.hiddenSize); err != nil {
			return err
		}
		copy(m.fcWeight, data)
		return nil
	case key == "fc.bias":
		if err := checkSize(dims, data, 1); err != nil {
			return err
		}
		m.fcBias = data[0]
		return nil
	case strings.HasPrefix(key, "lstm."):
		return m.applyLSTMTensor(strings.TrimPrefix(key, "lstm."), dims, data)
	default:
		return nil
	}
}

func (m *LSTM) applyLSTMTensor(name string, dims []int, data []float64) error {
	idx := strings.LastIndex(name, "_l")
	if idx < 0 {
		return nil
	}
	layer, err := strconv.Atoi(name[idx+2:])
	if err != nil {
		return nil
	}
	if layer < 0 || layer >= m.numLayers {
		return fmt.Errorf("layer index %d out of range (%d layers)", layer, m.numLayers)
	}

	in := m.inputSize
	if layer > 0 {
		in = m.hiddenSize
	}

	switch name[:idx] {
	case "weight_ih":
		return fillMatrix(m.layers[layer].wIH, dims, data, 4*m.hiddenSize, in)
	case "weight_hh":
		return fillMatrix(m.layers[layer].wHH, dims, data, 4*m.hiddenSize, m.hiddenSize)
	case "bias_ih":
		if err := checkSize(dims, data, 4*m.hiddenSize); err != nil {
			return err
		}
		copy(m.layers[layer].bIH, data)
		return nil
	case "bias_hh":
		if err := checkSize(dims, data, 4*m.hiddenSize); err != nil {
			return err
		}
		copy(m.layers[layer].bHH, data)
		return nil
	}
	return nil
}

func fillMatrix(dst [][]float64, dims []int, data []float64, rows, cols int) error {
	if len(dims) != 2 || dims[0] != rows || dims[1] != cols {
		return fmt.Errorf("expected shape [%d %d], got %v", rows, cols, dims)
	}
	if len(data) < rows*cols {
		return fmt.Errorf("tensor data too short: %d < %d", len(data), rows*cols)
	}
	for r := 0; r < rows; r++ {
		copy(dst[r], data[r*cols:(r+1)*cols])
	}
	return nil
}

func checkSize(dims []int, data []float64, want int) error {
	n := 1
	for _, d := range dims {
		n *= d
	}
	if n != want || len(data) < want {
		return fmt.Errorf("expected %d values, got shape %v", want, dims)
	}
	return nil
}

// stateDictTensors flattens a loaded checkpoint into tensors keyed by name,
// unwrapping a nested state dict when present.
func stateDictTensors(obj interface{}) map[string]*pytorch.Tensor {
	items := dictItems(obj)
	for _, wrapper := range []string{"model_state_dict", "state_dict"} {
		if inner, ok := items[wrapper]; ok {
			if innerItems := dictItems(inner); len(innerItems) > 0 {
				items = innerItems
				break
			}
		}
	}

	tensors := make(map[string]*pytorch.Tensor, len(items))
	for key, value := range items {
		if t, ok := value.(*pytorch.Tensor); ok {
			tensors[key] = t
		}
	}
	return tensors
}

// dictItems normalizes gopickle's dict representations into a string-keyed map.
func dictItems(obj interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	switch d := obj.(type) {
	case *types.Dict:
		for _, entry := range *d {
			if key, ok := entry.Key.(string); ok {
				out[key] = entry.Value
			}
		}
	case *types.OrderedDict:
		for key, entry := range d.Map {
			if k, ok := key.(string); ok {
				out[k] = entry.Value
			}
		}
	}
	return out
}

func tensorData(t *pytorch.Tensor) ([]int, []float64, error) {
	n := 1
	for _, d := range t.Size {
		n *= d
	}
	offset := int(t.StorageOffset)

	switch storage := t.Source.(type) {
	case *pytorch.FloatStorage:
		if offset+n > len(storage.Data) {
			return nil, nil, fmt.Errorf("storage too short for shape %v", t.Size)
		}
		data := make([]float64, n)
		for i, v := range storage.Data[offset : offset+n] {
			data[i] = float64(v)
		}
		return t.Size, data, nil
	case *pytorch.DoubleStorage:
		if offset+n > len(storage.Data) {
			return nil, nil, fmt.Errorf("storage too short for shape %v", t.Size)
		}
		data := make([]float64, n)
		copy(data, storage.Data[offset:offset+n])
		return t.Size, data, nil
	case *pytorch.HalfStorage:
		if offset+n > len(storage.Data) {
			return nil, nil, fmt.Errorf("storage too short for shape %v", t.Size)
		}
		data := make([]float64, n)
		for i, v := range storage.Data[offset : offset+n] {
			data[i] = float64(v)
		}
		return t.Size, data, nil
	default:
		return nil, nil, fmt.Errorf("unsupported tensor storage %T", t.Source)
	}
}
