package model

import (
	"errors"
	"fmt"
	"math"
)

// Default architecture of the published stock LSTM checkpoints. Used when a
// checkpoint does not carry enough tensors to infer the sizes.
const (
	DefaultInputSize  = 1
	DefaultHiddenSize = 50
	DefaultNumLayers  = 2
)

// LSTM is a natively implemented stacked LSTM with a final linear head.
// Gate weights follow the PyTorch layout: rows ordered input, forget, cell,
// output; weights are applied from a checkpoint via applyTensor.
type LSTM struct {
	inputSize  int
	hiddenSize int
	numLayers  int

	layers   []lstmLayer
	fcWeight []float64
	fcBias   float64
}

type lstmLayer struct {
	wIH [][]float64 // [4*hidden][in]
	wHH [][]float64 // [4*hidden][hidden]
	bIH []float64
	bHH []float64
}

func NewLSTM(inputSize, hiddenSize, numLayers int) *LSTM {
	if inputSize <= 0 {
		inputSize = DefaultInputSize
	}
	if hiddenSize <= 0 {
		hiddenSize = DefaultHiddenSize
	}
	if numLayers <= 0 {
		numLayers = DefaultNumLayers
	}

	m := &LSTM{
		inputSize:  inputSize,
		hiddenSize: hiddenSize,
		numLayers:  numLayers,
		layers:     make([]lstmLayer, numLayers),
		fcWeight:   make([]float64, hiddenSize),
	}
	for l := range m.layers {
		in := inputSize
		if l > 0 {
			in = hiddenSize
		}
		m.layers[l] = lstmLayer{
			wIH: zeroMatrix(4*hiddenSize, in),
			wHH: zeroMatrix(4*hiddenSize, hiddenSize),
			bIH: make([]float64, 4*hiddenSize),
			bHH: make([]float64, 4*hiddenSize),
		}
	}
	return m
}

func (m *LSTM) InputFeatures() int { return m.inputSize }

// Predict runs the forward pass over a (timesteps x inputSize) window and
// returns the linear head's output for the final timestep.
func (m *LSTM) Predict(window [][]float64) (float64, error) {
	if len(window) == 0 {
		return 0, errors.New("empty input window")
	}
	for i, row := range window {
		if len(row) != m.inputSize {
			return 0, fmt.Errorf("timestep %d has %d features, model expects %d", i, len(row), m.inputSize)
		}
	}

	x := window
	for l := range m.layers {
		x = m.layers[l].forward(x, m.hiddenSize)
	}

	h := x[len(x)-1]
	out := m.fcBias
	for i, w := range m.fcWeight {
		out += w * h[i]
	}
	return out, nil
}

func (layer *lstmLayer) forward(x [][]float64, hidden int) [][]float64 {
	h := make([]float64, hidden)
	c := make([]float64, hidden)
	newH := make([]float64, hidden)
	outputs := make([][]float64, len(x))

	for t, input := range x {
		// All gates read the previous timestep's hidden state; h is swapped
		// in only after the full pass.
		for j := 0; j < hidden; j++ {
			i := layer.gate(0*hidden+j, input, h)
			f := layer.gate(1*hidden+j, input, h)
			g := layer.gate(2*hidden+j, input, h)
			o := layer.gate(3*hidden+j, input, h)

			c[j] = sigmoid(f)*c[j] + sigmoid(i)*math.Tanh(g)
			newH[j] = sigmoid(o) * math.Tanh(c[j])
		}
		copy(h, newH)
		outputs[t] = append([]float64(nil), h...)
	}
	return outputs
}

func (layer *lstmLayer) gate(row int, input, h []float64) float64 {
	sum := layer.bIH[row] + layer.bHH[row]
	for k, v := range input {
		sum += layer.wIH[row][k] * v
	}
	for k, v := range h {
		sum += layer.wHH[row][k] * v
	}
	return sum
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func zeroMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}
