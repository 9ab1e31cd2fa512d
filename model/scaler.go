package model

import (
	"errors"
	"fmt"

	"github.com/nlpodyssey/gopickle/pickle"
	"github.com/nlpodyssey/gopickle/types"
)

// StandardScaler reproduces sklearn's StandardScaler transform from its
// fitted mean_/scale_ vectors.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

func (s *StandardScaler) Transform(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != len(s.Mean) {
			return nil, fmt.Errorf("row %d has %d features, scaler was fitted on %d", i, len(row), len(s.Mean))
		}
		out[i] = make([]float64, len(row))
		for c, v := range row {
			scale := s.Scale[c]
			if scale == 0 {
				scale = 1
			}
			out[i][c] = (v - s.Mean[c]) / scale
		}
	}
	return out, nil
}

// LoadScaler reads a pickled scaler. Callers treat any error as "no scaler":
// companion artifacts are best-effort and normalization falls back to the
// manual path.
func LoadScaler(path string) (*StandardScaler, error) {
	obj, err := pickle.Load(path)
	if err != nil {
		return nil, fmt.Errorf("unpickling %s: %w", path, err)
	}
	return scalerFromObject(obj)
}

func scalerFromObject(obj interface{}) (*StandardScaler, error) {
	items := dictItems(obj)

	mean := floatSlice(firstPresent(items, "mean_", "mean"))
	scale := floatSlice(firstPresent(items, "scale_", "std_", "scale", "std"))
	if len(mean) == 0 || len(scale) == 0 {
		return nil, errors.New("pickle does not expose mean_/scale_ vectors")
	}
	if len(mean) != len(scale) {
		return nil, fmt.Errorf("mean_/scale_ length mismatch: %d vs %d", len(mean), len(scale))
	}
	return &StandardScaler{Mean: mean, Scale: scale}, nil
}

func firstPresent(items map[string]interface{}, keys ...string) interface{} {
	for _, key := range keys {
		if v, ok := items[key]; ok {
			return v
		}
	}
	return nil
}

func floatSlice(v interface{}) []float64 {
	var raw []interface{}
	switch seq := v.(type) {
	case *types.List:
		raw = *seq
	case *types.Tuple:
		raw = *seq
	case []interface{}:
		raw = seq
	case []float64:
		return seq
	default:
		return nil
	}

	out := make([]float64, 0, len(raw))
	for _, item := range raw {
		switch n := item.(type) {
		case float64:
			out = append(out, n)
		case float32:
			out = append(out, float64(n))
		case int:
			out = append(out, float64(n))
		case int64:
			out = append(out, float64(n))
		default:
			return nil
		}
	}
	return out
}
