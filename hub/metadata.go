package hub

import (
	"encoding/json"
	"os"
)

// Metadata is the descriptive companion of a checkpoint. Field names vary
// across published repositories, so a few aliases are accepted per field.
type Metadata struct {
	SequenceLength int
	NumFeatures    int
}

func loadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	return &Metadata{
		SequenceLength: firstInt(raw, "sequence_length", "window_size", "seq_length"),
		NumFeatures:    firstInt(raw, "num_features", "input_size", "n_features"),
	}, nil
}

func firstInt(raw map[string]interface{}, keys ...string) int {
	for _, key := range keys {
		if v, ok := raw[key].(float64); ok && v > 0 {
			return int(v)
		}
	}
	return 0
}
