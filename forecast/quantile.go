package forecast

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DefaultSamples is the number of trajectories drawn from the pipeline.
const DefaultSamples = 20

// QuantileBand holds per-step uncertainty bounds across sampled trajectories.
type QuantileBand struct {
	Lower  []float64
	Median []float64
	Upper  []float64
}

// QuantileForecaster wraps a sampling pipeline and reduces its trajectories
// to a 10th/50th/90th percentile band per step. The multi-step sampling is
// performed by the pipeline itself; there is no caller-side loop.
type QuantileForecaster struct {
	Pipeline Sampler
	Samples  int // DefaultSamples when zero
}

func (q *QuantileForecaster) Forecast(prices []float64, steps int) (*QuantileBand, error) {
	if q.Pipeline == nil {
		return nil, fmt.Errorf("no pipeline loaded")
	}
	if len(prices) == 0 {
		return nil, &InvalidInputError{Reason: "price series is empty"}
	}
	if steps < 1 {
		return nil, &InvalidInputError{Reason: fmt.Sprintf("steps must be at least 1, got %d", steps)}
	}
	samples := q.Samples
	if samples <= 0 {
		samples = DefaultSamples
	}

	trajectories, err := q.Pipeline.Sample(prices, steps, samples)
	if err != nil {
		return nil, &PredictionFailedError{Err: err}
	}
	if len(trajectories) == 0 {
		return nil, &PredictionFailedError{Err: fmt.Errorf("pipeline returned no samples")}
	}
	for i, trajectory := range trajectories {
		if len(trajectory) != steps {
			return nil, &PredictionFailedError{Err: fmt.Errorf("sample %d has %d steps, expected %d", i, len(trajectory), steps)}
		}
	}

	band := &QuantileBand{
		Lower:  make([]float64, steps),
		Median: make([]float64, steps),
		Upper:  make([]float64, steps),
	}
	column := make([]float64, len(trajectories))
	for step := 0; step < steps; step++ {
		for i, trajectory := range trajectories {
			column[i] = trajectory[step]
		}
		sort.Float64s(column)
		band.Lower[step] = stat.Quantile(0.10, stat.Empirical, column, nil)
		band.Median[step] = stat.Quantile(0.50, stat.Empirical, column, nil)
		band.Upper[step] = stat.Quantile(0.90, stat.Empirical, column, nil)
	}
	return band, nil
}
