package forecast

import "gonum.org/v1/gonum/stat"

const standardizeEpsilon = 1e-8

// SynthesizeFeatures fabricates 6 channels per timestep from a 1-dimensional
// price series: price, delta from the previous price, 5/10/20-step moving
// averages, and a constant volume placeholder. Moving averages left-truncate
// at the series start instead of padding.
func SynthesizeFeatures(prices []float64) [][]float64 {
	features := make([][]float64, len(prices))
	for i, price := range prices {
		delta := 0.0
		if i > 0 {
			delta = price - prices[i-1]
		}
		features[i] = []float64{
			price,
			delta,
			MovingAverage(prices, i, 5),
			MovingAverage(prices, i, 10),
			MovingAverage(prices, i, 20),
			1.0, // volume placeholder
		}
	}
	return features
}

// MovingAverage returns the mean of the span values ending at index i,
// truncated to the available prefix near the start of the series.
func MovingAverage(values []float64, i, span int) float64 {
	start := i - span + 1
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for _, v := range values[start : i+1] {
		sum += v
	}
	return sum / float64(i+1-start)
}

// Standardize rescales each feature column to zero mean and unit variance
// across the batch of timesteps.
func Standardize(rows [][]float64) [][]float64 {
	if len(rows) == 0 {
		return rows
	}
	cols := len(rows[0])
	means := make([]float64, cols)
	stds := make([]float64, cols)

	column := make([]float64, len(rows))
	for c := 0; c < cols; c++ {
		for i, row := range rows {
			column[i] = row[c]
		}
		means[c] = stat.Mean(column, nil)
		stds[c] = stat.PopStdDev(column, nil)
	}

	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = make([]float64, cols)
		for c := 0; c < cols; c++ {
			out[i][c] = (row[c] - means[c]) / (stds[c] + standardizeEpsilon)
		}
	}
	return out
}
