package forecast

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// DefaultWindow is the context length fed to the model per inference call.
const DefaultWindow = 60

// multiFeatureChannels selects the feature-synthesis path: models trained on
// 6 channels per timestep get fabricated features, everything else gets the
// plain normalized price window.
const multiFeatureChannels = 6

// AutoregressiveForecaster produces multi-step predictions by feeding each
// step's output back into the input window for the next step.
type AutoregressiveForecaster struct {
	Model  Predictor
	Scaler Scaler // optional companion artifact, may be nil
	Window int    // context length, DefaultWindow when zero

	// OnStep, when set, is invoked after every step (counted from 1) with the
	// denormalized value.
	OnStep func(step int, value float64)
}

// Forecast runs the sliding-window loop and returns exactly steps predictions.
func (f *AutoregressiveForecaster) Forecast(prices []float64, steps int) ([]float64, error) {
	if f.Model == nil {
		return nil, fmt.Errorf("no model loaded")
	}
	if steps < 1 {
		return nil, &InvalidInputError{Reason: fmt.Sprintf("steps must be at least 1, got %d", steps)}
	}
	window := f.Window
	if window <= 0 {
		window = DefaultWindow
	}
	if len(prices) < window {
		return nil, &InvalidInputError{Reason: fmt.Sprintf("need at least %d price points, got %d", window, len(prices))}
	}

	if f.Model.InputFeatures() == multiFeatureChannels {
		return f.forecastMultiFeature(prices, window, steps)
	}
	return f.forecastSingleFeature(prices, window, steps)
}

// forecastSingleFeature normalizes the initial window once and keeps those
// parameters fixed for every step. The window slides in normalized space.
func (f *AutoregressiveForecaster) forecastSingleFeature(prices []float64, window, steps int) ([]float64, error) {
	initial := prices[len(prices)-window:]

	min, max := initial[0], initial[0]
	for _, v := range initial {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	scale := max - min
	if scale == 0 {
		scale = 1.0
	}

	normalized := make([]float64, window)
	for i, v := range initial {
		normalized[i] = (v - min) / scale
	}

	predictions := make([]float64, 0, steps)
	for step := 0; step < steps; step++ {
		rows := make([][]float64, window)
		for i, v := range normalized {
			rows[i] = []float64{v}
		}

		predNorm, err := f.Model.Predict(rows)
		if err != nil {
			return nil, &PredictionFailedError{Err: err}
		}

		real := predNorm*scale + min
		predictions = append(predictions, real)

		normalized = append(normalized[1:], predNorm)
		if f.OnStep != nil {
			f.OnStep(step+1, real)
		}
	}
	return predictions, nil
}

// forecastMultiFeature fabricates 6 features per timestep from the raw price
// window and rescales on every step. Unlike the single-feature path the window
// slides in price space, with freshly synthesized features each iteration.
func (f *AutoregressiveForecaster) forecastMultiFeature(prices []float64, window, steps int) ([]float64, error) {
	raw := append([]float64(nil), prices[len(prices)-window:]...)

	predictions := make([]float64, 0, steps)
	for step := 0; step < steps; step++ {
		features := SynthesizeFeatures(raw)

		scaled, err := f.scaleFeatures(features)
		if err != nil {
			return nil, err
		}

		predNorm, err := f.Model.Predict(scaled)
		if err != nil {
			return nil, &PredictionFailedError{Err: err}
		}

		// Approximate the price scale from the raw window rather than
		// inverting the fitted scaler.
		mean, std := meanStd(raw)
		real := predNorm*std + mean
		predictions = append(predictions, real)

		raw = append(raw[1:], real)
		if f.OnStep != nil {
			f.OnStep(step+1, real)
		}
	}
	return predictions, nil
}

// scaleFeatures applies the companion scaler when present, falling back to
// per-column standardization if it is absent or refuses the input.
func (f *AutoregressiveForecaster) scaleFeatures(features [][]float64) ([][]float64, error) {
	if f.Scaler != nil {
		scaled, err := f.Scaler.Transform(features)
		if err == nil {
			return scaled, nil
		}
	}
	return Standardize(features), nil
}

// meanStd uses population statistics, matching the training-time convention
// of the published checkpoints.
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	return stat.Mean(values, nil), stat.PopStdDev(values, nil)
}
