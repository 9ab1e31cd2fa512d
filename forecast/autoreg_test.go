package forecast

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

// stubModel returns a fixed normalized value on every call and records the
// window shapes it was fed.
type stubModel struct {
	value    float64
	channels int
	widths   []int
	rows     []int
	err      error
}

func (s *stubModel) Predict(window [][]float64) (float64, error) {
	s.rows = append(s.rows, len(window))
	if len(window) > 0 {
		s.widths = append(s.widths, len(window[0]))
	}
	return s.value, s.err
}

func (s *stubModel) InputFeatures() int { return s.channels }

func TestForecastFixedNormalization(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = float64(i + 1)
	}

	model := &stubModel{value: 0.5, channels: 1}
	f := &AutoregressiveForecaster{Model: model}

	predictions, err := f.Forecast(prices, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(predictions) != 3 {
		t.Fatalf("expected 3 predictions, got %d", len(predictions))
	}

	// Normalization parameters come from the initial window and are never
	// recomputed, so every prediction is 0.5*scale+min.
	min, max := 1.0, 60.0
	want := 0.5*(max-min) + min
	for i, p := range predictions {
		if math.Abs(p-want) > 1e-9 {
			t.Fatalf("prediction %d: expected %v, got %v", i, want, p)
		}
	}
}

func TestForecastWindowLengthConstant(t *testing.T) {
	prices := make([]float64, 80)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}

	model := &stubModel{value: 0.4, channels: 1}
	f := &AutoregressiveForecaster{Model: model}

	if _, err := f.Forecast(prices, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(model.rows) != 7 {
		t.Fatalf("expected 7 inference calls, got %d", len(model.rows))
	}
	for i, rows := range model.rows {
		if rows != DefaultWindow {
			t.Fatalf("call %d: window length %d, expected %d", i, rows, DefaultWindow)
		}
	}
}

func TestForecastConstantWindow(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 42.0
	}

	model := &stubModel{value: 0.5, channels: 1}
	f := &AutoregressiveForecaster{Model: model}

	predictions, err := f.Forecast(prices, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// scale falls back to 1.0, so the result is 0.5*1+42.
	for i, p := range predictions {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			t.Fatalf("prediction %d is not finite: %v", i, p)
		}
		if math.Abs(p-42.5) > 1e-9 {
			t.Fatalf("prediction %d: expected 42.5, got %v", i, p)
		}
	}
}

func TestForecastTooShort(t *testing.T) {
	model := &stubModel{value: 0.5, channels: 1}
	f := &AutoregressiveForecaster{Model: model}

	_, err := f.Forecast([]float64{1, 2, 3}, 5)
	var invalid *InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
	if len(model.rows) != 0 {
		t.Fatal("model must not be called for short series")
	}

	if _, err := f.Forecast(make([]float64, 60), 0); !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidInputError for zero steps, got %v", err)
	}
}

func TestForecastMultiFeature(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 10 + 0.1*float64(i)
	}

	model := &stubModel{value: 0.0, channels: 6}
	f := &AutoregressiveForecaster{Model: model}

	predictions, err := f.Forecast(prices, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(predictions) != 4 {
		t.Fatalf("expected 4 predictions, got %d", len(predictions))
	}
	for i, width := range model.widths {
		if width != 6 {
			t.Fatalf("call %d: expected 6 channels, got %d", i, width)
		}
	}
	// A zero normalized output denormalizes to the raw window mean, which must
	// track the sliding window rather than the initial one.
	for i, p := range predictions {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			t.Fatalf("prediction %d is not finite: %v", i, p)
		}
	}
}

func TestForecastMultiFeatureScalerFallback(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 50 + float64(i%5)
	}

	model := &stubModel{value: 0.1, channels: 6}
	f := &AutoregressiveForecaster{
		Model:  model,
		Scaler: failingScaler{},
	}

	predictions, err := f.Forecast(prices, 2)
	if err != nil {
		t.Fatalf("scaler failure must fall back to standardization: %v", err)
	}
	if len(predictions) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(predictions))
	}
}

type failingScaler struct{}

func (failingScaler) Transform(rows [][]float64) ([][]float64, error) {
	return nil, fmt.Errorf("feature count mismatch")
}

func TestForecastPredictionFailed(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = float64(i)
	}

	model := &stubModel{channels: 1, err: fmt.Errorf("session closed")}
	f := &AutoregressiveForecaster{Model: model}

	_, err := f.Forecast(prices, 1)
	var failed *PredictionFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected PredictionFailedError, got %v", err)
	}
}

func TestForecastOnStep(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = float64(i + 1)
	}

	var steps []int
	f := &AutoregressiveForecaster{
		Model:  &stubModel{value: 0.5, channels: 1},
		OnStep: func(step int, value float64) { steps = append(steps, step) },
	}

	if _, err := f.Forecast(prices, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(steps) != 3 || steps[0] != 1 || steps[2] != 3 {
		t.Fatalf("unexpected step callbacks: %v", steps)
	}
}
