package forecast

import (
	"math"
	"testing"
)

func TestSynthesizeFeatures(t *testing.T) {
	prices := []float64{10, 11, 12, 13, 14, 15}
	features := SynthesizeFeatures(prices)

	if len(features) != len(prices) {
		t.Fatalf("expected %d rows, got %d", len(prices), len(features))
	}
	for i, row := range features {
		if len(row) != 6 {
			t.Fatalf("row %d: expected 6 channels, got %d", i, len(row))
		}
		if row[0] != prices[i] {
			t.Fatalf("row %d: price channel %v, expected %v", i, row[0], prices[i])
		}
		if row[5] != 1.0 {
			t.Fatalf("row %d: volume placeholder %v, expected 1.0", i, row[5])
		}
	}

	if features[0][1] != 0 {
		t.Fatalf("first delta must be 0, got %v", features[0][1])
	}
	if features[3][1] != 1 {
		t.Fatalf("delta: expected 1, got %v", features[3][1])
	}

	// MA5 at index 2 truncates to the first three values.
	wantMA := (10.0 + 11 + 12) / 3
	if math.Abs(features[2][2]-wantMA) > 1e-9 {
		t.Fatalf("truncated MA5: expected %v, got %v", wantMA, features[2][2])
	}
	// MA5 at index 5 covers the full span.
	wantMA = (11.0 + 12 + 13 + 14 + 15) / 5
	if math.Abs(features[5][2]-wantMA) > 1e-9 {
		t.Fatalf("full MA5: expected %v, got %v", wantMA, features[5][2])
	}
}

func TestStandardize(t *testing.T) {
	rows := [][]float64{
		{1, 100},
		{2, 200},
		{3, 300},
	}
	scaled := Standardize(rows)

	for c := 0; c < 2; c++ {
		sum := 0.0
		for _, row := range scaled {
			sum += row[c]
		}
		if math.Abs(sum/3) > 1e-9 {
			t.Fatalf("column %d mean not zero: %v", c, sum/3)
		}
	}
}

func TestStandardizeConstantColumn(t *testing.T) {
	rows := [][]float64{{5, 1}, {5, 2}, {5, 3}}
	scaled := Standardize(rows)
	for i, row := range scaled {
		if math.IsNaN(row[0]) || math.IsInf(row[0], 0) {
			t.Fatalf("row %d: constant column produced %v", i, row[0])
		}
	}
}
