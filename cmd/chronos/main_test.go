package main

import (
	"errors"
	"testing"

	"stockcast/forecast"
)

func TestLoadPricesMutuallyExclusive(t *testing.T) {
	if _, err := loadPrices("1,2,3", "sh600000", 120); err == nil {
		t.Fatal("expected error when both --prices and --symbol are given")
	}
}

func TestLoadPricesBadToken(t *testing.T) {
	_, err := loadPrices("1,x,3", "", 120)
	var invalid *forecast.InvalidFormatError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidFormatError, got %v", err)
	}
}
