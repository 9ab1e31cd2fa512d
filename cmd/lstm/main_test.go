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

func TestLoadPricesRequiresOne(t *testing.T) {
	if _, err := loadPrices("", "", 120); err == nil {
		t.Fatal("expected error when neither --prices nor --symbol is given")
	}
}

func TestLoadPricesParses(t *testing.T) {
	prices, err := loadPrices("1, 2, 3.5", "", 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prices) != 3 || prices[2] != 3.5 {
		t.Fatalf("unexpected prices: %v", prices)
	}
}

func TestLoadPricesBadToken(t *testing.T) {
	_, err := loadPrices("1,abc,3", "", 120)
	var invalid *forecast.InvalidFormatError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidFormatError, got %v", err)
	}
}
