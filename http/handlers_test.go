package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stockcast/db"
	"stockcast/market"
)

func TestHandleHealth(t *testing.T) {
	mux := http.NewServeMux()
	RegisterHandlers(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestHandleTick(t *testing.T) {
	mux := http.NewServeMux()
	RegisterHandlers(mux)
	fetchTick = func(symbol string) (*market.Tick, error) {
		return &market.Tick{Symbol: symbol, Close: 10.5, Timestamp: time.Now()}, nil
	}
	defer func() { fetchTick = market.FetchTick }()

	req := httptest.NewRequest(http.MethodGet, "/api/tick/sh600000", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var tick market.Tick
	if err := json.Unmarshal(w.Body.Bytes(), &tick); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if tick.Symbol != "sh600000" || tick.Close != 10.5 {
		t.Fatalf("unexpected tick: %+v", tick)
	}
}

func TestHandleHistory(t *testing.T) {
	mux := http.NewServeMux()
	RegisterHandlers(mux)
	var gotDays int
	fetchCloses = func(symbol string, days int) ([]float64, error) {
		gotDays = days
		return []float64{1, 2, 3}, nil
	}
	defer func() { fetchCloses = loadCloses }()

	req := httptest.NewRequest(http.MethodGet, "/api/history/sh600000?days=30", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotDays != 30 {
		t.Fatalf("days query not honored: %d", gotDays)
	}
}

func TestHandleRuns(t *testing.T) {
	mux := http.NewServeMux()
	RegisterHandlers(mux)
	recentRuns = func(limit int) ([]db.ForecastRun, error) {
		return []db.ForecastRun{{Model: "lstm", Steps: 5}}, nil
	}
	defer func() { recentRuns = db.RecentRuns }()

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var runs []db.ForecastRun
	if err := json.Unmarshal(w.Body.Bytes(), &runs); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(runs) != 1 || runs[0].Model != "lstm" {
		t.Fatalf("unexpected runs: %+v", runs)
	}
}

func TestHandleRunsError(t *testing.T) {
	mux := http.NewServeMux()
	RegisterHandlers(mux)
	recentRuns = func(limit int) ([]db.ForecastRun, error) {
		return nil, fmt.Errorf("database not initialized")
	}
	defer func() { recentRuns = db.RecentRuns }()

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
