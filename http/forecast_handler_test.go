package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"stockcast/forecast"
)

func restoreForecasters(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		chronosForecast = nil
		lstmForecast = nil
		fetchCloses = loadCloses
	})
}

func postForecast(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	RegisterForecastHandlers(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/forecast", strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestHandleForecastChronos(t *testing.T) {
	restoreForecasters(t)
	SetChronosForecaster(func(prices []float64, steps int) (*forecast.QuantileBand, error) {
		return &forecast.QuantileBand{
			Lower:  []float64{9, 9.1},
			Median: []float64{10, 10.1},
			Upper:  []float64{11, 11.1},
		}, nil
	})

	w := postForecast(t, `{"model":"chronos","prices":[1,2,3],"steps":2}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	preds := payload["prediction"].([]interface{})
	if len(preds) != 2 || preds[0].(float64) != 10 {
		t.Fatalf("unexpected prediction: %v", preds)
	}
	if payload["upper_bound"].([]interface{})[1].(float64) != 11.1 {
		t.Fatalf("unexpected band: %v", payload)
	}
}

func TestHandleForecastLstm(t *testing.T) {
	restoreForecasters(t)
	SetLstmForecaster(func(prices []float64, steps int) ([]float64, error) {
		out := make([]float64, steps)
		for i := range out {
			out[i] = float64(i + 1)
		}
		return out, nil
	})

	w := postForecast(t, `{"model":"lstm","prices":[1,2,3],"steps":3}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var payload struct {
		Prediction []float64 `json:"prediction"`
		LastPrice  float64   `json:"last_price"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(payload.Prediction) != 3 || payload.Prediction[2] != 3 {
		t.Fatalf("unexpected prediction: %v", payload.Prediction)
	}
	if payload.LastPrice != 3 {
		t.Fatalf("unexpected last price: %v", payload.LastPrice)
	}
}

func TestHandleForecastModelNotLoaded(t *testing.T) {
	restoreForecasters(t)

	w := postForecast(t, `{"model":"lstm","prices":[1,2,3],"steps":3}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestHandleForecastBadRequests(t *testing.T) {
	restoreForecasters(t)
	SetLstmForecaster(func(prices []float64, steps int) ([]float64, error) { return nil, nil })

	cases := []string{
		`not json`,
		`{"model":"lstm","prices":[1],"steps":0}`,
		`{"model":"lstm","steps":3}`,
		`{"model":"prophet","prices":[1],"steps":3}`,
	}
	for _, body := range cases {
		if w := postForecast(t, body); w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %q, got %d", body, w.Code)
		}
	}
}

func TestHandleForecastErrorMapping(t *testing.T) {
	restoreForecasters(t)

	cases := []struct {
		err    error
		status int
	}{
		{&forecast.InvalidInputError{Reason: "need at least 60 price points, got 3"}, http.StatusBadRequest},
		{&forecast.ModelNotFoundError{Repo: "acme/x"}, http.StatusNotFound},
		{&forecast.MissingDependencyError{Package: "onnxruntime"}, http.StatusServiceUnavailable},
		{&forecast.PredictionFailedError{Err: fmt.Errorf("boom")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		SetLstmForecaster(func(prices []float64, steps int) ([]float64, error) {
			return nil, tc.err
		})
		w := postForecast(t, `{"model":"lstm","prices":[1,2],"steps":1}`)
		if w.Code != tc.status {
			t.Fatalf("expected %d for %T, got %d", tc.status, tc.err, w.Code)
		}
		var payload map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil || payload["error"] == "" {
			t.Fatalf("expected error object, got %s", w.Body.String())
		}
	}
}

func TestHandleForecastSymbolFetch(t *testing.T) {
	restoreForecasters(t)
	fetchCloses = func(symbol string, days int) ([]float64, error) {
		if symbol != "sh600000" {
			t.Fatalf("unexpected symbol %q", symbol)
		}
		return []float64{1, 2, 3, 4}, nil
	}
	var got []float64
	SetLstmForecaster(func(prices []float64, steps int) ([]float64, error) {
		got = prices
		return []float64{5}, nil
	})

	w := postForecast(t, `{"model":"lstm","symbol":"sh600000","steps":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(got) != 4 {
		t.Fatalf("fetched prices not forwarded: %v", got)
	}
}
