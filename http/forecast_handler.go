package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"stockcast/forecast"
)

// ForecastRequest is the body of POST /api/forecast. Either prices or symbol
// must be set; symbol triggers a history fetch.
type ForecastRequest struct {
	Model  string    `json:"model"` // "chronos" or "lstm"
	Prices []float64 `json:"prices"`
	Symbol string    `json:"symbol"`
	Days   int       `json:"days"`
	Steps  int       `json:"steps"`
}

// Forecaster backends, injected by the server entrypoint once models are
// resolved. Nil until then.
var (
	chronosForecast func(prices []float64, steps int) (*forecast.QuantileBand, error)
	lstmForecast    func(prices []float64, steps int) ([]float64, error)
)

func SetChronosForecaster(fn func(prices []float64, steps int) (*forecast.QuantileBand, error)) {
	chronosForecast = fn
}

func SetLstmForecaster(fn func(prices []float64, steps int) ([]float64, error)) {
	lstmForecast = fn
}

func RegisterForecastHandlers(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/forecast", handleForecast)
}

func handleForecast(w http.ResponseWriter, r *http.Request) {
	var req ForecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Steps <= 0 {
		writeJSONError(w, http.StatusBadRequest, "steps must be positive")
		return
	}

	prices := req.Prices
	if len(prices) == 0 && req.Symbol != "" {
		days := req.Days
		if days <= 0 {
			days = 120
		}
		fetched, err := fetchCloses(req.Symbol, days)
		if err != nil {
			writeJSONError(w, http.StatusBadGateway, err.Error())
			return
		}
		prices = fetched
	}
	if len(prices) == 0 {
		writeJSONError(w, http.StatusBadRequest, "prices or symbol required")
		return
	}

	w.Header().Set("Content-Type", "application/json")

	switch req.Model {
	case "chronos":
		if chronosForecast == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "chronos model not loaded")
			return
		}
		band, err := chronosForecast(prices, req.Steps)
		if err != nil {
			writeForecastError(w, err)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"prediction":  band.Median,
			"lower_bound": band.Lower,
			"upper_bound": band.Upper,
		})

	case "lstm":
		if lstmForecast == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "lstm model not loaded")
			return
		}
		predictions, err := lstmForecast(prices, req.Steps)
		if err != nil {
			writeForecastError(w, err)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"prediction": predictions,
			"last_price": prices[len(prices)-1],
		})

	default:
		writeJSONError(w, http.StatusBadRequest, "model must be chronos or lstm")
	}
}

// writeForecastError maps the forecast error taxonomy onto HTTP statuses.
func writeForecastError(w http.ResponseWriter, err error) {
	var invalidFormat *forecast.InvalidFormatError
	var invalidInput *forecast.InvalidInputError
	var notFound *forecast.ModelNotFoundError
	var missing *forecast.MissingDependencyError

	switch {
	case errors.As(err, &invalidFormat), errors.As(err, &invalidInput):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &missing):
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
