package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"stockcast/db"
	"stockcast/market"
)

func RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/tick/{symbol}", handleTick)
	mux.HandleFunc("GET /api/history/{symbol}", handleHistory)
	mux.HandleFunc("GET /api/runs", handleRuns)
}

// Swappable for tests.
var (
	fetchTick    = market.FetchTick
	fetchCloses  = loadCloses
	recentRuns   = db.RecentRuns
	fetchHistory = market.FetchHistoricalData
	cachedCloses = db.QueryCloses
	cacheKLine   = db.SaveKLine
)

// loadCloses serves close history from the local kline cache when it holds
// enough rows, refetching from the network and filling the cache otherwise.
// When the network fails, a partial cache still answers the request.
func loadCloses(symbol string, days int) ([]float64, error) {
	if closes, err := cachedCloses(symbol, days); err == nil && len(closes) >= days {
		return closes, nil
	}

	klines, err := fetchHistory(symbol, days)
	if err != nil {
		if closes, cacheErr := cachedCloses(symbol, days); cacheErr == nil && len(closes) > 0 {
			return closes, nil
		}
		return nil, err
	}
	if len(klines) == 0 {
		return nil, fmt.Errorf("no historical data for %s", symbol)
	}

	closes := make([]float64, len(klines))
	for i, k := range klines {
		closes[i] = k.Close
		// Cache fill is best-effort; a missing database never fails the request.
		cacheKLine(k)
	}
	return closes, nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func handleTick(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	tick, err := fetchTick(symbol)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tick)
}

func handleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	days := 120
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		if d, err := strconv.Atoi(daysStr); err == nil {
			days = d
		}
	}

	closes, err := fetchCloses(symbol, days)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"symbol": symbol,
		"closes": closes,
	})
}

func handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}

	runs, err := recentRuns(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}
