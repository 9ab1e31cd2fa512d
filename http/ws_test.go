package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func dialForecastStream(t *testing.T) *websocket.Conn {
	t.Helper()
	mux := http.NewServeMux()
	RegisterStreamHandlers(mux, zap.NewNop())
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws/forecast"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestForecastStream(t *testing.T) {
	SetLstmStreamer(func(prices []float64, steps int, onStep func(int, float64)) ([]float64, error) {
		out := make([]float64, steps)
		for i := range out {
			out[i] = float64(i + 1)
			onStep(i+1, out[i])
		}
		return out, nil
	})
	defer SetLstmStreamer(nil)

	conn := dialForecastStream(t)
	if err := conn.WriteJSON(ForecastRequest{Model: "lstm", Prices: []float64{1, 2, 3}, Steps: 2}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var msg stepMessage
	for step := 1; step <= 2; step++ {
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read step %d: %v", step, err)
		}
		if msg.Step != step || msg.Value != float64(step) {
			t.Fatalf("unexpected step message: %+v", msg)
		}
	}

	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read final: %v", err)
	}
	if !msg.Done || len(msg.Predictions) != 2 {
		t.Fatalf("unexpected final message: %+v", msg)
	}
}

func TestForecastStreamRejectsBadRequest(t *testing.T) {
	SetLstmStreamer(func(prices []float64, steps int, onStep func(int, float64)) ([]float64, error) {
		return nil, nil
	})
	defer SetLstmStreamer(nil)

	conn := dialForecastStream(t)
	if err := conn.WriteJSON(ForecastRequest{Model: "lstm", Steps: 5}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var msg stepMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Error == "" {
		t.Fatalf("expected error message, got %+v", msg)
	}
}

func TestForecastStreamModelNotLoaded(t *testing.T) {
	SetLstmStreamer(nil)

	conn := dialForecastStream(t)
	if err := conn.WriteJSON(ForecastRequest{Model: "lstm", Prices: []float64{1}, Steps: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var msg stepMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(msg.Error, "not loaded") {
		t.Fatalf("unexpected message: %+v", msg)
	}
}
