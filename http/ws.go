package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const wsWriteTimeout = 30 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// lstmStream runs an autoregressive forecast and reports each step as it is
// produced. Injected by the server entrypoint.
var lstmStream func(prices []float64, steps int, onStep func(step int, value float64)) ([]float64, error)

func SetLstmStreamer(fn func(prices []float64, steps int, onStep func(step int, value float64)) ([]float64, error)) {
	lstmStream = fn
}

func RegisterStreamHandlers(mux *http.ServeMux, logger *zap.Logger) {
	mux.HandleFunc("GET /api/ws/forecast", func(w http.ResponseWriter, r *http.Request) {
		handleForecastStream(w, r, logger)
	})
}

// stepMessage is one streamed forecast step. The final message carries Done
// and the full prediction series instead.
type stepMessage struct {
	Step        int       `json:"step,omitempty"`
	Value       float64   `json:"value,omitempty"`
	Done        bool      `json:"done,omitempty"`
	Predictions []float64 `json:"predictions,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// handleForecastStream reads one forecast request off the socket and streams
// each predicted step back as its own message.
func handleForecastStream(w http.ResponseWriter, r *http.Request, logger *zap.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	var req ForecastRequest
	if err := conn.ReadJSON(&req); err != nil {
		writeStep(conn, stepMessage{Error: "invalid request"})
		return
	}
	if req.Steps <= 0 {
		writeStep(conn, stepMessage{Error: "steps must be positive"})
		return
	}
	if len(req.Prices) == 0 {
		writeStep(conn, stepMessage{Error: "prices required"})
		return
	}
	if lstmStream == nil {
		writeStep(conn, stepMessage{Error: "lstm model not loaded"})
		return
	}

	predictions, err := lstmStream(req.Prices, req.Steps, func(step int, value float64) {
		writeStep(conn, stepMessage{Step: step, Value: value})
	})
	if err != nil {
		logger.Warn("streamed forecast failed", zap.Error(err))
		writeStep(conn, stepMessage{Error: err.Error()})
		return
	}

	writeStep(conn, stepMessage{Done: true, Predictions: predictions})
}

func writeStep(conn *websocket.Conn, msg stepMessage) {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	conn.WriteJSON(msg)
}
