// Package db persists forecast runs and cached market history in SQLite.
package db

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"stockcast/market"
)

var database *sql.DB

// InitDB initializes the SQLite database
func InitDB(path string) error {
	var err error
	database, err = sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS klines (
        id INTEGER PRIMARY KEY,
        symbol VARCHAR(20),
        open REAL,
        high REAL,
        low REAL,
        close REAL,
        volume INTEGER,
        timestamp DATETIME,
        UNIQUE(symbol, timestamp)
    );
    CREATE TABLE IF NOT EXISTS forecast_runs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        model VARCHAR(20) NOT NULL,
        repo TEXT NOT NULL,
        steps INTEGER NOT NULL,
        input_points INTEGER NOT NULL,
        predictions TEXT NOT NULL,
        duration_ms INTEGER NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    `

	_, err = database.Exec(query)
	return err
}

// Close releases the database handle.
func Close() error {
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

// SaveKLine caches one K-line row; re-fetches of the same day overwrite.
func SaveKLine(kline market.KLine) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	_, err := database.Exec(`
        INSERT OR REPLACE INTO klines (symbol, open, high, low, close, volume, timestamp)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		kline.Symbol, kline.Open, kline.High, kline.Low, kline.Close, kline.Volume, kline.Timestamp)
	return err
}

// QueryCloses returns up to limit cached close prices for a symbol in
// chronological order.
func QueryCloses(symbol string, limit int) ([]float64, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	rows, err := database.Query(`
        SELECT close FROM (
            SELECT close, timestamp FROM klines
            WHERE symbol = ?
            ORDER BY timestamp DESC
            LIMIT ?
        ) ORDER BY timestamp ASC`, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var closes []float64
	for rows.Next() {
		var c float64
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		closes = append(closes, c)
	}
	return closes, rows.Err()
}

// ForecastRun is one completed forecast invocation. Predictions is the
// serialized output JSON, kept verbatim for later inspection.
type ForecastRun struct {
	Model       string        `json:"model"`
	Repo        string        `json:"repo"`
	Steps       int           `json:"steps"`
	InputPoints int           `json:"input_points"`
	Predictions string        `json:"predictions"`
	Duration    time.Duration `json:"duration_ms"`
	CreatedAt   time.Time     `json:"created_at"`
}

func SaveForecastRun(run ForecastRun) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	_, err := database.Exec(`
        INSERT INTO forecast_runs (model, repo, steps, input_points, predictions, duration_ms)
        VALUES (?, ?, ?, ?, ?, ?)`,
		run.Model, run.Repo, run.Steps, run.InputPoints, run.Predictions, run.Duration.Milliseconds())
	return err
}

func RecentRuns(limit int) ([]ForecastRun, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	rows, err := database.Query(`
        SELECT model, repo, steps, input_points, predictions, duration_ms, created_at
        FROM forecast_runs
        ORDER BY created_at DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]ForecastRun, 0)
	for rows.Next() {
		var run ForecastRun
		var ms int64
		if err := rows.Scan(&run.Model, &run.Repo, &run.Steps, &run.InputPoints, &run.Predictions, &ms, &run.CreatedAt); err != nil {
			return nil, err
		}
		run.Duration = time.Duration(ms) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
