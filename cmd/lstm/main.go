// Command lstm runs an autoregressive forecast with a pretrained recurrent
// model. The forecast JSON goes to stdout; diagnostics to stderr.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"stockcast/config"
	"stockcast/db"
	"stockcast/forecast"
	"stockcast/hub"
	"stockcast/logging"
	"stockcast/market"
	"stockcast/model"
)

type output struct {
	Prediction []float64 `json:"prediction"`
	LastPrice  float64   `json:"last_price"`
}

func main() {
	pricesFlag := flag.String("prices", "", "comma-separated close prices")
	symbol := flag.String("symbol", "", "fetch history for this symbol instead of --prices")
	days := flag.Int("days", 120, "days of history to fetch with --symbol")
	steps := flag.Int("steps", 5, "forecast horizon")
	repoID := flag.String("repo", "", "model repository (default from config)")
	configPath := flag.String("config", "", "path to config file")
	verbose := flag.Bool("verbose", false, "log each predicted step")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail(fmt.Errorf("loading config: %w", err))
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.File)
	defer logger.Sync()

	prices, err := loadPrices(*pricesFlag, *symbol, *days)
	if err != nil {
		fail(err)
	}

	repo := *repoID
	if repo == "" {
		repo = cfg.Lstm.Repo
	}

	rt := model.InitRuntime(cfg.ONNXLibrary, cfg.Device)
	resolver := hub.NewResolver(rt, logger)

	handle, err := resolver.ResolveModel(hub.NewRepo(repo, cfg.CacheDir))
	if err != nil {
		fail(err)
	}

	window := cfg.Lstm.Window
	if handle.Metadata != nil && handle.Metadata.SequenceLength > 0 {
		window = handle.Metadata.SequenceLength
	}

	forecaster := &forecast.AutoregressiveForecaster{
		Model:  handle.Predictor,
		Scaler: handle.Scaler,
		Window: window,
	}
	if *verbose {
		forecaster.OnStep = func(step int, value float64) {
			logger.Info("predicted step", zap.Int("step", step), zap.Float64("value", value))
		}
	}

	start := time.Now()
	predictions, err := forecaster.Forecast(prices, *steps)
	if err != nil {
		fail(err)
	}
	logger.Info("forecast complete",
		zap.Int("steps", *steps),
		zap.Int("window", window),
		zap.Duration("duration", time.Since(start)))

	encoded, err := json.Marshal(output{
		Prediction: predictions,
		LastPrice:  prices[len(prices)-1],
	})
	if err != nil {
		fail(err)
	}

	recordRun(logger, cfg.Database.Path, db.ForecastRun{
		Model:       "lstm",
		Repo:        repo,
		Steps:       *steps,
		InputPoints: len(prices),
		Predictions: string(encoded),
		Duration:    time.Since(start),
	})

	fmt.Println(string(encoded))
}

func loadPrices(pricesFlag, symbol string, days int) ([]float64, error) {
	switch {
	case pricesFlag != "" && symbol != "":
		return nil, fmt.Errorf("--prices and --symbol are mutually exclusive; give exactly one")
	case pricesFlag != "":
		return forecast.ParsePrices(pricesFlag)
	case symbol != "":
		return market.FetchHistoricalCloses(symbol, days)
	default:
		return nil, fmt.Errorf("either --prices or --symbol is required")
	}
}

// recordRun logs the invocation to the local database. Best-effort: a missing
// or locked database never fails the forecast.
func recordRun(logger *zap.Logger, path string, run db.ForecastRun) {
	if path == "" {
		return
	}
	if err := db.InitDB(path); err != nil {
		logger.Debug("run not recorded", zap.Error(err))
		return
	}
	defer db.Close()
	if err := db.SaveForecastRun(run); err != nil {
		logger.Debug("run not recorded", zap.Error(err))
	}
}

// fail prints a JSON error object to stdout and exits non-zero.
func fail(err error) {
	encoded, _ := json.Marshal(map[string]string{"error": err.Error()})
	fmt.Println(string(encoded))
	os.Exit(1)
}
