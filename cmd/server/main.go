// Command server exposes the forecasters over HTTP and WebSocket.
package main

import (
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"stockcast/config"
	"stockcast/db"
	"stockcast/forecast"
	qhttp "stockcast/http"
	"stockcast/hub"
	"stockcast/logging"
	"stockcast/model"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Fall back to defaults so the server still comes up without a
		// config file next to the binary.
		cfg, _ = config.Load("")
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.File)
	defer logger.Sync()

	if err := db.InitDB(cfg.Database.Path); err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	defer db.Close()
	logger.Info("database initialized", zap.String("path", cfg.Database.Path))

	rt := model.InitRuntime(cfg.ONNXLibrary, cfg.Device)
	resolver := hub.NewResolver(rt, logger)

	wireForecasters(cfg, resolver, logger)

	serverConfig := qhttp.DefaultServerConfig()
	serverConfig.Port = cfg.Http.Port
	server := qhttp.NewServer(serverConfig, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}
}

// wireForecasters resolves both model repositories and installs the forecast
// backends on the HTTP handlers. A repository that fails to resolve leaves
// its backend unset; the handler reports it as unavailable.
func wireForecasters(cfg *config.Config, resolver *hub.Resolver, logger *zap.Logger) {
	if sampler, err := resolver.ResolveSampler(hub.NewRepo(cfg.Chronos.Repo, cfg.CacheDir)); err != nil {
		logger.Warn("chronos backend unavailable", zap.String("repo", cfg.Chronos.Repo), zap.Error(err))
	} else {
		forecaster := &forecast.QuantileForecaster{Pipeline: sampler, Samples: cfg.Chronos.Samples}
		qhttp.SetChronosForecaster(func(prices []float64, steps int) (*forecast.QuantileBand, error) {
			start := time.Now()
			band, err := forecaster.Forecast(prices, steps)
			if err == nil {
				saveRun("chronos", cfg.Chronos.Repo, steps, len(prices), band.Median, time.Since(start), logger)
			}
			return band, err
		})
		logger.Info("chronos backend ready", zap.String("repo", cfg.Chronos.Repo))
	}

	handle, err := resolver.ResolveModel(hub.NewRepo(cfg.Lstm.Repo, cfg.CacheDir))
	if err != nil {
		logger.Warn("lstm backend unavailable", zap.String("repo", cfg.Lstm.Repo), zap.Error(err))
		return
	}

	window := cfg.Lstm.Window
	if handle.Metadata != nil && handle.Metadata.SequenceLength > 0 {
		window = handle.Metadata.SequenceLength
	}

	newForecaster := func(onStep func(int, float64)) *forecast.AutoregressiveForecaster {
		return &forecast.AutoregressiveForecaster{
			Model:  handle.Predictor,
			Scaler: handle.Scaler,
			Window: window,
			OnStep: onStep,
		}
	}

	qhttp.SetLstmForecaster(func(prices []float64, steps int) ([]float64, error) {
		start := time.Now()
		predictions, err := newForecaster(nil).Forecast(prices, steps)
		if err == nil {
			saveRun("lstm", cfg.Lstm.Repo, steps, len(prices), predictions, time.Since(start), logger)
		}
		return predictions, err
	})
	qhttp.SetLstmStreamer(func(prices []float64, steps int, onStep func(int, float64)) ([]float64, error) {
		return newForecaster(onStep).Forecast(prices, steps)
	})
	logger.Info("lstm backend ready", zap.String("repo", cfg.Lstm.Repo), zap.Int("window", window))
}

func saveRun(modelName, repo string, steps, inputPoints int, predictions []float64, duration time.Duration, logger *zap.Logger) {
	encoded, err := encodePredictions(predictions)
	if err != nil {
		return
	}
	run := db.ForecastRun{
		Model:       modelName,
		Repo:        repo,
		Steps:       steps,
		InputPoints: inputPoints,
		Predictions: encoded,
		Duration:    duration,
	}
	if err := db.SaveForecastRun(run); err != nil {
		logger.Debug("run not recorded", zap.Error(err))
	}
}

func encodePredictions(predictions []float64) (string, error) {
	encoded, err := json.Marshal(map[string][]float64{"predictions": predictions})
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
