// Package config loads the shared YAML configuration used by the forecast
// commands and the server.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

type Config struct {
	CacheDir string `yaml:"cache_dir"`
	Device   string `yaml:"device"`

	// Path to the onnxruntime shared library. Empty means the loader's
	// default search path.
	ONNXLibrary string `yaml:"onnx_library"`

	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Http struct {
		Port int `yaml:"port"`
	} `yaml:"http"`

	Chronos struct {
		Repo    string `yaml:"repo"`
		Samples int    `yaml:"samples"`
	} `yaml:"chronos"`

	Lstm struct {
		Repo   string `yaml:"repo"`
		Window int    `yaml:"window"`
	} `yaml:"lstm"`
}

// Load reads the config at path, or returns the defaults when path is empty.
// Missing keys keep their default values.
func Load(path string) (*Config, error) {
	config := defaults()
	if path == "" {
		return config, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, err
	}
	return config, nil
}

func defaults() *Config {
	var config Config
	config.CacheDir = defaultCacheDir()
	config.Device = "auto"
	config.Log.Level = "info"
	config.Database.Path = "stockcast.db"
	config.Http.Port = 8080
	config.Chronos.Repo = "amazon/chronos-t5-small"
	config.Chronos.Samples = 20
	config.Lstm.Repo = "jengyang/lstm-stock-prediction-model"
	config.Lstm.Window = 60
	return &config
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return ".cache"
	}
	return filepath.Join(base, "stockcast")
}
