// Package config loads the server's YAML configuration, following the same
// two-file app/source split and defaulting conventions the rest of this
// project's ambient stack uses.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the top-level application configuration.
type Config struct {
	App   AppConfig   `yaml:"app"`
	Model ModelConfig `yaml:"model"`
}

// AppConfig holds the HTTP server settings. cmd/lmserve uses ListenAddr;
// it logs at info level whatever LogLevel says, and does not read WorkDir.
type AppConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`
	WorkDir    string `yaml:"work_dir"`
}

// ModelConfig holds model settings. cmd/lmserve uses only StoreDir; the
// HTTP API takes each session's order and dedup flag from the request.
type ModelConfig struct {
	// Order is a default n-gram order (>= 1). It is validated on load and
	// not otherwise read by cmd/lmserve.
	Order int `yaml:"order"`

	// WordWidth names an integer width (1, 2, or 4 bytes) matching one of
	// lm's Word instantiations. It is validated on load; the server's
	// sessions always use 32-bit words.
	WordWidth int `yaml:"word_width"`

	// StoreDir is where trained models are persisted between sessions.
	StoreDir string `yaml:"store_dir"`

	// TrainDedup is a default for sequence-level deduplication during
	// training. It is not read by cmd/lmserve.
	TrainDedup bool `yaml:"train_dedup"`
}

func defaultConfig() Config {
	return Config{
		App: AppConfig{
			ListenAddr: ":8080",
			LogLevel:   "info",
			WorkDir:    ".",
		},
		Model: ModelConfig{
			Order:      3,
			WordWidth:  4,
			StoreDir:   "models",
			TrainDedup: true,
		},
	}
}

// LoadConfig reads appPath, applying defaults for any field left
// unspecified. sourcePath is reserved for a future corpus-source manifest
// and is only validated to exist if non-empty.
func LoadConfig(appPath, sourcePath string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(appPath)
	if err != nil {
		return nil, fmt.Errorf("config: read app config %q: %w", appPath, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse app config %q: %w", appPath, err)
	}

	if sourcePath != "" {
		if _, err := os.Stat(sourcePath); err != nil {
			return nil, fmt.Errorf("config: source manifest %q: %w", sourcePath, err)
		}
	}

	if err := cfg.Model.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (m ModelConfig) validate() error {
	if m.Order < 1 {
		return fmt.Errorf("config: model.order must be >= 1, got %d", m.Order)
	}
	switch m.WordWidth {
	case 1, 2, 4:
	default:
		return fmt.Errorf("config: model.word_width must be 1, 2, or 4, got %d", m.WordWidth)
	}
	return nil
}
