package app

import (
	"errors"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ModulesPath  string // parent directory of compiled-in module roots
	ManifestPath string // optional manifest file or directory

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	Watch         bool
	WatchDebounce time.Duration
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ModulesPath == "" && cfg.ManifestPath == "" {
		return nil, errors.New("either ModulesPath or ManifestPath must be set")
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, errors.New("HealthcheckPort must be between 0 and 65535")
	}
	if cfg.WatchDebounce < 0 {
		return nil, errors.New("WatchDebounce cannot be negative")
	}

	return &cfg, nil
}
