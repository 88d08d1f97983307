// Package models defines the shared data structures of the scraper:
// configuration, page snapshots, and conversion records.
package models

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds service-wide settings loaded from a YAML file.
// CLI flags override individual fields after loading.
type Config struct {
	Addr         string        `yaml:"addr"`
	DatabasePath string        `yaml:"database"`
	UserAgent    string        `yaml:"user_agent"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	WorkerCount  int           `yaml:"workers"`

	// DetectLanguage toggles language detection on scraped pages.
	DetectLanguage bool `yaml:"detect_language"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Addr:           ":8000",
		DatabasePath:   "convscrape.db",
		UserAgent:      "convscrape/1.0",
		FetchTimeout:   15 * time.Second,
		WorkerCount:    4,
		DetectLanguage: true,
	}
}

// LoadConfig reads a YAML config file, falling back to defaults for any
// field the file leaves unset. A missing file is not an error: defaults
// are returned so the binary runs without any setup.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultConfig().WorkerCount
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = DefaultConfig().FetchTimeout
	}

	return config, nil
}
