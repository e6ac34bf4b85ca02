// Package config loads the CLI host configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/Sternrassler/rickmorty-client/pkg/client"
	"github.com/Sternrassler/rickmorty-client/pkg/logging"
	"github.com/Sternrassler/rickmorty-client/pkg/pagination"
	"github.com/Sternrassler/rickmorty-client/pkg/tracing"
)

// Config holds every setting the rickmorty command reads from the environment.
type Config struct {
	BaseURL   string        `env:"RM_BASE_URL"   envDefault:"https://rickandmortyapi.com/api/"`
	UserAgent string        `env:"RM_USER_AGENT" envDefault:"rickmorty-client/0.1.0"`
	Timeout   time.Duration `env:"RM_TIMEOUT"    envDefault:"30s"`

	LogLevel  string `env:"RM_LOG_LEVEL"  envDefault:"info"`
	LogPretty bool   `env:"RM_LOG_PRETTY"`

	// MetricsAddr enables the /health and /metrics server when set.
	MetricsAddr string `env:"RM_METRICS_ADDR"`

	// OtelEndpoint enables OTLP/HTTP span export when set.
	OtelEndpoint string `env:"RM_OTEL_ENDPOINT"`

	ScrollThreshold float64       `env:"RM_SCROLL_THRESHOLD" envDefault:"100"`
	FetchTimeout    time.Duration `env:"RM_FETCH_TIMEOUT"    envDefault:"15s"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values env parsing cannot.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("RM_LOG_LEVEL: %w", err)
	}
	if c.ScrollThreshold < 0 {
		return fmt.Errorf("RM_SCROLL_THRESHOLD must be >= 0 (got %v)", c.ScrollThreshold)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("RM_FETCH_TIMEOUT must be > 0 (got %s)", c.FetchTimeout)
	}
	return nil
}

// Client returns the API client configuration.
func (c Config) Client() client.Config {
	return client.Config{
		BaseURL:   c.BaseURL,
		UserAgent: c.UserAgent,
		Timeout:   c.Timeout,
	}
}

// Listing returns the listing controller configuration.
func (c Config) Listing() pagination.Config {
	return pagination.Config{
		ScrollThreshold: c.ScrollThreshold,
		FetchTimeout:    c.FetchTimeout,
	}
}

// Logging returns the logger configuration.
func (c Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.LogLevel)
	cfg.Pretty = c.LogPretty
	return cfg
}

// Tracing returns the tracing configuration.
func (c Config) Tracing() tracing.Config {
	return tracing.Config{
		Endpoint:    c.OtelEndpoint,
		ServiceName: "rickmorty",
	}
}
