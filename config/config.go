// Package config loads the engine configuration from YAML with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// EngineConfig controls factorization and problem-size limits.
type EngineConfig struct {
	Jitter    JitterConfig `yaml:"jitter"`
	MaxPoints int          `yaml:"maxPoints"`
	Workers   int          `yaml:"workers"`
}

// JitterConfig is the diagonal jitter policy used when a factorization fails.
type JitterConfig struct {
	Relative   float64 `yaml:"relative"`
	MaxRetries int     `yaml:"maxRetries"`
}

// LoggingConfig controls the log level and output format.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

func Default() Config {
	return Config{
		Engine: EngineConfig{
			Jitter: JitterConfig{
				Relative:   1e-6,
				MaxRetries: 5,
			},
			MaxPoints: 4096,
			Workers:   1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Port: 9090,
		},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path yields the defaults with
// overrides applied.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("GP_JITTER_RELATIVE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("GP_JITTER_RELATIVE: %w", err)
		}
		cfg.Engine.Jitter.Relative = f
	}
	ints := []struct {
		env string
		dst *int
	}{
		{"GP_JITTER_MAX_RETRIES", &cfg.Engine.Jitter.MaxRetries},
		{"GP_MAX_POINTS", &cfg.Engine.MaxPoints},
		{"GP_WORKERS", &cfg.Engine.Workers},
		{"GP_METRICS_PORT", &cfg.Metrics.Port},
	}
	for _, o := range ints {
		if v := os.Getenv(o.env); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", o.env, err)
			}
			*o.dst = n
		}
	}
	if v := os.Getenv("GP_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Engine.Jitter.Relative < 0 {
		return fmt.Errorf("engine.jitter.relative must be >= 0, got %v", c.Engine.Jitter.Relative)
	}
	if c.Engine.Jitter.MaxRetries < 0 {
		return fmt.Errorf("engine.jitter.maxRetries must be >= 0, got %d", c.Engine.Jitter.MaxRetries)
	}
	if c.Engine.MaxPoints < 0 {
		return fmt.Errorf("engine.maxPoints must be >= 0, got %d", c.Engine.MaxPoints)
	}
	if c.Engine.Workers < 1 {
		return fmt.Errorf("engine.workers must be >= 1, got %d", c.Engine.Workers)
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return fmt.Errorf("metrics.port out of range: %d", c.Metrics.Port)
	}
	return nil
}
