package observability

import (
	"fmt"
	"time"
)

// Config configures tracing and metrics export over OTLP/HTTP.
type Config struct {
	// Enabled turns on the trace exporter.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// MetricsEnabled turns on the metric exporter.
	MetricsEnabled bool `yaml:"metrics_enabled" mapstructure:"metrics_enabled"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// Insecure allows plaintext connections (for development).
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// SampleRate is the sampling rate (0.0 to 1.0).
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
	// MetricsInterval is the metric export interval.
	MetricsInterval time.Duration `yaml:"metrics_interval" mapstructure:"metrics_interval"`
}

// ServiceInfo describes the process in exported telemetry.
type ServiceInfo struct {
	Name        string
	Version     string
	Environment string
}

// ApplyDefaults sets sensible defaults for development.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.MetricsInterval == 0 {
		c.MetricsInterval = 15 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0 and 1 (got: %v)", c.SampleRate)
	}
	if (c.Enabled || c.MetricsEnabled) && c.Endpoint == "" {
		return fmt.Errorf("tracing.endpoint is required when export is enabled")
	}
	return nil
}
