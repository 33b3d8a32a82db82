package identityclient

import (
	"fmt"
	"time"

	"github.com/kbukum/gotasks/resilience"
	"github.com/kbukum/gotasks/security"
)

const defaultTimeout = 3 * time.Second

// Config configures the client of the identity service.
type Config struct {
	// BaseURL of the identity service, e.g. "http://localhost:8081".
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds a single existence check (default: 3s).
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// ServiceKey is sent as X-Service-Token. Empty sends no credential.
	ServiceKey string `yaml:"service_key" mapstructure:"service_key"`

	// Breaker trips after consecutive failures so an unreachable identity
	// service fails fast.
	Breaker resilience.BreakerConfig `yaml:"breaker" mapstructure:"breaker"`

	// TLS trusts the identity service's CA and may present a client
	// certificate when it requires one.
	TLS security.ClientConfig `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8081"
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	c.Breaker.ApplyDefaults()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("identity.base_url is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("identity.timeout must be positive")
	}
	if err := c.TLS.Validate(); err != nil {
		return fmt.Errorf("identity.tls: %w", err)
	}
	return nil
}
