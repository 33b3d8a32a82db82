package identity

import (
	"fmt"

	"github.com/kbukum/gotasks/auth"
	"github.com/kbukum/gotasks/config"
	"github.com/kbukum/gotasks/database"
	"github.com/kbukum/gotasks/observability"
	"github.com/kbukum/gotasks/server"
)

// Config is the identity service configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server   server.Config        `yaml:"server" mapstructure:"server"`
	Database database.Config      `yaml:"database" mapstructure:"database"`
	Auth     auth.Config          `yaml:"auth" mapstructure:"auth"`
	Tracing  observability.Config `yaml:"tracing" mapstructure:"tracing"`
	Internal InternalConfig       `yaml:"internal" mapstructure:"internal"`
}

// InternalConfig configures the service-to-service surface.
type InternalConfig struct {
	// ServiceKey is the shared credential callers send in X-Service-Token.
	ServiceKey string `yaml:"service_key" mapstructure:"service_key"`
}

// ApplyDefaults fills in defaults for every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "identity-service"
	}
	c.ServiceConfig.ApplyDefaults()
	if c.Server.Port == 0 {
		c.Server.Port = 8081
	}
	c.Server.ApplyDefaults()
	if c.Database.DSN == "" {
		c.Database.DSN = "file:identity.db?_busy_timeout=5000&_foreign_keys=on"
	}
	c.Database.ApplyDefaults()
	c.Auth.Token.Strict = c.Auth.Token.Strict || c.IsProduction()
	c.Auth.ApplyDefaults()
	c.Tracing.ApplyDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Tracing.Validate(); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	if c.IsProduction() && c.Internal.ServiceKey == "" {
		return fmt.Errorf("internal.service_key is required in production")
	}
	return nil
}
