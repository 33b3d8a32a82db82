package auth

import (
	"fmt"

	"github.com/kbukum/gotasks/auth/jwt"
	"github.com/kbukum/gotasks/auth/password"
)

// Config holds all authentication configuration.
// It composes subpackage configs for loading from YAML/env via mapstructure.
type Config struct {
	// Token configures the shared token codec.
	Token jwt.Config `yaml:"token" mapstructure:"token"`

	// Password configures password hashing. Only the identity service uses it.
	Password password.Config `yaml:"password" mapstructure:"password"`
}

// ApplyDefaults sets sensible defaults for the sub-configurations.
func (c *Config) ApplyDefaults() {
	c.Token.ApplyDefaults()
	c.Password.ApplyDefaults()
}

// Validate checks all sub-configurations.
func (c *Config) Validate() error {
	if err := c.Token.Validate(); err != nil {
		return fmt.Errorf("auth.token: %w", err)
	}
	if err := c.Password.Validate(); err != nil {
		return fmt.Errorf("auth.password: %w", err)
	}
	return nil
}

// Describe returns a human-readable one-liner for the startup summary.
// Example: "token(HS256) ttl=1h0m0s password=bcrypt"
func (c *Config) Describe() string {
	return fmt.Sprintf("token(%s) ttl=%s password=%s", c.Token.Method, c.Token.TTL, c.Password.Algorithm)
}
