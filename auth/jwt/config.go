package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// SigningMethod names a supported HMAC algorithm. Only single-secret
// symmetric signing is offered.
type SigningMethod string

const (
	HS256 SigningMethod = "HS256"
	HS384 SigningMethod = "HS384"
	HS512 SigningMethod = "HS512"
)

// minProductionSecret is the shortest secret accepted when Strict is set.
const minProductionSecret = 32

// Config configures the token codec. Both services load the same secret.
type Config struct {
	// Secret is the shared HMAC signing key.
	Secret string `yaml:"secret" mapstructure:"secret"`

	// Method is the signing algorithm (default: HS256).
	Method SigningMethod `yaml:"method" mapstructure:"method"`

	// Issuer is the "iss" claim. When set, tokens with another issuer are rejected.
	Issuer string `yaml:"issuer" mapstructure:"issuer"`

	// TTL is the lifetime of issued tokens (default: 1h).
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`

	// Strict enforces a minimum secret length; enabled for production.
	Strict bool `yaml:"strict" mapstructure:"strict"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Method == "" {
		c.Method = HS256
	}
	if c.TTL == 0 {
		c.TTL = time.Hour
	}
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.Secret == "" {
		return errors.New("jwt: secret is required")
	}
	if c.Strict && len(c.Secret) < minProductionSecret {
		return fmt.Errorf("jwt: secret must be at least %d bytes", minProductionSecret)
	}
	switch c.Method {
	case HS256, HS384, HS512:
	default:
		return errors.New("jwt: unsupported signing method: " + string(c.Method))
	}
	if c.TTL < 0 {
		return errors.New("jwt: ttl must be positive")
	}
	return nil
}

func (c *Config) signingMethod() gojwt.SigningMethod {
	switch c.Method {
	case HS384:
		return gojwt.SigningMethodHS384
	case HS512:
		return gojwt.SigningMethodHS512
	default:
		return gojwt.SigningMethodHS256
	}
}
