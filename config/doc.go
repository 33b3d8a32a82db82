// Package config loads service configuration from a YAML file, an optional
// .env file and the process environment, in increasing order of precedence.
//
// Files are resolved per service: cmd/<service>/config.yml, then
// config/config.yml, then ./config.yml. Every mapstructure key of the target
// struct is bound to its upper-snake environment name, so
// auth.token.secret is overridden by AUTH_TOKEN_SECRET.
//
//	var cfg identity.Config
//	if err := config.LoadConfig("identity-service", &cfg); err != nil { ... }
package config
