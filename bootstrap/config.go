package bootstrap

import (
	"github.com/kbukum/gotasks/config"
)

// Config is the constraint for application configuration types. Any struct
// embedding config.ServiceConfig gets GetServiceConfig by promotion.
//
//	type MyConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Database database.Config `yaml:"database" mapstructure:"database"`
//	}
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
