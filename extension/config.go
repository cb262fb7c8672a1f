package extension

import (
	"github.com/xraph/renderrelay"
)

// Config holds configuration for the extension. It can be set
// programmatically via ExtOption functions or loaded from YAML alongside the
// core configuration.
type Config struct {
	// Config embeds the core renderrelay configuration.
	renderrelay.Config `json:",inline" yaml:",inline" mapstructure:",squash"`

	// BasePath is the URL prefix for the inbound routes (default: "/renderbase").
	BasePath string `json:"base_path" yaml:"base_path" mapstructure:"base_path"`

	// DisableRoutes skips route registration in Mount.
	DisableRoutes bool `json:"disable_routes" yaml:"disable_routes" mapstructure:"disable_routes"`

	// DisableMigrate skips store migration on Register.
	DisableMigrate bool `json:"disable_migrate" yaml:"disable_migrate" mapstructure:"disable_migrate"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Config:   renderrelay.DefaultConfig(),
		BasePath: "/renderbase",
	}
}

// ToAdapterOptions converts the embedded core configuration into
// renderrelay.Option values.
func (c Config) ToAdapterOptions() []renderrelay.Option {
	return []renderrelay.Option{renderrelay.WithConfig(c.Config)}
}
