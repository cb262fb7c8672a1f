package extension

import (
	"log/slog"

	"github.com/xraph/renderrelay"
	"github.com/xraph/renderrelay/api"
	"github.com/xraph/renderrelay/store"
)

// ExtOption configures the extension.
type ExtOption func(*Extension)

// WithStore sets the persistence backend via an adapter option.
func WithStore(s store.Store) ExtOption {
	return func(e *Extension) {
		e.opts = append(e.opts, renderrelay.WithStore(s))
		e.store = s
	}
}

// WithPrefix sets the URL prefix for the inbound routes.
func WithPrefix(prefix string) ExtOption {
	return func(e *Extension) {
		e.config.BasePath = prefix
	}
}

// WithConfig sets the extension configuration directly.
func WithConfig(cfg Config) ExtOption {
	return func(e *Extension) {
		e.config = cfg
	}
}

// WithAdapterOption appends a raw renderrelay.Option. Adapter options are
// applied after the configuration, so they win over it.
func WithAdapterOption(opt renderrelay.Option) ExtOption {
	return func(e *Extension) {
		e.opts = append(e.opts, opt)
	}
}

// WithSink sets the receiver of accepted deliveries.
func WithSink(sink api.Sink) ExtOption {
	return func(e *Extension) {
		e.sink = sink
	}
}

// WithLogger sets the logger used by the extension and the adapter.
func WithLogger(logger *slog.Logger) ExtOption {
	return func(e *Extension) {
		e.logger = logger
		e.opts = append(e.opts, renderrelay.WithLogger(logger))
	}
}

// WithDisableRoutes disables route registration.
func WithDisableRoutes() ExtOption {
	return func(e *Extension) {
		e.config.DisableRoutes = true
	}
}

// WithDisableMigrations disables store migration on Register.
func WithDisableMigrations() ExtOption {
	return func(e *Extension) {
		e.config.DisableMigrate = true
	}
}
