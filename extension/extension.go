package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/xraph/renderrelay"
	"github.com/xraph/renderrelay/api"
	"github.com/xraph/renderrelay/store"
)

// ErrNotRegistered is returned when the extension is used before Register.
var ErrNotRegistered = errors.New("extension: not registered")

// Migrator is implemented by stores that manage their own schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// Extension binds an Adapter to a host application.
type Extension struct {
	config  Config
	opts    []renderrelay.Option
	store   store.Store
	sink    api.Sink
	logger  *slog.Logger
	adapter *renderrelay.Adapter
}

// New creates an extension. Nothing is built until Register.
func New(opts ...ExtOption) *Extension {
	e := &Extension{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register builds the Adapter and migrates the store.
func (e *Extension) Register(ctx context.Context) error {
	opts := append(e.config.ToAdapterOptions(), e.opts...)

	a, err := renderrelay.New(opts...)
	if err != nil {
		return fmt.Errorf("extension: build adapter: %w", err)
	}

	if m, ok := e.store.(Migrator); ok && !e.config.DisableMigrate {
		if err := m.Migrate(ctx); err != nil {
			return errors.Join(fmt.Errorf("extension: migrate store: %w", err), a.Close())
		}
	}

	e.adapter = a
	e.logger.InfoContext(ctx, "renderrelay registered",
		"base_path", e.Prefix(), "base_url", a.Config().BaseURL, "ledger", e.store != nil)
	return nil
}

// Adapter returns the built Adapter, or nil before Register.
func (e *Extension) Adapter() *renderrelay.Adapter { return e.adapter }

// Prefix returns the configured URL prefix.
func (e *Extension) Prefix() string {
	p := "/" + strings.Trim(e.config.BasePath, "/")
	if p == "/" {
		return ""
	}
	return p
}

// Handler returns the inbound handler with the prefix stripped.
func (e *Extension) Handler() (http.Handler, error) {
	if e.adapter == nil {
		return nil, ErrNotRegistered
	}
	h := e.adapter.Handler(e.sink)
	if p := e.Prefix(); p != "" {
		return http.StripPrefix(p, h), nil
	}
	return h, nil
}

// Mount registers the inbound routes on r under the prefix.
func (e *Extension) Mount(r chi.Router) error {
	if e.config.DisableRoutes {
		return nil
	}
	if e.adapter == nil {
		return ErrNotRegistered
	}
	if p := e.Prefix(); p != "" {
		r.Mount(p, e.adapter.Handler(e.sink))
		return nil
	}
	r.Mount("/", e.adapter.Handler(e.sink))
	return nil
}

// Health pings the store. An extension without a store is always healthy.
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	return e.store.Ping(ctx)
}

// Stop releases the adapter.
func (e *Extension) Stop(_ context.Context) error {
	if e.adapter == nil {
		return nil
	}
	return e.adapter.Close()
}
