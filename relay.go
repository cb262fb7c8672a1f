package renderrelay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xraph/renderrelay/api"
	"github.com/xraph/renderrelay/batch"
	"github.com/xraph/renderrelay/catalog"
	"github.com/xraph/renderrelay/gateway"
	"github.com/xraph/renderrelay/lookup"
	"github.com/xraph/renderrelay/observability"
	"github.com/xraph/renderrelay/ratelimit"
	"github.com/xraph/renderrelay/signature"
	"github.com/xraph/renderrelay/store"
	"github.com/xraph/renderrelay/subscription"
	"github.com/xraph/renderrelay/webhook"
)

// Adapter is the root object binding an automation host to the document
// service. It is safe for concurrent use once built.
type Adapter struct {
	config     Config
	httpClient *http.Client
	store      store.Store
	catalog    *catalog.Catalog
	metrics    *observability.Metrics
	tracer     *observability.Tracer
	logger     *slog.Logger

	limiter  *ratelimit.Limiter
	gateway  *gateway.Client
	resolver *lookup.Resolver
	batches  *batch.Orchestrator
	subs     *subscription.Manager
}

// New creates an Adapter with the given options.
func New(opts ...Option) (*Adapter, error) {
	a := &Adapter{
		config: DefaultConfig(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	if a.config.APIKey == "" && a.httpClient == nil {
		return nil, ErrNoAPIKey
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.catalog == nil {
		a.catalog = catalog.NewDefault()
	}

	if err := a.wireServices(); err != nil {
		return nil, err
	}
	return a, nil
}

// wireServices initializes the internal services after options have been applied.
func (a *Adapter) wireServices() error {
	a.limiter = ratelimit.New(a.config.RateLimit, a.config.RateBurst)

	gw, err := gateway.New(gateway.Config{
		BaseURL:    a.config.BaseURL,
		APIKey:     a.config.APIKey,
		Timeout:    a.config.RequestTimeout,
		UserAgent:  a.config.UserAgent,
		HTTPClient: a.httpClient,
		Limiter:    a.limiter,
		Metrics:    a.metrics,
		Tracer:     a.tracer,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("renderrelay: %w", err)
	}
	a.gateway = gw

	lcfg := lookup.DefaultConfig()
	if a.config.TeamsPath != "" {
		lcfg.TeamsPath = a.config.TeamsPath
	}
	if a.config.TemplatesPath != "" {
		lcfg.TemplatesPath = a.config.TemplatesPath
	}
	if a.config.TemplatePageLimit > 0 {
		lcfg.PageLimit = a.config.TemplatePageLimit
	}
	a.resolver = lookup.NewResolver(gw, lcfg, a.metrics, a.logger)

	a.batches = batch.NewOrchestrator(gw, batch.Config{
		BatchesPath: a.config.BatchesPath,
	}, a.metrics, a.logger)

	var ledger subscription.Store
	if a.store != nil {
		ledger = a.store
	}
	a.subs = subscription.NewManager(gw, ledger, a.catalog, subscription.Config{
		WebhooksPath: a.config.WebhooksPath,
	}, a.logger)

	return nil
}

// Config returns the effective configuration.
func (a *Adapter) Config() Config { return a.config }

// Store returns the configured store, or nil.
func (a *Adapter) Store() store.Store { return a.store }

// Catalog returns the event type catalog.
func (a *Adapter) Catalog() *catalog.Catalog { return a.catalog }

// Gateway returns the outbound request client.
func (a *Adapter) Gateway() *gateway.Client { return a.gateway }

// Lookup returns the dynamic option resolver.
func (a *Adapter) Lookup() *lookup.Resolver { return a.resolver }

// Batches returns the batch orchestrator.
func (a *Adapter) Batches() *batch.Orchestrator { return a.batches }

// Subscriptions returns the subscription manager.
func (a *Adapter) Subscriptions() *subscription.Manager { return a.subs }

// ──────────────────────────────────────────────────
// Convenience methods
// ──────────────────────────────────────────────────

// RegisterEventType adds an event type to the catalog.
func (a *Adapter) RegisterEventType(def catalog.WebhookDefinition) error {
	return a.catalog.Register(def)
}

// Resolve returns the options for one kind of dynamic input field.
func (a *Adapter) Resolve(ctx context.Context, kind lookup.Kind, f lookup.Filters) ([]lookup.Option, error) {
	return a.resolver.Resolve(ctx, kind, f)
}

// SubmitBatch requests bulk generation. The returned job is the accepted
// state; completion is reported later by a batch.completed delivery.
func (a *Adapter) SubmitBatch(ctx context.Context, req batch.Request) (*batch.Job, error) {
	return a.batches.Submit(ctx, req)
}

// Subscribe registers targetURL for deliveries of eventType.
func (a *Adapter) Subscribe(ctx context.Context, eventType, targetURL string) (*subscription.Subscription, error) {
	return a.subs.Subscribe(ctx, eventType, targetURL)
}

// Unsubscribe removes a remote subscription. Removing one that no longer
// exists succeeds.
func (a *Adapter) Unsubscribe(ctx context.Context, remoteID string) error {
	return a.subs.Unsubscribe(ctx, remoteID)
}

// Normalizer returns a normalizer for a registered event type.
func (a *Adapter) Normalizer(eventType string) (*webhook.Normalizer, error) {
	if !a.catalog.Has(eventType) {
		return nil, fmt.Errorf("%w: %s", ErrEventTypeNotFound, eventType)
	}

	opts := []webhook.Option{
		webhook.WithCatalog(a.catalog),
		webhook.WithDataSchema(a.config.StrictPayloads),
		webhook.WithLogger(a.logger),
		webhook.WithMetrics(a.metrics),
	}
	if a.config.SampleLimit > 0 {
		opts = append(opts, webhook.WithSampleLimit(a.config.SampleLimit))
	}
	return webhook.NewNormalizer(eventType, opts...), nil
}

// HandleDelivery validates and flattens one raw delivery. Accepted
// deliveries are recorded for sample listing when a store is configured.
func (a *Adapter) HandleDelivery(ctx context.Context, eventType string, raw []byte) (*webhook.Event, error) {
	n, err := a.Normalizer(eventType)
	if err != nil {
		return nil, err
	}

	ev, err := n.HandleDelivery(ctx, raw)
	if err != nil {
		return nil, err
	}

	if a.store != nil {
		if recErr := a.store.RecordDelivery(ctx, eventType, raw); recErr != nil {
			a.logger.WarnContext(ctx, "record delivery failed",
				"event_type", eventType, "error", recErr)
		}
	}
	return ev, nil
}

// ListSamples returns representative events for eventType: recent
// deliveries when any were recorded, otherwise the catalog example.
func (a *Adapter) ListSamples(ctx context.Context, eventType string) ([]*webhook.Event, error) {
	n, err := a.Normalizer(eventType)
	if err != nil {
		return nil, err
	}

	example, err := a.catalog.ExampleFor(eventType)
	if err != nil {
		return nil, err
	}

	var recent webhook.RecentSource
	if a.store != nil {
		recent = a.store
	}
	return n.ListSamples(ctx, recent, example), nil
}

// Handler returns the inbound HTTP handler. Accepted events are passed to
// sink. Deliveries are signature-checked when a webhook secret is set.
func (a *Adapter) Handler(sink api.Sink) http.Handler {
	cfg := api.Config{
		Catalog:     a.catalog,
		Sink:        sink,
		Strict:      a.config.StrictPayloads,
		SampleLimit: a.config.SampleLimit,
		Metrics:     a.metrics,
	}
	if a.store != nil {
		cfg.Recent = a.store
	}
	if a.config.WebhookSecret != "" {
		cfg.Verifier = signature.NewVerifier(a.config.WebhookSecret, a.config.SignatureTolerance)
	}
	return api.NewHandler(cfg, a.logger)
}

// Close releases the store, if any.
func (a *Adapter) Close() error {
	if a.store == nil {
		return nil
	}
	if err := a.store.Close(); err != nil && !errors.Is(err, ErrStoreClosed) {
		return fmt.Errorf("renderrelay: close store: %w", err)
	}
	return nil
}
