package renderrelay

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/xraph/renderrelay/catalog"
	"github.com/xraph/renderrelay/observability"
	"github.com/xraph/renderrelay/store"
)

// Option configures an Adapter.
type Option func(*Adapter) error

// WithConfig replaces the whole configuration, e.g. one read by LoadConfig.
func WithConfig(cfg Config) Option {
	return func(a *Adapter) error {
		a.config = cfg
		return nil
	}
}

// WithBaseURL sets the document service API root.
func WithBaseURL(u string) Option {
	return func(a *Adapter) error {
		a.config.BaseURL = u
		return nil
	}
}

// WithAPIKey sets the bearer token for outbound requests.
func WithAPIKey(key string) Option {
	return func(a *Adapter) error {
		a.config.APIKey = key
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for outbound requests. A client
// that authenticates on its own makes the API key optional.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) error {
		a.httpClient = c
		return nil
	}
}

// WithRequestTimeout sets the timeout per outbound request.
func WithRequestTimeout(d time.Duration) Option {
	return func(a *Adapter) error {
		a.config.RequestTimeout = d
		return nil
	}
}

// WithRateLimit caps outbound requests per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(a *Adapter) error {
		a.config.RateLimit = rps
		a.config.RateBurst = burst
		return nil
	}
}

// WithWebhookSecret enables signature verification of inbound deliveries.
func WithWebhookSecret(secret string) Option {
	return func(a *Adapter) error {
		a.config.WebhookSecret = secret
		return nil
	}
}

// WithStrictPayloads validates delivery data against the event type schema.
func WithStrictPayloads(strict bool) Option {
	return func(a *Adapter) error {
		a.config.StrictPayloads = strict
		return nil
	}
}

// WithStore sets the subscription ledger and recent-delivery cache.
func WithStore(s store.Store) Option {
	return func(a *Adapter) error {
		a.store = s
		return nil
	}
}

// WithCatalog replaces the built-in event type catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(a *Adapter) error {
		a.catalog = c
		return nil
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) error {
		a.logger = logger
		return nil
	}
}

// WithMetrics sets the prometheus instruments.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Adapter) error {
		a.metrics = m
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer for outbound requests.
func WithTracer(t *observability.Tracer) Option {
	return func(a *Adapter) error {
		a.tracer = t
		return nil
	}
}
