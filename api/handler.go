// Package api provides the inbound HTTP receiver for document service
// webhooks.
//
// Routes:
//
//	POST /hooks/{eventType}          receive one delivery
//	GET  /hooks/{eventType}/samples  recent deliveries, or the catalog example
//	GET  /event-types                registered event types
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/xraph/renderrelay/catalog"
	"github.com/xraph/renderrelay/observability"
	"github.com/xraph/renderrelay/signature"
	"github.com/xraph/renderrelay/webhook"
)

// MaxBodyBytes caps the size of an inbound delivery.
const MaxBodyBytes = 1 << 20

// Sink receives every accepted delivery. A returned error is reported to the
// sender as 502 so it may redeliver.
type Sink func(ctx context.Context, ev *webhook.Event) error

// Config wires the handler's collaborators. Only Catalog is required.
type Config struct {
	Catalog *catalog.Catalog

	// Recent caches raw deliveries for sample listing.
	Recent webhook.RecentStore

	// Verifier checks delivery signatures when set.
	Verifier *signature.Verifier

	// Sink receives accepted events.
	Sink Sink

	// Strict validates delivery data against the catalog schema.
	Strict bool

	// SampleLimit bounds the samples endpoint.
	SampleLimit int

	Metrics *observability.Metrics
}

// Handler is the root HTTP handler for inbound deliveries.
type Handler struct {
	config Config
	logger *slog.Logger
	router chi.Router
}

// NewHandler creates a new receiver.
func NewHandler(cfg Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.NewDefault()
	}

	h := &Handler{
		config: cfg,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(h.panicRecovery)
	r.Use(h.logging)
	h.registerRoutes(r)
	h.router = r
	return h
}

func (h *Handler) registerRoutes(r chi.Router) {
	r.Route("/hooks/{eventType}", func(r chi.Router) {
		r.Post("/", h.receive)
		r.Get("/samples", h.listSamples)
	})
	r.Get("/event-types", h.listEventTypes)
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) normalizer(eventType string) *webhook.Normalizer {
	opts := []webhook.Option{
		webhook.WithCatalog(h.config.Catalog),
		webhook.WithDataSchema(h.config.Strict),
		webhook.WithLogger(h.logger),
		webhook.WithMetrics(h.config.Metrics),
	}
	if h.config.SampleLimit > 0 {
		opts = append(opts, webhook.WithSampleLimit(h.config.SampleLimit))
	}
	return webhook.NewNormalizer(eventType, opts...)
}

func (h *Handler) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		h.logger.Info("api request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"request_id", chimw.GetReqID(r.Context()),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (h *Handler) panicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("panic recovered",
					"error", rec,
					"stack", string(debug.Stack()),
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// JSON helpers.

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best effort
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// queryInt returns a query parameter as int or a default value.
func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}
