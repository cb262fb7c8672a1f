package renderrelay

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the hosted Renderbase API.
const DefaultBaseURL = "https://api.renderbase.dev/v1"

// Config holds the configuration for an Adapter. Fields can be set
// programmatically via Option functions or loaded from YAML with LoadConfig.
type Config struct {
	// BaseURL is the document service API root.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey authenticates outbound requests as a bearer token.
	APIKey string `json:"-" yaml:"api_key"`

	// UserAgent is sent on every outbound request.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// RequestTimeout bounds each outbound request.
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`

	// RateLimit caps outbound requests per second. 0 means unlimited.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit"`

	// RateBurst is the token bucket size. 0 derives it from RateLimit.
	RateBurst int `json:"rate_burst" yaml:"rate_burst"`

	// TemplatePageLimit is the page size requested when listing templates.
	TemplatePageLimit int `json:"template_page_limit" yaml:"template_page_limit"`

	// Remote collection paths, relative to BaseURL.
	TeamsPath     string `json:"teams_path" yaml:"teams_path"`
	TemplatesPath string `json:"templates_path" yaml:"templates_path"`
	BatchesPath   string `json:"batches_path" yaml:"batches_path"`
	WebhooksPath  string `json:"webhooks_path" yaml:"webhooks_path"`

	// WebhookSecret enables signature verification of inbound deliveries.
	WebhookSecret string `json:"-" yaml:"webhook_secret"`

	// SignatureTolerance bounds accepted clock skew on signed deliveries.
	SignatureTolerance time.Duration `json:"signature_tolerance" yaml:"signature_tolerance"`

	// StrictPayloads validates delivery data against the event type schema.
	StrictPayloads bool `json:"strict_payloads" yaml:"strict_payloads"`

	// SampleLimit bounds how many cached deliveries are listed as samples.
	SampleLimit int `json:"sample_limit" yaml:"sample_limit"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:            DefaultBaseURL,
		UserAgent:          "renderrelay/1.0",
		RequestTimeout:     30 * time.Second,
		TemplatePageLimit:  100,
		TeamsPath:          "/teams",
		TemplatesPath:      "/templates",
		BatchesPath:        "/batches",
		WebhooksPath:       "/webhooks",
		SignatureTolerance: 5 * time.Minute,
		SampleLimit:        3,
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Keys absent from the file
// keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("renderrelay: read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("renderrelay: parse config %s: %w", path, err)
	}
	return cfg, nil
}
