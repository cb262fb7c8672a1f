// Package lookup resolves the dynamic option lists a host form needs: teams,
// templates (optionally by format) and the variable schema of a template.
//
// Nothing is cached. Every call fetches from the document service so two
// calls may legitimately return different results.
package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/xraph/renderrelay/gateway"
	"github.com/xraph/renderrelay/observability"
)

// Config holds the remote paths and paging used by the resolver.
type Config struct {
	TeamsPath     string
	TemplatesPath string
	PageLimit     int
}

// DefaultConfig returns the paths used by the hosted document service.
func DefaultConfig() Config {
	return Config{
		TeamsPath:     "/teams",
		TemplatesPath: "/templates",
		PageLimit:     100,
	}
}

// Resolver lists teams, templates and template variable schemas.
type Resolver struct {
	client  gateway.Doer
	config  Config
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewResolver creates a resolver. Zero config fields take their defaults.
func NewResolver(client gateway.Doer, cfg Config, metrics *observability.Metrics, logger *slog.Logger) *Resolver {
	def := DefaultConfig()
	if cfg.TeamsPath == "" {
		cfg.TeamsPath = def.TeamsPath
	}
	if cfg.TemplatesPath == "" {
		cfg.TemplatesPath = def.TemplatesPath
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = def.PageLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{client: client, config: cfg, metrics: metrics, logger: logger}
}

// Resolve lists options of the given kind. KindTemplateSchema never fails.
func (r *Resolver) Resolve(ctx context.Context, kind Kind, f Filters) ([]Option, error) {
	switch kind {
	case KindTeam:
		return r.Teams(ctx)
	case KindTemplate:
		return r.Templates(ctx, f.Format)
	case KindTemplateByFormat:
		return r.TemplatesByFormat(ctx, f.Format)
	case KindTemplateSchema:
		fields := r.TemplateSchema(ctx, f.TemplateID)
		out := make([]Option, 0, len(fields))
		for i := range fields {
			field := fields[i]
			out = append(out, Option{ID: field.Key, Name: field.Label, Field: &field})
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

type remoteTeam struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	IsPersonal bool   `json:"isPersonal"`
	Role       string `json:"role"`
}

// Teams lists the teams visible to the API key. Personal teams are labelled
// with a " (Personal)" suffix.
func (r *Resolver) Teams(ctx context.Context) ([]Option, error) {
	var raw json.RawMessage
	err := r.client.Do(ctx, gateway.Request{
		Op:     "teams.list",
		Method: http.MethodGet,
		Path:   r.config.TeamsPath,
	}, &raw)
	if err != nil {
		return nil, err
	}

	var teams []remoteTeam
	if err := decodeList(raw, &teams); err != nil {
		return nil, fmt.Errorf("lookup: decode teams: %w", err)
	}

	out := make([]Option, 0, len(teams))
	for _, t := range teams {
		name := t.Name
		if t.IsPersonal {
			name += " (Personal)"
		}
		out = append(out, Option{
			ID:         t.ID,
			Name:       name,
			Slug:       t.Slug,
			IsPersonal: t.IsPersonal,
			Role:       t.Role,
		})
	}
	return out, nil
}

type remoteTemplate struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Format      Format  `json:"format"`
	Description *string `json:"description"`
	UpdatedAt   string  `json:"updatedAt"`
}

// Templates lists templates, filtered to format when it is non-empty. Records
// whose format disagrees with the filter are dropped.
func (r *Resolver) Templates(ctx context.Context, format Format) ([]Option, error) {
	if format != "" && !format.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}

	templates, err := r.fetchTemplates(ctx, format)
	if err != nil {
		return nil, err
	}

	out := make([]Option, 0, len(templates))
	for _, t := range templates {
		out = append(out, templateOption(t, true))
	}
	return out, nil
}

// TemplatesByFormat lists templates of exactly one format. The options omit
// the format attribute since it is implied by the call.
func (r *Resolver) TemplatesByFormat(ctx context.Context, format Format) ([]Option, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}

	templates, err := r.fetchTemplates(ctx, format)
	if err != nil {
		return nil, err
	}

	out := make([]Option, 0, len(templates))
	for _, t := range templates {
		out = append(out, templateOption(t, false))
	}
	return out, nil
}

func (r *Resolver) fetchTemplates(ctx context.Context, format Format) ([]remoteTemplate, error) {
	q := url.Values{"limit": {strconv.Itoa(r.config.PageLimit)}}
	if format != "" {
		q.Set("format", string(format))
	}

	var raw json.RawMessage
	err := r.client.Do(ctx, gateway.Request{
		Op:     "templates.list",
		Method: http.MethodGet,
		Path:   r.config.TemplatesPath,
		Query:  q,
	}, &raw)
	if err != nil {
		return nil, err
	}

	var templates []remoteTemplate
	if err := decodeList(raw, &templates); err != nil {
		return nil, fmt.Errorf("lookup: decode templates: %w", err)
	}
	if format == "" {
		return templates, nil
	}

	kept := templates[:0]
	for _, t := range templates {
		if t.Format != "" && t.Format != format {
			r.logger.DebugContext(ctx, "dropping template with mismatched format",
				"template_id", t.ID, "format", t.Format, "requested", format)
			continue
		}
		kept = append(kept, t)
	}
	return kept, nil
}

func templateOption(t remoteTemplate, withFormat bool) Option {
	o := Option{ID: t.ID, Name: t.Name, UpdatedAt: t.UpdatedAt}
	if t.Description != nil {
		o.Description = *t.Description
	}
	if withFormat {
		o.Format = t.Format
	}
	return o
}

type remoteField struct {
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	HelpText string    `json:"helpText"`
}

// TemplateSchema returns the variable descriptors of a template. It never
// fails: an empty id yields an empty list without a remote call, and any
// remote or decode failure is logged and yields an empty list.
func (r *Resolver) TemplateSchema(ctx context.Context, templateID string) []FieldSchema {
	if templateID == "" {
		return []FieldSchema{}
	}

	var body struct {
		Fields []remoteField `json:"fields"`
	}
	err := r.client.Do(ctx, gateway.Request{
		Op:     "templates.fields",
		Method: http.MethodGet,
		Path:   r.config.TemplatesPath + "/" + url.PathEscape(templateID) + "/zapier-fields",
	}, &body)
	if err != nil {
		r.logger.WarnContext(ctx, "template schema unavailable, returning no fields",
			"template_id", templateID, "error", err)
		r.metrics.RecordSchemaFallback()
		return []FieldSchema{}
	}

	out := make([]FieldSchema, 0, len(body.Fields))
	for _, f := range body.Fields {
		if f.Key == "" {
			continue
		}
		typ := f.Type
		if typ == "" {
			typ = FieldString
		} else if !typ.Known() {
			r.logger.WarnContext(ctx, "unknown field type, treating as string",
				"template_id", templateID, "field", f.Key, "type", f.Type)
			typ = FieldString
		}
		label := f.Label
		if label == "" {
			label = f.Key
		}
		out = append(out, FieldSchema{
			Key:      f.Key,
			Label:    label,
			Type:     typ,
			Required: f.Required,
			HelpText: f.HelpText,
		})
	}
	return out
}

// decodeList accepts either a bare JSON array or an envelope {"data": [...]}.
// A null or empty body decodes to an empty list.
func decodeList(raw json.RawMessage, out any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '[' {
		return json.Unmarshal(raw, out)
	}

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
