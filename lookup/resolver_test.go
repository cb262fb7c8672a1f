package lookup_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/xraph/renderrelay/gateway"
	"github.com/xraph/renderrelay/lookup"
	"github.com/xraph/renderrelay/observability"
)

func ctx() context.Context { return context.Background() }

func newResolver(t *testing.T, h http.HandlerFunc) (*lookup.Resolver, *observability.Metrics) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	client, err := gateway.New(gateway.Config{BaseURL: srv.URL, APIKey: "rb_test"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	m := observability.NewMetrics(prometheus.NewRegistry())
	return lookup.NewResolver(client, lookup.Config{}, m, nil), m
}

func respond(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

func TestTeamsPersonalSuffix(t *testing.T) {
	r, _ := newResolver(t, func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/teams" {
			t.Errorf("path = %q", req.URL.Path)
		}
		respond(`[
			{"id":"t1","name":"Acme","slug":"acme","isPersonal":true,"role":"owner"},
			{"id":"t2","name":"Globex","slug":"globex","isPersonal":false,"role":"member"}
		]`)(w, req)
	})

	opts, err := r.Teams(ctx())
	if err != nil {
		t.Fatal(err)
	}
	if len(opts) != 2 {
		t.Fatalf("expected 2 teams, got %d", len(opts))
	}
	if opts[0].Name != "Acme (Personal)" {
		t.Errorf("personal team name = %q", opts[0].Name)
	}
	if !opts[0].IsPersonal || opts[0].Slug != "acme" || opts[0].Role != "owner" {
		t.Errorf("unexpected personal team option %+v", opts[0])
	}
	if opts[1].Name != "Globex" {
		t.Errorf("team name = %q", opts[1].Name)
	}
}

func TestTeamsEnvelopeAndEmpty(t *testing.T) {
	r, _ := newResolver(t, respond(`{"data":[{"id":"t1","name":"Acme"}]}`))
	opts, err := r.Teams(ctx())
	if err != nil {
		t.Fatal(err)
	}
	if len(opts) != 1 || opts[0].Name != "Acme" {
		t.Fatalf("unexpected options %+v", opts)
	}

	r, _ = newResolver(t, respond(`{"data":[]}`))
	opts, err = r.Teams(ctx())
	if err != nil {
		t.Fatal(err)
	}
	if opts == nil || len(opts) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", opts)
	}
}

func TestTeamsTransportErrorPropagates(t *testing.T) {
	r, _ := newResolver(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"invalid api key"}`)
	})

	_, err := r.Teams(ctx())
	var ge *gateway.Error
	if !errors.As(err, &ge) || ge.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 gateway error, got %v", err)
	}
}

func TestTemplatesQueryAndDefaults(t *testing.T) {
	var query string
	r, _ := newResolver(t, func(w http.ResponseWriter, req *http.Request) {
		query = req.URL.RawQuery
		respond(`{"data":[{"id":"tp1","name":"Invoice","format":"pdf","updatedAt":"2025-01-01T00:00:00Z"}]}`)(w, req)
	})

	opts, err := r.Templates(ctx(), "")
	if err != nil {
		t.Fatal(err)
	}
	if query != "limit=100" {
		t.Errorf("query = %q", query)
	}
	if len(opts) != 1 {
		t.Fatalf("expected 1 option, got %d", len(opts))
	}
	if opts[0].Description != "" || opts[0].Format != lookup.FormatPDF {
		t.Errorf("unexpected option %+v", opts[0])
	}
}

func TestTemplatesExcelNeverReturnsPDF(t *testing.T) {
	var format string
	r, _ := newResolver(t, func(w http.ResponseWriter, req *http.Request) {
		format = req.URL.Query().Get("format")
		// The remote filter is not trusted.
		respond(`{"data":[
			{"id":"x1","name":"Report","format":"excel"},
			{"id":"p1","name":"Invoice","format":"pdf"}
		]}`)(w, req)
	})

	for _, call := range []func() ([]lookup.Option, error){
		func() ([]lookup.Option, error) { return r.Templates(ctx(), lookup.FormatExcel) },
		func() ([]lookup.Option, error) { return r.TemplatesByFormat(ctx(), lookup.FormatExcel) },
	} {
		opts, err := call()
		if err != nil {
			t.Fatal(err)
		}
		if format != "excel" {
			t.Errorf("format query = %q", format)
		}
		if len(opts) != 1 || opts[0].ID != "x1" {
			t.Fatalf("expected only the excel template, got %+v", opts)
		}
	}
}

func TestTemplatesByFormatOmitsFormat(t *testing.T) {
	r, _ := newResolver(t, respond(`{"data":[{"id":"p1","name":"Invoice","format":"pdf","description":"Monthly"}]}`))

	opts, err := r.TemplatesByFormat(ctx(), lookup.FormatPDF)
	if err != nil {
		t.Fatal(err)
	}
	if opts[0].Format != "" {
		t.Errorf("expected no format attribute, got %q", opts[0].Format)
	}
	if opts[0].Description != "Monthly" {
		t.Errorf("description = %q", opts[0].Description)
	}
}

func TestTemplatesInvalidFormat(t *testing.T) {
	var calls atomic.Int32
	r, _ := newResolver(t, func(w http.ResponseWriter, req *http.Request) {
		calls.Add(1)
		respond(`[]`)(w, req)
	})

	if _, err := r.TemplatesByFormat(ctx(), ""); !errors.Is(err, lookup.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	if _, err := r.Templates(ctx(), "docx"); !errors.Is(err, lookup.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no remote calls, got %d", calls.Load())
	}
}

func TestTemplateSchema(t *testing.T) {
	var path string
	r, _ := newResolver(t, func(w http.ResponseWriter, req *http.Request) {
		path = req.URL.EscapedPath()
		respond(`{"fields":[
			{"key":"customerName","label":"Customer Name","type":"string","required":true,"helpText":"Full name"},
			{"key":"amount","label":"Amount","type":"number"},
			{"key":"logo","type":"hologram"}
		]}`)(w, req)
	})

	fields := r.TemplateSchema(ctx(), "invoice/v2")
	if path != "/templates/invoice%2Fv2/zapier-fields" {
		t.Errorf("path = %q", path)
	}
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}
	if !fields[0].Required || fields[0].HelpText != "Full name" {
		t.Errorf("unexpected first field %+v", fields[0])
	}
	if fields[2].Type != lookup.FieldString || fields[2].Label != "logo" {
		t.Errorf("unknown type should degrade to string, got %+v", fields[2])
	}
}

func TestTemplateSchemaNeverFails(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) }},
		{"server error", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"garbage body", respond(`<html>`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, m := newResolver(t, tt.handler)

			fields := r.TemplateSchema(ctx(), "tpl_1")
			if fields == nil || len(fields) != 0 {
				t.Fatalf("expected empty list, got %#v", fields)
			}
			opts, err := r.Resolve(ctx(), lookup.KindTemplateSchema, lookup.Filters{TemplateID: "tpl_1"})
			if err != nil || len(opts) != 0 {
				t.Fatalf("expected empty options and no error, got %v %v", opts, err)
			}
			if got := testutil.ToFloat64(m.SchemaFallbacks); got != 2 {
				t.Errorf("schema fallbacks = %v, want 2", got)
			}
		})
	}
}

func TestTemplateSchemaEmptyIDSkipsRemote(t *testing.T) {
	var calls atomic.Int32
	r, _ := newResolver(t, func(w http.ResponseWriter, req *http.Request) {
		calls.Add(1)
		respond(`{"fields":[]}`)(w, req)
	})

	if fields := r.TemplateSchema(ctx(), ""); len(fields) != 0 {
		t.Fatalf("expected empty, got %v", fields)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no remote call, got %d", calls.Load())
	}
}

func TestResolveTemplateSchemaProjection(t *testing.T) {
	r, _ := newResolver(t, respond(`{"fields":[{"key":"dueDate","label":"Due Date","type":"datetime"}]}`))

	opts, err := r.Resolve(ctx(), lookup.KindTemplateSchema, lookup.Filters{TemplateID: "tpl_1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(opts) != 1 || opts[0].ID != "dueDate" || opts[0].Name != "Due Date" {
		t.Fatalf("unexpected projection %+v", opts)
	}
	if opts[0].Field == nil || opts[0].Field.Type != lookup.FieldDatetime {
		t.Fatalf("expected field descriptor, got %+v", opts[0].Field)
	}
}

func TestResolveUnknownKind(t *testing.T) {
	r, _ := newResolver(t, respond(`[]`))
	if _, err := r.Resolve(ctx(), "workspace", lookup.Filters{}); !errors.Is(err, lookup.ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]lookup.Format{"pdf": lookup.FormatPDF, " Excel ": lookup.FormatExcel} {
		got, err := lookup.ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := lookup.ParseFormat("csv"); !errors.Is(err, lookup.ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}
