package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/xraph/renderrelay/gateway"
	"github.com/xraph/renderrelay/observability"
)

func ctx() context.Context { return context.Background() }

func newClient(t *testing.T, srv *httptest.Server, mutate ...func(*gateway.Config)) *gateway.Client {
	t.Helper()
	cfg := gateway.Config{BaseURL: srv.URL + "/v1", APIKey: "rb_test", Timeout: 5 * time.Second}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := gateway.New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNewRequiresBaseURL(t *testing.T) {
	for _, base := range []string{"", "not a url", "/relative"} {
		if _, err := gateway.New(gateway.Config{BaseURL: base}, nil); !errors.Is(err, gateway.ErrNoBaseURL) {
			t.Errorf("BaseURL %q: expected ErrNoBaseURL, got %v", base, err)
		}
	}
}

func TestDoSendsHeadersAndBody(t *testing.T) {
	var got *http.Request
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"wh_1"}`)
	}))
	defer srv.Close()

	c := newClient(t, srv)

	var out struct {
		ID string `json:"id"`
	}
	err := c.Do(ctx(), gateway.Request{
		Op:     "webhooks.create",
		Method: http.MethodPost,
		Path:   "/webhooks",
		Query:  url.Values{"limit": {"100"}},
		Body:   map[string]string{"eventType": "batch.completed"},
		Header: http.Header{"Idempotency-Key": {"idem_1"}},
	}, &out)
	if err != nil {
		t.Fatal(err)
	}

	if out.ID != "wh_1" {
		t.Errorf("decoded id = %q", out.ID)
	}
	if got.URL.Path != "/v1/webhooks" {
		t.Errorf("path = %q", got.URL.Path)
	}
	if got.URL.Query().Get("limit") != "100" {
		t.Errorf("query = %q", got.URL.RawQuery)
	}
	if got.Header.Get("Authorization") != "Bearer rb_test" {
		t.Errorf("authorization = %q", got.Header.Get("Authorization"))
	}
	if got.Header.Get("Content-Type") != "application/json" {
		t.Errorf("content-type = %q", got.Header.Get("Content-Type"))
	}
	if got.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if got.Header.Get("Idempotency-Key") != "idem_1" {
		t.Errorf("idempotency key = %q", got.Header.Get("Idempotency-Key"))
	}
	if body["eventType"] != "batch.completed" {
		t.Errorf("body = %v", body)
	}
}

func TestDoErrorStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"message field", 400, `{"message":"templateId is required"}`, "templateId is required"},
		{"error string", 401, `{"error":"invalid api key"}`, "invalid api key"},
		{"nested error", 403, `{"error":{"message":"forbidden team"}}`, "forbidden team"},
		{"plain body", 500, `upstream exploded`, "upstream exploded"},
		{"empty body", 503, ``, "Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			err := newClient(t, srv).Do(ctx(), gateway.Request{Op: "x", Method: http.MethodGet, Path: "/x"}, nil)

			var ge *gateway.Error
			if !errors.As(err, &ge) {
				t.Fatalf("expected *gateway.Error, got %T %v", err, err)
			}
			if ge.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", ge.StatusCode, tt.status)
			}
			if ge.Message != tt.message {
				t.Errorf("message = %q, want %q", ge.Message, tt.message)
			}
		})
	}
}

func TestDoErrorBodyTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, strings.Repeat("x", 4096))
	}))
	defer srv.Close()

	err := newClient(t, srv).Do(ctx(), gateway.Request{Method: http.MethodGet, Path: "/x"}, nil)
	var ge *gateway.Error
	if !errors.As(err, &ge) {
		t.Fatalf("expected *gateway.Error, got %v", err)
	}
	if len(ge.Message) != 1024 {
		t.Errorf("message length = %d, want 1024", len(ge.Message))
	}
}

func TestDoTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	c := newClient(t, srv)
	srv.Close()

	err := c.Do(ctx(), gateway.Request{Method: http.MethodGet, Path: "/teams"}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if gateway.StatusOf(err) != 0 {
		t.Errorf("status = %d, want 0", gateway.StatusOf(err))
	}
}

func TestDoDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_ = newClient(t, srv).Do(ctx(), gateway.Request{Method: http.MethodPost, Path: "/batches/generate"}, nil)
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestDoEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	var out map[string]any
	if err := newClient(t, srv).Do(ctx(), gateway.Request{Method: http.MethodDelete, Path: "/webhooks/1"}, &out); err != nil {
		t.Fatal(err)
	}
	if out != nil {
		t.Errorf("expected untouched output, got %v", out)
	}
}

func TestIsNotFound(t *testing.T) {
	for _, status := range []int{404, 410} {
		if !gateway.IsNotFound(&gateway.Error{StatusCode: status}) {
			t.Errorf("status %d should be not found", status)
		}
	}
	if gateway.IsNotFound(&gateway.Error{StatusCode: 500}) {
		t.Error("500 should not be not found")
	}
	if gateway.IsNotFound(errors.New("plain")) {
		t.Error("plain error should not be not found")
	}
}

func TestDoRecordsMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	m := observability.NewMetrics(prometheus.NewRegistry())
	c := newClient(t, srv, func(cfg *gateway.Config) {
		cfg.Metrics = m
		cfg.Tracer = observability.NewTracer()
	})

	if err := c.Do(ctx(), gateway.Request{Op: "teams.list", Method: http.MethodGet, Path: "/teams"}, nil); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("teams.list", "200")); got != 1 {
		t.Errorf("requests_total = %v, want 1", got)
	}
}
