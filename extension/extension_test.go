package extension_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/xraph/renderrelay"
	"github.com/xraph/renderrelay/extension"
	"github.com/xraph/renderrelay/store/memory"
	"github.com/xraph/renderrelay/webhook"
)

func ctx() context.Context { return context.Background() }

const delivery = `{"id":"evt_1","type":"batch.completed","timestamp":"2025-01-15T10:30:00Z",` +
	`"data":{"batchId":"batch_1","status":"completed"}}`

// migratingStore records Migrate calls.
type migratingStore struct {
	*memory.Store
	migrated int
}

func (m *migratingStore) Migrate(context.Context) error {
	m.migrated++
	return nil
}

// brokenStore fails every migration.
type brokenStore struct {
	*memory.Store
}

var errMigrate = errors.New("schema locked")

func (brokenStore) Migrate(context.Context) error { return errMigrate }

func TestRegisterClosesAdapterOnMigrateFailure(t *testing.T) {
	s := brokenStore{Store: memory.New()}
	ext := extension.New(
		extension.WithStore(s),
		extension.WithAdapterOption(renderrelay.WithAPIKey("rb_test")),
	)

	err := ext.Register(ctx())
	if !errors.Is(err, errMigrate) {
		t.Fatalf("expected migrate error, got %v", err)
	}
	if err := s.Ping(ctx()); !errors.Is(err, renderrelay.ErrStoreClosed) {
		t.Fatalf("store left open after failed register: %v", err)
	}
	if _, err := ext.Handler(); !errors.Is(err, extension.ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}

func TestRegisterMigratesAndMounts(t *testing.T) {
	s := &migratingStore{Store: memory.New()}
	var got []*webhook.Event

	ext := extension.New(
		extension.WithStore(s),
		extension.WithPrefix("/renderbase/"),
		extension.WithAdapterOption(renderrelay.WithAPIKey("rb_test")),
		extension.WithSink(func(_ context.Context, ev *webhook.Event) error {
			got = append(got, ev)
			return nil
		}),
	)

	if err := ext.Register(ctx()); err != nil {
		t.Fatal(err)
	}
	if s.migrated != 1 {
		t.Fatalf("expected 1 migration, got %d", s.migrated)
	}
	if ext.Prefix() != "/renderbase" {
		t.Fatalf("Prefix = %q", ext.Prefix())
	}

	r := chi.NewRouter()
	if err := ext.Mount(r); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/renderbase/hooks/batch.completed", strings.NewReader(delivery))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	if len(got) != 1 || got[0].ID != "evt_1" {
		t.Fatalf("sink received %+v", got)
	}

	if err := ext.Health(ctx()); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if err := ext.Stop(ctx()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := ext.Health(ctx()); !errors.Is(err, renderrelay.ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed after Stop, got %v", err)
	}
}

func TestDisableMigrations(t *testing.T) {
	s := &migratingStore{Store: memory.New()}
	ext := extension.New(
		extension.WithStore(s),
		extension.WithDisableMigrations(),
		extension.WithAdapterOption(renderrelay.WithAPIKey("rb_test")),
	)
	if err := ext.Register(ctx()); err != nil {
		t.Fatal(err)
	}
	if s.migrated != 0 {
		t.Fatalf("expected no migration, got %d", s.migrated)
	}
}

func TestHandlerBeforeRegister(t *testing.T) {
	ext := extension.New()
	if _, err := ext.Handler(); !errors.Is(err, extension.ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
	if err := ext.Mount(chi.NewRouter()); !errors.Is(err, extension.ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}

func TestHandlerStripsPrefix(t *testing.T) {
	cfg := extension.DefaultConfig()
	cfg.APIKey = "rb_test"

	ext := extension.New(extension.WithConfig(cfg))
	if err := ext.Register(ctx()); err != nil {
		t.Fatal(err)
	}
	h, err := ext.Handler()
	if err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/renderbase/event-types", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "batch.completed") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestRegisterWithoutKey(t *testing.T) {
	ext := extension.New()
	if err := ext.Register(ctx()); !errors.Is(err, renderrelay.ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}
