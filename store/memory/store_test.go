package memory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/xraph/renderrelay"
	"github.com/xraph/renderrelay/id"
	"github.com/xraph/renderrelay/internal/entity"
	relaystore "github.com/xraph/renderrelay/store"
	"github.com/xraph/renderrelay/store/memory"
	"github.com/xraph/renderrelay/subscription"
)

func ctx() context.Context { return context.Background() }

func newSub(eventType, target, remoteID string) *subscription.Subscription {
	return &subscription.Subscription{
		Entity:    entity.New(),
		ID:        id.NewSubscriptionID(),
		EventType: eventType,
		TargetURL: target,
		RemoteID:  remoteID,
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

func TestPingAndClose(t *testing.T) {
	s := memory.New()
	if err := s.Ping(ctx()); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(ctx()); !errors.Is(err, renderrelay.ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed, got %v", err)
	}
	if err := s.RecordDelivery(ctx(), "batch.completed", []byte(`{}`)); !errors.Is(err, renderrelay.ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed, got %v", err)
	}
}

// ──────────────────────────────────────────────────
// Subscriptions
// ──────────────────────────────────────────────────

func TestSaveAndGetSubscription(t *testing.T) {
	s := memory.New()
	sub := newSub("batch.completed", "https://hooks.example.com/a", "wh_1")

	if err := s.SaveSubscription(ctx(), sub); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetSubscription(ctx(), "batch.completed", "https://hooks.example.com/a")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID.String() != sub.ID.String() || got.RemoteID != "wh_1" {
		t.Fatalf("unexpected record %+v", got)
	}

	got, err = s.GetSubscriptionByRemoteID(ctx(), "wh_1")
	if err != nil {
		t.Fatal(err)
	}
	if got.TargetURL != "https://hooks.example.com/a" {
		t.Fatalf("unexpected target %q", got.TargetURL)
	}
}

func TestSaveSubscriptionUpsertsByPair(t *testing.T) {
	s := memory.New()
	first := newSub("batch.completed", "https://hooks.example.com/a", "wh_1")
	if err := s.SaveSubscription(ctx(), first); err != nil {
		t.Fatal(err)
	}

	second := newSub("batch.completed", "https://hooks.example.com/a", "wh_2")
	if err := s.SaveSubscription(ctx(), second); err != nil {
		t.Fatal(err)
	}

	if second.ID.String() != first.ID.String() {
		t.Fatalf("upsert should keep the original ID, got %s want %s", second.ID, first.ID)
	}

	list, err := s.ListSubscriptions(ctx(), subscription.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 record, got %d", len(list))
	}
	if list[0].RemoteID != "wh_2" {
		t.Fatalf("expected remote id to be replaced, got %q", list[0].RemoteID)
	}
	if _, err := s.GetSubscriptionByRemoteID(ctx(), "wh_1"); !errors.Is(err, renderrelay.ErrSubscriptionNotFound) {
		t.Fatalf("stale remote index should be gone, got %v", err)
	}
}

func TestDeleteSubscriptionIsIdempotent(t *testing.T) {
	s := memory.New()
	_ = s.SaveSubscription(ctx(), newSub("batch.completed", "https://hooks.example.com/a", "wh_1"))

	for range 2 {
		if err := s.DeleteSubscription(ctx(), "wh_1"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.GetSubscription(ctx(), "batch.completed", "https://hooks.example.com/a"); !errors.Is(err, renderrelay.ErrSubscriptionNotFound) {
		t.Fatalf("expected ErrSubscriptionNotFound, got %v", err)
	}
}

func TestListSubscriptionsFilterAndPaginate(t *testing.T) {
	s := memory.New()
	base := time.Now().UTC()
	for i := range 5 {
		eventType := "batch.completed"
		if i%2 == 1 {
			eventType = "document.generated"
		}
		sub := newSub(eventType, fmt.Sprintf("https://hooks.example.com/%d", i), fmt.Sprintf("wh_%d", i))
		sub.CreatedAt = base.Add(time.Duration(i) * time.Second)
		_ = s.SaveSubscription(ctx(), sub)
	}

	batch, _ := s.ListSubscriptions(ctx(), subscription.ListOpts{EventType: "batch.completed"})
	if len(batch) != 3 {
		t.Fatalf("expected 3 batch.completed records, got %d", len(batch))
	}

	page, _ := s.ListSubscriptions(ctx(), subscription.ListOpts{Offset: 1, Limit: 2})
	if len(page) != 2 || page[0].RemoteID != "wh_1" || page[1].RemoteID != "wh_2" {
		t.Fatalf("unexpected page %v", page)
	}
}

// ──────────────────────────────────────────────────
// Recent deliveries
// ──────────────────────────────────────────────────

func TestRecentDeliveriesRing(t *testing.T) {
	s := memory.New(memory.WithRecentCapacity(3))

	for i := range 5 {
		if err := s.RecordDelivery(ctx(), "batch.completed", []byte(fmt.Sprintf(`{"n":%d}`, i))); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.Recent(ctx(), "batch.completed", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || string(all[0]) != `{"n":2}` || string(all[2]) != `{"n":4}` {
		t.Fatalf("unexpected ring contents %q", all)
	}

	last, _ := s.Recent(ctx(), "batch.completed", 1)
	if len(last) != 1 || string(last[0]) != `{"n":4}` {
		t.Fatalf("unexpected newest %q", last)
	}

	none, _ := s.Recent(ctx(), "document.generated", 3)
	if len(none) != 0 {
		t.Fatalf("expected nothing for other type, got %q", none)
	}
}

func TestRecentDefaultCapacity(t *testing.T) {
	s := memory.New()
	total := relaystore.DefaultRecentCapacity + 5

	for i := range total {
		if err := s.RecordDelivery(ctx(), "batch.completed", []byte(fmt.Sprintf(`{"n":%d}`, i))); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.Recent(ctx(), "batch.completed", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != relaystore.DefaultRecentCapacity {
		t.Fatalf("kept %d deliveries, want %d", len(all), relaystore.DefaultRecentCapacity)
	}
	if want := fmt.Sprintf(`{"n":%d}`, total-1); string(all[len(all)-1]) != want {
		t.Fatalf("newest = %s, want %s", all[len(all)-1], want)
	}
}

func TestRecordDeliveryCopiesInput(t *testing.T) {
	s := memory.New()
	buf := []byte(`{"id":"a"}`)
	_ = s.RecordDelivery(ctx(), "batch.completed", buf)
	buf[7] = 'z'

	got, _ := s.Recent(ctx(), "batch.completed", 1)
	if string(got[0]) != `{"id":"a"}` {
		t.Fatalf("stored delivery was aliased: %q", got[0])
	}
}
