package webhook_test

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/xraph/renderrelay/catalog"
	"github.com/xraph/renderrelay/webhook"
)

type fakeRecent struct {
	raws [][]byte
	err  error
}

func (f *fakeRecent) Recent(_ context.Context, _ string, limit int) ([][]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.raws) > limit {
		return f.raws[len(f.raws)-limit:], nil
	}
	return f.raws, nil
}

func fallbackSample(t *testing.T) map[string]any {
	t.Helper()
	sample, err := catalog.NewDefault().ExampleFor(catalog.EventBatchCompleted)
	if err != nil {
		t.Fatal(err)
	}
	return sample
}

func TestListSamplesFallbackMatchesLiveShape(t *testing.T) {
	n := webhook.NewNormalizer(catalog.EventBatchCompleted)
	sample := fallbackSample(t)

	samples := n.ListSamples(ctx(), nil, sample)
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(samples))
	}

	raw, err := json.Marshal(sample)
	if err != nil {
		t.Fatal(err)
	}
	live, err := n.HandleDelivery(ctx(), raw)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(samples[0].Fields, live.Fields) {
		t.Fatalf("sample and live shapes differ:\n sample=%v\n live=%v", samples[0].Fields, live.Fields)
	}
	if samples[0].Fields["data__downloadUrl"] != "https://api.renderbase.dev/v1/batches/batch_abc123/download" {
		t.Errorf("unexpected sample download url %v", samples[0].Fields["data__downloadUrl"])
	}
}

func TestListSamplesPrefersRecentInOrder(t *testing.T) {
	n := webhook.NewNormalizer("batch.completed", webhook.WithSampleLimit(2))
	recent := &fakeRecent{raws: [][]byte{
		[]byte(`{"id":"evt_old","type":"batch.completed","timestamp":"1"}`),
		[]byte(`{"id":"evt_mid","type":"batch.completed","timestamp":"2"}`),
		[]byte(`{"id":"evt_new","type":"batch.completed","timestamp":"3"}`),
	}}

	samples := n.ListSamples(ctx(), recent, fallbackSample(t))
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[0].ID != "evt_mid" || samples[1].ID != "evt_new" {
		t.Fatalf("unexpected order %s, %s", samples[0].ID, samples[1].ID)
	}
}

func TestListSamplesSkipsUnusableCachedDeliveries(t *testing.T) {
	n := webhook.NewNormalizer("batch.completed")
	recent := &fakeRecent{raws: [][]byte{
		[]byte(`garbage`),
		[]byte(`{"id":"evt_1","type":"batch.completed","timestamp":"t"}`),
	}}

	samples := n.ListSamples(ctx(), recent, nil)
	if len(samples) != 1 || samples[0].ID != "evt_1" {
		t.Fatalf("unexpected samples %+v", samples)
	}
}

func TestListSamplesDegrades(t *testing.T) {
	n := webhook.NewNormalizer("batch.completed")

	samples := n.ListSamples(ctx(), &fakeRecent{err: errors.New("cache down")}, fallbackSample(t))
	if len(samples) != 1 || samples[0].ID != "evt_sample_123" {
		t.Fatalf("expected fallback after source failure, got %+v", samples)
	}

	samples = n.ListSamples(ctx(), &fakeRecent{raws: [][]byte{[]byte(`[]`)}}, map[string]any{"type": "other"})
	if samples == nil || len(samples) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", samples)
	}

	if samples := n.ListSamples(ctx(), nil, nil); len(samples) != 0 {
		t.Fatalf("expected empty result, got %v", samples)
	}
}
