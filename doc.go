// Package renderrelay connects an automation host to the Renderbase document
// generation service.
//
// It covers the two protocols a host needs:
//
//   - Subscription and normalization: register and tear down webhook
//     subscriptions, then turn each inbound delivery into a flat event whose
//     data fields are addressable as data__<key>.
//   - Dynamic schema resolution: list teams and templates, and fetch the
//     variable schema of a template so input forms can be built at runtime.
//
// Bulk generation is submit-then-notify: Batches().Submit returns the job as
// accepted, and completion arrives later as a batch.completed delivery.
//
// renderrelay is a library, not a service. Nothing retries on its own and
// nothing is cached except the optional recent-delivery store used for
// sample listing.
//
// Quick start:
//
//	a, err := renderrelay.New(
//	    renderrelay.WithAPIKey(os.Getenv("RENDERBASE_API_KEY")),
//	    renderrelay.WithStore(memory.New()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sub, err := a.Subscribe(ctx, catalog.EventBatchCompleted, "https://host.example.com/hooks/batch.completed")
//
//	http.Handle("/", a.Handler(func(ctx context.Context, ev *webhook.Event) error {
//	    return enqueue(ev)
//	}))
package renderrelay
