// Package extension mounts renderrelay into a host HTTP application.
//
// The extension:
//   - Builds the Adapter from a Config (typically read from YAML)
//   - Runs store migrations on Register when the store supports them
//   - Mounts the inbound delivery routes under a configurable prefix
//   - Provides a health check via store.Ping
//   - Closes the store on Stop
//
// Usage:
//
//	ext := extension.New(
//	    extension.WithStore(postgres.New(db)),
//	    extension.WithPrefix("/renderbase"),
//	    extension.WithSink(enqueue),
//	)
//	if err := ext.Register(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	router := chi.NewRouter()
//	ext.Mount(router)
package extension
