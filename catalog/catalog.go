// Package catalog registers the event types the document service delivers,
// with their data schemas, example payloads and output field labels.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrEventTypeNotFound is returned when a name is not registered.
	ErrEventTypeNotFound = errors.New("catalog: event type not found")

	// ErrInvalidDefinition is returned by Register for unusable definitions.
	ErrInvalidDefinition = errors.New("catalog: invalid definition")
)

// Catalog is an in-memory registry of webhook definitions, safe for
// concurrent use.
type Catalog struct {
	mu        sync.RWMutex
	defs      map[string]WebhookDefinition
	validator *Validator
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		defs:      make(map[string]WebhookDefinition),
		validator: NewValidator(),
	}
}

// NewDefault creates a catalog holding the built-in event types.
func NewDefault() *Catalog {
	c := New()
	if err := c.Register(BatchCompleted()); err != nil {
		panic(fmt.Sprintf("catalog: builtin %s: %v", EventBatchCompleted, err))
	}
	return c
}

// Register adds or replaces a definition. The schema, when set, must compile
// and the example, when set, must be a JSON object.
func (c *Catalog) Register(def WebhookDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if len(def.Schema) > 0 {
		if _, err := c.validator.compile(def.Schema); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, def.Name, err)
		}
	}
	if len(def.Example) > 0 {
		var obj map[string]any
		if err := json.Unmarshal(def.Example, &obj); err != nil || obj == nil {
			return fmt.Errorf("%w: %s: example must be a JSON object", ErrInvalidDefinition, def.Name)
		}
	}

	c.mu.Lock()
	c.defs[def.Name] = def
	c.mu.Unlock()
	return nil
}

// Get returns the definition registered under name.
func (c *Catalog) Get(name string) (WebhookDefinition, error) {
	c.mu.RLock()
	def, ok := c.defs[name]
	c.mu.RUnlock()
	if !ok {
		return WebhookDefinition{}, fmt.Errorf("%w: %q", ErrEventTypeNotFound, name)
	}
	return def, nil
}

// Has reports whether name is registered.
func (c *Catalog) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.defs[name]
	return ok
}

// List returns all definitions sorted by name.
func (c *Catalog) List() []WebhookDefinition {
	c.mu.RLock()
	out := make([]WebhookDefinition, 0, len(c.defs))
	for _, def := range c.defs {
		out = append(out, def)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ValidateData checks data against the schema registered for name. Types
// without a schema accept any data.
func (c *Catalog) ValidateData(name string, data any) error {
	def, err := c.Get(name)
	if err != nil {
		return err
	}
	if len(def.Schema) == 0 {
		return nil
	}
	return c.validator.Validate(def.Schema, data)
}

// ExampleFor returns a fresh decoded copy of the example payload for name,
// or nil when none is registered.
func (c *Catalog) ExampleFor(name string) (map[string]any, error) {
	def, err := c.Get(name)
	if err != nil {
		return nil, err
	}
	if len(def.Example) == 0 {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(def.Example, &out); err != nil {
		return nil, fmt.Errorf("catalog: decode example for %s: %w", name, err)
	}
	return out, nil
}
