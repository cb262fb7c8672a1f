package renderrelay

import "github.com/xraph/renderrelay/internal/entity"

// Entity is the base type embedded by locally tracked records such as
// subscription ledger entries.
type Entity = entity.Entity

// NewEntity returns an Entity with both timestamps set to the current UTC time.
func NewEntity() Entity {
	return entity.New()
}
