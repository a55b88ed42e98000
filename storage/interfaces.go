package storage

import (
	"context"

	"github.com/poiesic/notedb/core"
)

// Engine provides the generic CRUD operations over the tables of an open store.
// Table names must be declared in the schema; unknown names fail with
// ErrUnknownTable. Every write returns only after its transaction committed.
// Implementations must be thread-safe. No operation is retried.
type Engine interface {
	// Add inserts a new entity keyed by its id.
	// Returns ErrRequestFailed wrapping ErrDuplicateKey if the id exists;
	// the stored record is left untouched in that case.
	Add(ctx context.Context, table string, entity core.Entity) error

	// Update inserts or replaces the entity keyed by its id.
	// The stored record is replaced entirely.
	Update(ctx context.Context, table string, entity core.Entity) error

	// Remove deletes the record with the given primary key.
	// Removing an absent key succeeds.
	Remove(ctx context.Context, table string, id core.ID) error

	// Get scans the table in primary-key order and returns every entity whose
	// stored record matches all filters. Empty filters match every record.
	Get(ctx context.Context, table string, filters Filters) ([]core.Entity, error)

	// UpdateMultiple applies partial to every entity matching filters and
	// persists them in a single transaction. Returns the updated entities.
	UpdateMultiple(ctx context.Context, table string, filters Filters, partial core.Record) ([]core.Entity, error)

	// GetByIndex returns the entities whose indexed field equals value,
	// in primary-key order.
	GetByIndex(ctx context.Context, table, index string, value any) ([]core.Entity, error)

	// Count returns the number of records in the table.
	Count(ctx context.Context, table string) (int, error)

	// NextID allocates an unused primary key for the table.
	NextID(ctx context.Context, table string) (core.ID, error)
}

// CatalogEntry is the persisted description of a created table.
type CatalogEntry struct {
	Table      string
	ObjectType string
	Indexes    []string
}
