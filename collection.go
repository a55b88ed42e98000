// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package notedb

import (
	"context"
	"fmt"

	"github.com/poiesic/notedb/core"
	"github.com/poiesic/notedb/schema"
	"github.com/poiesic/notedb/storage"
)

// Collection is typed, synchronous CRUD over one table.
type Collection[T core.Entity] struct {
	engine storage.Engine
	table  string
}

// NewCollection binds a collection of T to a table of engine.
func NewCollection[T core.Entity](engine storage.Engine, table string) *Collection[T] {
	return &Collection[T]{engine: engine, table: table}
}

// Table returns the bound table name.
func (c *Collection[T]) Table() string {
	return c.table
}

// Get returns the entities matching filters, in primary-key order.
func (c *Collection[T]) Get(ctx context.Context, filters storage.Filters) ([]T, error) {
	entities, err := c.engine.Get(ctx, c.table, filters)
	if err != nil {
		return nil, err
	}
	return convert[T](c.table, entities)
}

// GetByID returns the entity with the given id, or false if absent.
func (c *Collection[T]) GetByID(ctx context.Context, id core.ID) (T, bool, error) {
	var zero T
	found, err := c.Get(ctx, storage.Filters{schema.PrimaryKey: id})
	if err != nil || len(found) == 0 {
		return zero, false, err
	}
	return found[0], true, nil
}

// GetByIndex returns the entities whose indexed field equals value.
func (c *Collection[T]) GetByIndex(ctx context.Context, index string, value any) ([]T, error) {
	entities, err := c.engine.GetByIndex(ctx, c.table, index, value)
	if err != nil {
		return nil, err
	}
	return convert[T](c.table, entities)
}

// Add inserts entity.
func (c *Collection[T]) Add(ctx context.Context, entity T) error {
	return c.engine.Add(ctx, c.table, entity)
}

// Update upserts entity.
func (c *Collection[T]) Update(ctx context.Context, entity T) error {
	return c.engine.Update(ctx, c.table, entity)
}

// Remove deletes entity by its id.
func (c *Collection[T]) Remove(ctx context.Context, entity T) error {
	if core.IsNil(entity) {
		return fmt.Errorf("%w: %w: entity is nil", storage.ErrRequestFailed, core.ErrInvalidEntity)
	}
	return c.engine.Remove(ctx, c.table, entity.GetID())
}

// UpdateMultiple applies partial to every entity matching filters.
func (c *Collection[T]) UpdateMultiple(ctx context.Context, filters storage.Filters, partial core.Record) ([]T, error) {
	entities, err := c.engine.UpdateMultiple(ctx, c.table, filters, partial)
	if err != nil {
		return nil, err
	}
	return convert[T](c.table, entities)
}

// Count returns the number of stored entities.
func (c *Collection[T]) Count(ctx context.Context) (int, error) {
	return c.engine.Count(ctx, c.table)
}

// NextID allocates an unused id.
func (c *Collection[T]) NextID(ctx context.Context) (core.ID, error) {
	return c.engine.NextID(ctx, c.table)
}

func convert[T core.Entity](table string, entities []core.Entity) ([]T, error) {
	out := make([]T, 0, len(entities))
	for _, e := range entities {
		t, ok := e.(T)
		if !ok {
			return nil, fmt.Errorf("%w: table %s holds %T", schema.ErrTypeMismatch, table, e)
		}
		out = append(out, t)
	}
	return out, nil
}

// getAs is the typed form of Database.Get used by the generated methods.
func getAs[T core.Entity](db *Database, table string, filters storage.Filters, onSuccess func([]T), onError ErrorFunc) {
	db.submit("get", onError, func(ctx context.Context) error {
		entities, err := db.engine.Get(ctx, table, filters)
		if err != nil {
			return err
		}
		typed, err := convert[T](table, entities)
		if err != nil {
			return err
		}
		if onSuccess != nil {
			onSuccess(typed)
		}
		return nil
	})
}

// removeAs is the typed form of Database.Remove used by the generated
// methods. The key is read on the worker, so a nil entity reaches onError.
func removeAs[T core.Entity](db *Database, table string, entity T, onSuccess func(), onError ErrorFunc) {
	db.submit("remove", onError, func(ctx context.Context) error {
		if core.IsNil(entity) {
			return fmt.Errorf("%w: %w: entity is nil", storage.ErrRequestFailed, core.ErrInvalidEntity)
		}
		if err := db.engine.Remove(ctx, table, entity.GetID()); err != nil {
			return err
		}
		if onSuccess != nil {
			onSuccess()
		}
		return nil
	})
}

// writeAs wraps a typed success callback for Add and Update.
func writeAs[T core.Entity](onSuccess func(T)) func(core.Entity) {
	if onSuccess == nil {
		return nil
	}
	return func(e core.Entity) {
		onSuccess(e.(T))
	}
}
