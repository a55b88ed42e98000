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

package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/notedb/core"
	"github.com/poiesic/notedb/schema"
	"github.com/poiesic/notedb/storage"
)

// Engine implements storage.Engine on an open Handle.
type Engine struct {
	handle *Handle
	logger *slog.Logger
}

var _ storage.Engine = (*Engine)(nil)

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineLogger sets the engine's logger. Default is the handle's logger.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an Engine over an open store handle.
func NewEngine(h *Handle, opts ...EngineOption) (*Engine, error) {
	if h == nil {
		return nil, ErrHandleRequired
	}
	if h.IsClosed() {
		return nil, storage.ErrStoreClosed
	}
	e := &Engine{handle: h, logger: h.logger}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Handle returns the handle the engine operates on.
func (e *Engine) Handle() *Handle {
	return e.handle
}

// Add inserts a new entity. An existing id fails with ErrDuplicateKey.
func (e *Engine) Add(ctx context.Context, table string, entity core.Entity) error {
	return observe("add", table, func() error {
		indexes, err := e.indexes(table)
		if err != nil {
			return err
		}
		rec, data, err := prepare(entity)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		id := entity.GetID()
		e.logger.Debug("db add", "table", table, "id", id)

		return e.withTx(func(tx *badger.Txn) error {
			key := makeRecordKey(e.handle.name, table, id)
			_, err := tx.Get(key)
			switch {
			case err == nil:
				return fmt.Errorf("%w: %w: %s/%d", storage.ErrRequestFailed, storage.ErrDuplicateKey, table, id)
			case !errors.Is(err, badger.ErrKeyNotFound):
				return requestFailed(err)
			}
			if err := tx.Set(key, data); err != nil {
				return requestFailed(err)
			}
			if err := e.putIndexes(tx, table, indexes, id, rec); err != nil {
				return err
			}
			return commit(tx)
		}, true)
	})
}

// Update writes the entity, replacing any stored record with the same id.
func (e *Engine) Update(ctx context.Context, table string, entity core.Entity) error {
	return observe("update", table, func() error {
		indexes, err := e.indexes(table)
		if err != nil {
			return err
		}
		rec, data, err := prepare(entity)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		id := entity.GetID()
		e.logger.Debug("db update", "table", table, "id", id)

		return e.withTx(func(tx *badger.Txn) error {
			key := makeRecordKey(e.handle.name, table, id)
			old, err := readRecord(tx, key)
			if err != nil {
				return err
			}
			if old != nil {
				if err := e.deleteIndexes(tx, table, indexes, id, old); err != nil {
					return err
				}
			}
			if err := tx.Set(key, data); err != nil {
				return requestFailed(err)
			}
			if err := e.putIndexes(tx, table, indexes, id, rec); err != nil {
				return err
			}
			return commit(tx)
		}, true)
	})
}

// Remove deletes a record and its index entries. An absent id is not an error.
func (e *Engine) Remove(ctx context.Context, table string, id core.ID) error {
	return observe("remove", table, func() error {
		indexes, err := e.indexes(table)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		e.logger.Debug("db remove", "table", table, "id", id)

		return e.withTx(func(tx *badger.Txn) error {
			key := makeRecordKey(e.handle.name, table, id)
			old, err := readRecord(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return nil
			}
			if err := e.deleteIndexes(tx, table, indexes, id, old); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return requestFailed(err)
			}
			return commit(tx)
		}, true)
	})
}

// Get returns every entity of the table matching filters, in primary-key order.
func (e *Engine) Get(ctx context.Context, table string, filters storage.Filters) ([]core.Entity, error) {
	var results []core.Entity
	err := observe("get", table, func() error {
		d, err := e.handle.registry.Lookup(table)
		if err != nil {
			return err
		}
		f, err := filters.Normalize()
		if err != nil {
			return requestFailed(err)
		}

		return e.withTx(func(tx *badger.Txn) error {
			matches, err := e.scan(ctx, tx, table, f)
			if err != nil {
				return err
			}
			results = make([]core.Entity, 0, len(matches))
			for _, m := range matches {
				results = append(results, d.New(m.rec))
			}
			return nil
		}, false)
	})
	if err != nil {
		return nil, err
	}
	e.logger.Debug("db get", "table", table, "filters", len(filters), "matches", len(results))
	return results, nil
}

// UpdateMultiple applies partial to every matching entity and persists the
// results in the transaction that found them.
func (e *Engine) UpdateMultiple(ctx context.Context, table string, filters storage.Filters, partial core.Record) ([]core.Entity, error) {
	var updated []core.Entity
	err := observe("update_multiple", table, func() error {
		d, err := e.handle.registry.Lookup(table)
		if err != nil {
			return err
		}
		indexes, err := e.indexes(table)
		if err != nil {
			return err
		}
		if err := core.ValidatePartial(partial); err != nil {
			return requestFailed(err)
		}
		f, err := filters.Normalize()
		if err != nil {
			return requestFailed(err)
		}

		return e.withTx(func(tx *badger.Txn) error {
			matches, err := e.scan(ctx, tx, table, f)
			if err != nil {
				return err
			}
			updated = make([]core.Entity, 0, len(matches))
			for _, m := range matches {
				if err := ctx.Err(); err != nil {
					return err
				}
				entity := d.New(m.rec)
				entity.Set(partial)
				rec, data, err := storage.SerializeEntity(entity)
				if err != nil {
					return requestFailed(err)
				}
				if err := e.deleteIndexes(tx, table, indexes, m.id, m.rec); err != nil {
					return err
				}
				if err := tx.Set(makeRecordKey(e.handle.name, table, m.id), data); err != nil {
					return requestFailed(err)
				}
				if err := e.putIndexes(tx, table, indexes, m.id, rec); err != nil {
					return err
				}
				updated = append(updated, entity)
			}
			if len(updated) == 0 {
				return nil
			}
			return commit(tx)
		}, true)
	})
	if err != nil {
		return nil, err
	}
	e.logger.Debug("db update multiple", "table", table, "updated", len(updated))
	return updated, nil
}

// GetByIndex returns the entities whose indexed field equals value.
// A nil value matches nothing, since null fields are never indexed.
func (e *Engine) GetByIndex(ctx context.Context, table, index string, value any) ([]core.Entity, error) {
	var results []core.Entity
	err := observe("get_by_index", table, func() error {
		d, err := e.handle.registry.Lookup(table)
		if err != nil {
			return err
		}
		indexes, err := e.indexes(table)
		if err != nil {
			return err
		}
		if !slices.Contains(indexes, index) {
			return fmt.Errorf("%w: %s.%s", schema.ErrUnknownIndex, table, index)
		}
		nv, err := storage.NormalizeValue(value)
		if err != nil {
			return requestFailed(err)
		}
		if nv == nil {
			return nil
		}
		encoded, err := storage.MarshalIndexValue(nv)
		if err != nil {
			return requestFailed(err)
		}

		return e.withTx(func(tx *badger.Txn) error {
			ids, err := scanIndex(ctx, tx, makeIndexValuePrefix(e.handle.name, table, index, encoded))
			if err != nil {
				return err
			}
			slices.Sort(ids)
			for _, id := range ids {
				rec, err := readRecord(tx, makeRecordKey(e.handle.name, table, id))
				if err != nil {
					return err
				}
				if rec == nil {
					e.logger.Warn("index entry without record", "table", table, "index", index, "id", id)
					continue
				}
				results = append(results, d.New(rec))
			}
			return nil
		}, false)
	})
	if err != nil {
		return nil, err
	}
	e.logger.Debug("db get by index", "table", table, "index", index, "matches", len(results))
	return results, nil
}

// Count returns the number of records in the table.
func (e *Engine) Count(ctx context.Context, table string) (int, error) {
	var n int
	err := observe("count", table, func() error {
		if _, err := e.handle.registry.Lookup(table); err != nil {
			return err
		}
		return e.withTx(func(tx *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = makeTablePrefix(e.handle.name, table)
			opts.PrefetchValues = false
			iter := tx.NewIterator(opts)
			defer iter.Close()

			for iter.Rewind(); iter.Valid(); iter.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				n++
			}
			return nil
		}, false)
	})
	return n, err
}

// NextID allocates a primary key no record of the table uses yet.
func (e *Engine) NextID(ctx context.Context, table string) (core.ID, error) {
	var id core.ID
	err := observe("next_id", table, func() error {
		if _, err := e.handle.registry.Lookup(table); err != nil {
			return err
		}
		seq, err := e.handle.sequence(table)
		if err != nil {
			return err
		}
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			next, err := seq.Next()
			if err != nil {
				return requestFailed(err)
			}
			// Badger sequences start at 0, which is not a valid key
			if next == 0 {
				continue
			}
			var taken bool
			err = e.withTx(func(tx *badger.Txn) error {
				rec, err := readRecord(tx, makeRecordKey(e.handle.name, table, core.ID(next)))
				taken = rec != nil
				return err
			}, false)
			if err != nil {
				return err
			}
			if !taken {
				id = core.ID(next)
				return nil
			}
		}
	})
	return id, err
}

// scanned is a stored record found by a table scan.
type scanned struct {
	id  core.ID
	rec core.Record
}

// scan walks the table in primary-key order and collects the records
// matching filters.
func (e *Engine) scan(ctx context.Context, tx *badger.Txn, table string, filters storage.Filters) ([]scanned, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeTablePrefix(e.handle.name, table)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var out []scanned
	for iter.Rewind(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := iter.Item()
		var rec core.Record
		if err := item.Value(func(val []byte) error {
			var err error
			rec, err = storage.UnmarshalRecord(val)
			return err
		}); err != nil {
			return nil, requestFailed(err)
		}
		if filters.Match(rec) {
			out = append(out, scanned{id: idFromKey(item.Key()), rec: rec})
		}
	}
	return out, nil
}

// scanIndex returns the ids stored under an index value prefix.
func scanIndex(ctx context.Context, tx *badger.Txn, prefix []byte) ([]core.ID, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var ids []core.ID
	for iter.Rewind(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ids = append(ids, idFromKey(iter.Item().Key()))
	}
	return ids, nil
}

// readRecord reads a stored record, returning nil if the key is absent.
func readRecord(tx *badger.Txn, key []byte) (core.Record, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, requestFailed(err)
	}
	var rec core.Record
	err = item.Value(func(val []byte) error {
		var err error
		rec, err = storage.UnmarshalRecord(val)
		return err
	})
	if err != nil {
		return nil, requestFailed(err)
	}
	return rec, nil
}

func (e *Engine) putIndexes(tx *badger.Txn, table string, indexes []string, id core.ID, rec core.Record) error {
	for _, idx := range indexes {
		value, ok, err := indexValue(rec, idx)
		if err != nil {
			return requestFailed(err)
		}
		if !ok {
			continue
		}
		if err := tx.Set(makeIndexKey(e.handle.name, table, idx, value, id), nil); err != nil {
			return requestFailed(err)
		}
	}
	return nil
}

func (e *Engine) deleteIndexes(tx *badger.Txn, table string, indexes []string, id core.ID, rec core.Record) error {
	for _, idx := range indexes {
		value, ok, err := indexValue(rec, idx)
		if err != nil {
			return requestFailed(err)
		}
		if !ok {
			continue
		}
		if err := tx.Delete(makeIndexKey(e.handle.name, table, idx, value, id)); err != nil {
			return requestFailed(err)
		}
	}
	return nil
}

// indexes returns the indexes maintained on a table. The catalog may carry
// indexes a newer schema declared, so it takes precedence over the registry.
func (e *Engine) indexes(table string) ([]string, error) {
	d, err := e.handle.registry.Lookup(table)
	if err != nil {
		return nil, err
	}
	if entry, ok := e.handle.catalog[table]; ok {
		return entry.Indexes, nil
	}
	return d.Indexes, nil
}

func (e *Engine) withTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	if e.handle.IsClosed() {
		return storage.ErrStoreClosed
	}
	return e.handle.backend.WithTx(fn, isWrite)
}

// prepare validates an entity and returns its stored record and encoding.
func prepare(entity core.Entity) (core.Record, []byte, error) {
	if err := core.ValidateEntity(entity); err != nil {
		return nil, nil, requestFailed(err)
	}
	rec, data, err := storage.SerializeEntity(entity)
	if err != nil {
		return nil, nil, requestFailed(err)
	}
	return rec, data, nil
}

func commit(tx *badger.Txn) error {
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	return nil
}

func requestFailed(err error) error {
	if errors.Is(err, storage.ErrRequestFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", storage.ErrRequestFailed, err)
}
