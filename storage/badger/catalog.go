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
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/notedb/core"
	"github.com/poiesic/notedb/schema"
	"github.com/poiesic/notedb/storage"
)

// storeMeta is the persisted state of a store: its version, the fingerprint
// of the schema that last upgraded it and the tables created so far.
type storeMeta struct {
	version     uint64
	fingerprint uint64
	tables      map[string]storage.CatalogEntry
}

// readMeta loads the store metadata. A store that does not exist yet has
// version 0 and no tables.
func readMeta(tx *badger.Txn, store string) (*storeMeta, error) {
	version, err := readUint64(tx, makeVersionKey(store))
	if err != nil {
		return nil, err
	}
	fingerprint, err := readUint64(tx, makeFingerprintKey(store))
	if err != nil {
		return nil, err
	}
	entries, err := readCatalog(tx, store)
	if err != nil {
		return nil, err
	}

	meta := &storeMeta{
		version:     version,
		fingerprint: fingerprint,
		tables:      make(map[string]storage.CatalogEntry, len(entries)),
	}
	for _, e := range entries {
		meta.tables[e.Table] = e
	}
	return meta, nil
}

// readUint64 reads a metadata counter, returning 0 if absent.
func readUint64(tx *badger.Txn, key []byte) (uint64, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	var v uint64
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		v, unmarshalErr = storage.UnmarshalUint64(val)
		return unmarshalErr
	})
	return v, err
}

// readCatalog returns every catalog entry in key order.
func readCatalog(tx *badger.Txn, store string) ([]storage.CatalogEntry, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeCatalogPrefix(store)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var entries []storage.CatalogEntry
	for iter.Rewind(); iter.Valid(); iter.Next() {
		var entry storage.CatalogEntry
		err := iter.Item().Value(func(val []byte) error {
			var unmarshalErr error
			entry, unmarshalErr = storage.UnmarshalCatalogEntry(val)
			return unmarshalErr
		})
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// upgrade brings the store up to the registry's layout. Tables and indexes
// that already exist are reused; missing ones are created, and new indexes
// are filled from the records already present. Nothing is ever dropped.
// The caller commits tx.
func upgrade(tx *badger.Txn, store string, registry *schema.Registry, meta *storeMeta, version uint64, logger *slog.Logger) error {
	for _, d := range registry.Tables() {
		entry, exists := meta.tables[d.Name]
		changed := !exists
		if !exists {
			entry = storage.CatalogEntry{Table: d.Name, ObjectType: d.ObjectType}
			logger.Info("creating table", "store", store, "table", d.Name)
		}

		for _, idx := range d.Indexes {
			if slices.Contains(entry.Indexes, idx) {
				continue
			}
			n, err := backfillIndex(tx, store, d.Name, idx)
			if err != nil {
				return fmt.Errorf("creating index %s.%s: %w", d.Name, idx, err)
			}
			logger.Info("creating index", "store", store, "table", d.Name, "index", idx, "entries", n)
			entry.Indexes = append(entry.Indexes, idx)
			changed = true
		}

		if changed {
			if err := tx.Set(makeCatalogKey(store, d.Name), storage.MarshalCatalogEntry(entry)); err != nil {
				return err
			}
			meta.tables[d.Name] = entry
		}
	}

	if err := tx.Set(makeVersionKey(store), storage.MarshalUint64(version)); err != nil {
		return err
	}
	if err := tx.Set(makeFingerprintKey(store), storage.MarshalUint64(registry.Fingerprint())); err != nil {
		return err
	}
	meta.version = version
	meta.fingerprint = registry.Fingerprint()
	return nil
}

// backfillIndex writes index entries for every existing record of a table.
// Returns the number of entries written.
func backfillIndex(tx *badger.Txn, store, table, index string) (int, error) {
	type entry struct {
		id    core.ID
		value []byte
	}
	var entries []entry

	err := func() error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeTablePrefix(store, table)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			var rec core.Record
			if err := item.Value(func(val []byte) error {
				var err error
				rec, err = storage.UnmarshalRecord(val)
				return err
			}); err != nil {
				return err
			}
			value, ok, err := indexValue(rec, index)
			if err != nil {
				return err
			}
			if ok {
				entries = append(entries, entry{id: idFromKey(item.Key()), value: value})
			}
		}
		return nil
	}()
	if err != nil {
		return 0, err
	}

	for _, e := range entries {
		if err := tx.Set(makeIndexKey(store, table, index, e.value, e.id), nil); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}

// indexValue returns the encoded index value of a stored record's field.
// Records without the field, or with a null value, are not indexed.
func indexValue(rec core.Record, field string) ([]byte, bool, error) {
	v, ok := rec[field]
	if !ok || v == nil {
		return nil, false, nil
	}
	data, err := storage.MarshalIndexValue(v)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}
