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

package schema

import (
	"encoding/binary"
	"fmt"
	"slices"
	"strings"

	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/notedb/core"
)

// PrimaryKey is the implicit primary key field of every table.
const PrimaryKey = "id"

// TableDescriptor describes one logical table.
type TableDescriptor struct {
	// Name is the table name used by every CRUD call.
	Name string

	// ObjectType names the entity type stored in the table ("Note").
	ObjectType string

	// Indexes lists the non-unique secondary indexes, by persisted field name.
	// The primary key is implicit and never listed.
	Indexes []string

	// New materializes an entity from a stored record.
	New func(core.Record) core.Entity
}

// HasIndex reports whether the table declares an index on field.
func (d TableDescriptor) HasIndex(field string) bool {
	return slices.Contains(d.Indexes, field)
}

func (d TableDescriptor) validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty table name", ErrInvalidDescriptor)
	}
	if strings.Contains(d.Name, "/") {
		return fmt.Errorf("%w: table name %q contains '/'", ErrInvalidDescriptor, d.Name)
	}
	if d.ObjectType == "" {
		return fmt.Errorf("%w: table %q has no object type", ErrInvalidDescriptor, d.Name)
	}
	if d.New == nil {
		return fmt.Errorf("%w: table %q has no constructor", ErrInvalidDescriptor, d.Name)
	}
	seen := make(map[string]bool, len(d.Indexes))
	for _, idx := range d.Indexes {
		switch {
		case idx == "" || strings.Contains(idx, "/"):
			return fmt.Errorf("%w: table %q has invalid index name %q", ErrInvalidDescriptor, d.Name, idx)
		case idx == PrimaryKey:
			return fmt.Errorf("%w: table %q lists the primary key as an index", ErrInvalidDescriptor, d.Name)
		case seen[idx]:
			return fmt.Errorf("%w: table %q lists index %q twice", ErrInvalidDescriptor, d.Name, idx)
		}
		seen[idx] = true
	}
	return nil
}

// Registry is the ordered, read-only set of table descriptors.
type Registry struct {
	tables []TableDescriptor
	byName map[string]int
}

// NewRegistry builds a registry preserving the given table order.
func NewRegistry(tables ...TableDescriptor) (*Registry, error) {
	r := &Registry{
		tables: make([]TableDescriptor, 0, len(tables)),
		byName: make(map[string]int, len(tables)),
	}
	for _, d := range tables {
		if err := d.validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("%w: table %q declared twice", ErrInvalidDescriptor, d.Name)
		}
		d.Indexes = slices.Clone(d.Indexes)
		r.byName[d.Name] = len(r.tables)
		r.tables = append(r.tables, d)
	}
	return r, nil
}

// Tables returns the descriptors in registry order.
func (r *Registry) Tables() []TableDescriptor {
	out := make([]TableDescriptor, len(r.tables))
	for i, d := range r.tables {
		d.Indexes = slices.Clone(d.Indexes)
		out[i] = d
	}
	return out
}

// Lookup returns the descriptor for a table name.
func (r *Registry) Lookup(table string) (TableDescriptor, error) {
	i, ok := r.byName[table]
	if !ok {
		return TableDescriptor{}, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return r.tables[i], nil
}

// Unserialize materializes a fresh entity of the table's object type.
func (r *Registry) Unserialize(table string, rec core.Record) (core.Entity, error) {
	d, err := r.Lookup(table)
	if err != nil {
		return nil, err
	}
	return d.New(rec), nil
}

// Fingerprint hashes the table and index layout with BLAKE2b-64.
// Two registries with the same tables and indexes, in the same order,
// have the same fingerprint.
func (r *Registry) Fingerprint() uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	for _, d := range r.tables {
		h.Write([]byte(d.Name))
		h.Write([]byte{0})
		h.Write([]byte(d.ObjectType))
		h.Write([]byte{0})
		for _, idx := range d.Indexes {
			h.Write([]byte(idx))
			h.Write([]byte{1})
		}
		h.Write([]byte{2})
	}
	return binary.LittleEndian.Uint64(h.Sum(nil))
}
