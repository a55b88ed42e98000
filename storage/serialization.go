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

package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/notedb/core"
)

// MarshalRecord serializes a stored record to a JSON object.
func MarshalRecord(rec core.Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalRecord deserializes a stored record. Numbers are kept as
// json.Number so 64-bit ids survive intact.
func UnmarshalRecord(data []byte) (core.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rec core.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: record is not an object", ErrSerializationFailed)
	}
	return rec, nil
}

// SerializeEntity converts an entity to its stored form. It returns the
// record exactly as a later read will see it, plus its encoding.
func SerializeEntity(e core.Entity) (core.Record, []byte, error) {
	data, err := MarshalRecord(e.Record())
	if err != nil {
		return nil, nil, err
	}
	rec, err := UnmarshalRecord(data)
	if err != nil {
		return nil, nil, err
	}
	return rec, data, nil
}

// NormalizeValue converts v into the form it takes after a write/read cycle.
func NormalizeValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return out, nil
}

// MarshalIndexValue encodes a normalized field value for use inside an
// index key. JSON output never contains a raw 0x00 byte, which leaves 0x00
// free as the separator before the primary key.
func MarshalIndexValue(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// MarshalUint64 serializes a metadata counter (version, fingerprint) to bytes.
func MarshalUint64(v uint64) []byte {
	buf := make([]byte, varint.Uint64.Size(v))
	varint.Uint64.Marshal(v, buf)
	return buf
}

// UnmarshalUint64 deserializes a metadata counter from bytes.
func UnmarshalUint64(data []byte) (uint64, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	return v, err
}

// MarshalCatalogEntry serializes a CatalogEntry to bytes.
func MarshalCatalogEntry(e CatalogEntry) []byte {
	size := ord.String.Size(e.Table) + ord.String.Size(e.ObjectType) + varint.Int.Size(len(e.Indexes))
	for _, idx := range e.Indexes {
		size += ord.String.Size(idx)
	}
	buf := make([]byte, size)
	n := ord.String.Marshal(e.Table, buf)
	n += ord.String.Marshal(e.ObjectType, buf[n:])
	n += varint.Int.Marshal(len(e.Indexes), buf[n:])
	for _, idx := range e.Indexes {
		n += ord.String.Marshal(idx, buf[n:])
	}
	return buf
}

// UnmarshalCatalogEntry deserializes a CatalogEntry from bytes.
func UnmarshalCatalogEntry(data []byte) (CatalogEntry, error) {
	var e CatalogEntry
	table, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return e, err
	}
	objectType, m, err := ord.String.Unmarshal(data[n:])
	if err != nil {
		return e, err
	}
	n += m
	count, m, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return e, err
	}
	n += m
	if count < 0 || count > len(data)-n {
		return e, fmt.Errorf("%w: %d indexes in %d bytes", ErrTruncatedData, count, len(data)-n)
	}
	var indexes []string
	for range count {
		idx, m, err := ord.String.Unmarshal(data[n:])
		if err != nil {
			return e, err
		}
		n += m
		indexes = append(indexes, idx)
	}
	e.Table = table
	e.ObjectType = objectType
	e.Indexes = indexes
	return e, nil
}
