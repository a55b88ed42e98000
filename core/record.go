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

package core

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Record is the flat, storable form of an entity.
// Keys are persisted field names; values must be JSON-serializable.
//
// Records read back from the store hold decoded JSON values: numbers arrive
// as json.Number, byte slices as base64 strings. The typed accessors below
// accept both the native Go value and its decoded form.
type Record map[string]any

// Has reports whether the record carries a value for key.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// ID returns the value at key as an ID, or 0 if absent or not an unsigned integer.
func (r Record) ID(key string) ID {
	v, _ := toUint64(r[key])
	return ID(v)
}

// Int64 returns the value at key as an int64, or 0 if absent or not an integer.
func (r Record) Int64(key string) int64 {
	v, _ := toInt64(r[key])
	return v
}

// String returns the value at key as a string, or "" if absent or not a string.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Bool returns the value at key as a bool.
func (r Record) Bool(key string) bool {
	b, _ := r[key].(bool)
	return b
}

// Time returns the value at key, stored as Unix milliseconds, as a UTC time.
// A stored 0 maps back to the zero time.
func (r Record) Time(key string) time.Time {
	switch v := r[key].(type) {
	case time.Time:
		return v.UTC()
	default:
		ms, ok := toInt64(v)
		if !ok || ms == 0 {
			return time.Time{}
		}
		return time.UnixMilli(ms).UTC()
	}
}

// Bytes returns the value at key as raw bytes. Stored byte slices come back
// base64 encoded; undecodable strings yield nil.
func (r Record) Bytes(key string) []byte {
	switch v := r[key].(type) {
	case []byte:
		return v
	case string:
		b, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil
		}
		return b
	default:
		return nil
	}
}

// Millis converts t to the Unix millisecond form used in records.
// The zero time is stored as 0.
func Millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func toUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case ID:
		return uint64(n), true
	case uint64:
		return n, true
	case uint:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case int:
		return uint64(n), n >= 0
	case int64:
		return uint64(n), n >= 0
	case int32:
		return uint64(n), n >= 0
	case float64:
		if n < 0 || n != math.Trunc(n) {
			return 0, false
		}
		return uint64(n), true
	case json.Number:
		u, err := strconv.ParseUint(n.String(), 10, 64)
		if err == nil {
			return u, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return toUint64(f)
	default:
		return 0, false
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case ID:
		return int64(n), n <= math.MaxInt64
	case uint64:
		return int64(n), n <= math.MaxInt64
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return toInt64(f)
	default:
		return 0, false
	}
}
