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
	"fmt"
	"reflect"

	"github.com/poiesic/notedb/core"
)

// Filters maps persisted field names to expected values.
// A record matches when every field is present and equal (conjunction).
type Filters map[string]any

// Normalize converts filter values into their stored form so they compare
// equal to values decoded from the store (42 and uint64(42) both become
// json.Number("42")).
func (f Filters) Normalize() (Filters, error) {
	if len(f) == 0 {
		return nil, nil
	}
	out := make(Filters, len(f))
	for k, v := range f {
		nv, err := NormalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", k, err)
		}
		out[k] = nv
	}
	return out, nil
}

// Match reports whether a stored record satisfies every filter.
// Filters must already be normalized.
func (f Filters) Match(rec core.Record) bool {
	for k, want := range f {
		got, ok := rec[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}
