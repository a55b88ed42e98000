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

	"github.com/poiesic/notedb/schema"
)

// NewMemoryEngine opens an in-memory store with the default schema and
// returns its engine and manager. Intended for tests.
// Caller must close the manager when done.
func NewMemoryEngine(opts ...ManagerOption) (*Engine, *Manager, error) {
	opts = append([]ManagerOption{WithInMemory()}, opts...)
	m, err := NewManager(schema.Default(), opts...)
	if err != nil {
		return nil, nil, err
	}
	h, err := m.Open(context.Background())
	if err != nil {
		return nil, nil, err
	}
	e, err := NewEngine(h)
	if err != nil {
		m.Close()
		return nil, nil, err
	}
	return e, m, nil
}
