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

// Package storage provides the storage abstraction layer for notedb.
//
// This package defines the Engine interface that decouples the CRUD
// operations from the key-value backend that persists them, together with
// the error taxonomy and the serialization used by every backend.
//
// # Records
//
// Entities cross the storage boundary as core.Record values. Records are
// stored as JSON objects and read back with numbers preserved as
// json.Number. Filters compare against these raw stored fields, never
// against entity attributes, so filter values are normalized through the
// same encoding before comparison (see Filters.Normalize).
//
// Store metadata (schema version, fingerprint, table catalog) is small and
// fixed-shape and uses the compact mus binary format instead.
//
// # Errors
//
// Every backend error wraps one of ErrOpenFailed, ErrUpgradeBlocked,
// ErrTransactionFailed, ErrRequestFailed or ErrUnknownTable. Errors are
// reported once; nothing in this layer retries.
//
// # Usage
//
//	mgr, err := badger.NewManager(schema.Default(), badger.WithPath("/path/to/db"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	handle, err := mgr.Open(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer mgr.Close()
//
//	engine, err := badger.NewEngine(handle)
//	notes, err := engine.Get(ctx, "notes", storage.Filters{"notebook_id": 5})
//
// # Thread Safety
//
// Engine implementations must be thread-safe. Separate calls run in separate
// transactions and carry no ordering guarantee beyond what the backend
// enforces.
package storage
