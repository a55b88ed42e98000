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

// Package schema declares the tables of the notes store.
//
// Each TableDescriptor names a table, the entity type it holds and its
// secondary indexes. The primary key "id" is implicit on every table.
// The Registry is built once at startup and never changes afterwards; the
// storage layer reads it to create tables and indexes during an upgrade and
// to materialize entities on reads.
//
// # Layout
//
//	table         object type   indexes
//	notes         Note          notebook_id, name
//	noteResource  NoteResource  note_id
//	notebooks     Notebook      user_id
//	users         User          -
//
// Adding a table or an index requires bumping Version. Upgrades are
// additive: tables and indexes are never dropped or renamed.
package schema
