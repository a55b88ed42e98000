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

import "errors"

var (
	// ErrUnknownTable indicates a table name absent from the registry.
	ErrUnknownTable = errors.New("unknown table")

	// ErrUnknownIndex indicates an index not declared on the table.
	ErrUnknownIndex = errors.New("unknown index")

	// ErrInvalidDescriptor indicates a malformed table descriptor.
	ErrInvalidDescriptor = errors.New("invalid table descriptor")

	// ErrTypeMismatch indicates a table holds a different entity type than requested.
	ErrTypeMismatch = errors.New("entity type mismatch")
)
