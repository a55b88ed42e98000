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
	"errors"

	"github.com/poiesic/notedb/schema"
)

// Error taxonomy. Every failure surfaced by a storage backend wraps exactly
// one of the first five kinds, so callers can branch with errors.Is.
var (
	// ErrOpenFailed indicates the store could not be opened or upgraded.
	ErrOpenFailed = errors.New("open failed")

	// ErrUpgradeBlocked indicates another open connection prevents an
	// upgrade or a destroy.
	ErrUpgradeBlocked = errors.New("upgrade blocked by another connection")

	// ErrTransactionFailed indicates a transaction could not commit.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrRequestFailed indicates a single request was rejected.
	ErrRequestFailed = errors.New("request failed")

	// ErrUnknownTable indicates a table name absent from the schema.
	ErrUnknownTable = schema.ErrUnknownTable
)

var (
	// ErrDuplicateKey indicates an insert hit an existing primary key.
	// Always wrapped in ErrRequestFailed.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrStoreClosed indicates the store handle is no longer open.
	ErrStoreClosed = errors.New("store is closed")

	// ErrSerializationFailed indicates a record could not be encoded or decoded.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrTruncatedData indicates that data was truncated during reading.
	ErrTruncatedData = errors.New("truncated data")
)
