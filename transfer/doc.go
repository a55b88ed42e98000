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

// Package transfer moves table contents in and out of a store as JSON lines.
//
// Export writes one stored record per line, in primary-key order. Import
// reads such a file back and upserts every record, so importing the same
// file twice leaves the table unchanged. Import parses the whole input before
// writing anything: a malformed line aborts the import with nothing written.
//
// The engine never retries a failed operation. Import does so only when
// asked with WithRetry, and then only for transaction failures.
package transfer
