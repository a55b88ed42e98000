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
	"fmt"
	"reflect"
)

// ValidateEntity checks the only rule the store itself needs:
// every entity carries a non-zero primary key.
//
// Field contents are NOT validated; domain rules belong to the application.
func ValidateEntity(e Entity) error {
	if IsNil(e) {
		return fmt.Errorf("%w: entity is nil", ErrInvalidEntity)
	}
	if e.GetID() == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, ErrZeroID)
	}
	return nil
}

// IsNil reports whether e is nil or holds a nil pointer.
func IsNil(e Entity) bool {
	if e == nil {
		return true
	}
	v := reflect.ValueOf(e)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// ValidatePartial checks a partial record used for bulk updates.
// The primary key cannot be rewritten in place.
func ValidatePartial(partial Record) error {
	if partial.Has("id") {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, ErrPrimaryKeyChange)
	}
	return nil
}
