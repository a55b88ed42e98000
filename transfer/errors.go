package transfer

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrInvalidLine is returned when an import line is not a valid record.
	ErrInvalidLine = errors.New("invalid record line")

	// ErrRegistryRequired is returned when Import has no schema to build entities with.
	ErrRegistryRequired = errors.New("schema registry required")
)
