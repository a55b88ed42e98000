package badger

import "errors"

var (
	// ErrRegistryRequired is returned when a schema registry is not provided.
	ErrRegistryRequired = errors.New("schema registry required")

	// ErrLocationRequired is returned when neither a path nor in-memory mode is configured.
	ErrLocationRequired = errors.New("store path or in-memory mode required")

	// ErrInvalidVersion is returned when the pinned version is 0.
	ErrInvalidVersion = errors.New("store version must be greater than 0")

	// ErrHandleRequired is returned when an engine is built without an open handle.
	ErrHandleRequired = errors.New("open store handle required")
)
