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

package notedb

import (
	"errors"
	"log/slog"

	"github.com/poiesic/notedb/schema"
)

// Config holds the settings used to open a Database.
type Config struct {
	// Path is the directory of the Badger database.
	// Ignored when InMemory is set.
	Path string

	// InMemory keeps the store in memory only.
	InMemory bool

	// Name is the store name. Default: schema.StoreName
	Name string

	// Version is the pinned store version. Default: schema.Version
	Version uint64

	// Registry is the schema of the store. Default: schema.Default()
	Registry *schema.Registry
}

// DefaultConfig returns a Config for the notes schema. A location must
// still be set with WithPath or WithInMemory.
func DefaultConfig() *Config {
	return &Config{
		Name:     schema.StoreName,
		Version:  schema.Version,
		Registry: schema.Default(),
	}
}

// Validate checks that the configuration is complete.
func (c *Config) Validate() error {
	if c.Path == "" && !c.InMemory {
		return errors.New("notedb config: Path is required unless InMemory is set")
	}
	if c.Name == "" {
		return errors.New("notedb config: Name is required")
	}
	if c.Version == 0 {
		return errors.New("notedb config: Version must be greater than 0")
	}
	if c.Registry == nil {
		return errors.New("notedb config: Registry is required")
	}
	return nil
}

// Option configures a Database.
type Option func(*options)

type options struct {
	config  *Config
	logger  *slog.Logger
	onError ErrorFunc
}

// WithConfig replaces the whole configuration with a copy of cfg.
// Options given before it are overwritten; options after it apply to the copy.
func WithConfig(cfg *Config) Option {
	return func(o *options) {
		if cfg != nil {
			c := *cfg
			o.config = &c
		}
	}
}

// WithPath sets the directory of the Badger database.
func WithPath(path string) Option {
	return func(o *options) {
		o.config.Path = path
	}
}

// WithInMemory keeps the store in memory only. Intended for tests.
func WithInMemory() Option {
	return func(o *options) {
		o.config.InMemory = true
	}
}

// WithVersion pins the store version.
func WithVersion(version uint64) Option {
	return func(o *options) {
		o.config.Version = version
	}
}

// WithRegistry sets the store schema.
func WithRegistry(registry *schema.Registry) Option {
	return func(o *options) {
		o.config.Registry = registry
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// WithErrorSink sets the function receiving errors of callback operations
// issued without their own error callback. Default only logs.
func WithErrorSink(fn ErrorFunc) Option {
	return func(o *options) {
		o.onError = fn
	}
}
