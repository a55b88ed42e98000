package badger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/notedb/schema"
	"github.com/poiesic/notedb/storage"
)

// Manager opens, upgrades and destroys one versioned store.
// Each Manager holds at most one open Handle; several Managers may point at
// the same path and then share the underlying database.
type Manager struct {
	registry *schema.Registry
	name     string
	version  uint64
	path     string
	inMemory bool
	logger   *slog.Logger

	mu     sync.Mutex
	handle *Handle
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithPath sets the directory of the Badger database.
func WithPath(path string) ManagerOption {
	return func(m *Manager) {
		m.path = path
	}
}

// WithInMemory keeps the store in memory only. Intended for tests.
func WithInMemory() ManagerOption {
	return func(m *Manager) {
		m.inMemory = true
	}
}

// WithName sets the store name. Default is schema.StoreName.
func WithName(name string) ManagerOption {
	return func(m *Manager) {
		m.name = name
	}
}

// WithVersion pins the store version. Default is schema.Version.
func WithVersion(version uint64) ManagerOption {
	return func(m *Manager) {
		m.version = version
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
	}
}

// NewManager creates a Manager for the tables of registry.
func NewManager(registry *schema.Registry, opts ...ManagerOption) (*Manager, error) {
	if registry == nil {
		return nil, ErrRegistryRequired
	}
	m := &Manager{
		registry: registry,
		name:     schema.StoreName,
		version:  schema.Version,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.path == "" && !m.inMemory {
		return nil, ErrLocationRequired
	}
	if m.version == 0 {
		return nil, ErrInvalidVersion
	}
	return m, nil
}

// Open opens the store at the pinned version and returns its handle.
//
// A store whose stored version is lower than the pinned one (a missing
// store counts as version 0) is upgraded before Open returns. A store with a
// higher version fails with ErrOpenFailed. An upgrade is refused with
// ErrUpgradeBlocked while another connection has the store open.
// Calling Open on an open Manager returns the existing handle.
func (m *Manager) Open(ctx context.Context) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle != nil && !m.handle.IsClosed() {
		return m.handle, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.logger.Info("opening store", "name", m.name, "version", m.version)
	backend, err := openBackend(m.path, m.inMemory, m.logger)
	if err != nil {
		return nil, m.fail(fmt.Errorf("%w: %w", storage.ErrOpenFailed, err))
	}

	var meta *storeMeta
	err = backend.WithTx(func(tx *badger.Txn) error {
		var err error
		meta, err = readMeta(tx, m.name)
		if err != nil {
			return fmt.Errorf("%w: %w", storage.ErrOpenFailed, err)
		}

		switch {
		case meta.version > m.version:
			return fmt.Errorf("%w: stored version %d is newer than %d", storage.ErrOpenFailed, meta.version, m.version)
		case meta.version == m.version:
			if meta.fingerprint != m.registry.Fingerprint() {
				m.logger.Warn("schema changed without a version bump", "name", m.name, "version", m.version)
			}
			return nil
		}

		if n := backend.Connections(); n > 1 {
			return fmt.Errorf("%w: %d other connections open", storage.ErrUpgradeBlocked, n-1)
		}
		m.logger.Info("upgrading store", "name", m.name, "from", meta.version, "to", m.version)
		if err := upgrade(tx, m.name, m.registry, meta, m.version, m.logger); err != nil {
			return fmt.Errorf("%w: %w", storage.ErrOpenFailed, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
		}
		m.logger.Info("upgrade complete", "name", m.name, "version", m.version)
		return nil
	}, true)
	if err != nil {
		backend.Close()
		return nil, m.fail(err)
	}

	m.handle = &Handle{
		backend:  backend,
		registry: m.registry,
		name:     m.name,
		version:  m.version,
		catalog:  meta.tables,
		logger:   m.logger,
		seqs:     make(map[string]*badger.Sequence),
	}
	m.logger.Info("store open", "name", m.name, "version", m.version, "tables", len(meta.tables))
	return m.handle, nil
}

// Handle returns the open handle, or nil if the store is not open.
func (m *Manager) Handle() *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle == nil || m.handle.IsClosed() {
		return nil
	}
	return m.handle
}

// Close closes the handle, if any. Engines built on it stop working.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeHandle()
}

func (m *Manager) closeHandle() error {
	if m.handle == nil {
		return nil
	}
	err := m.handle.close()
	m.handle = nil
	if err != nil {
		m.logger.Error("error closing store", "name", m.name, "err", err)
	}
	return err
}

// Destroy drops every table, index and metadata key of the store.
// The Manager's own handle is closed first. Destroy is refused with
// ErrUpgradeBlocked while other connections have the store open.
// Operations still in flight on this Manager's handle must have finished.
func (m *Manager) Destroy(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.closeHandle(); err != nil {
		return m.fail(err)
	}

	backend, err := openBackend(m.path, m.inMemory, m.logger)
	if err != nil {
		m.logger.Error("store destroy failed", "name", m.name, "err", err)
		return fmt.Errorf("%w: %w", storage.ErrOpenFailed, err)
	}
	defer backend.Close()

	if n := backend.Connections(); n > 1 {
		m.logger.Error("store destroy blocked", "name", m.name, "connections", n-1)
		return fmt.Errorf("%w: %d other connections open", storage.ErrUpgradeBlocked, n-1)
	}
	if err := backend.DeletePrefix(makeStorePrefix(m.name)); err != nil {
		m.logger.Error("store destroy failed", "name", m.name, "err", err)
		return fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	m.logger.Info("store destroyed", "name", m.name)
	return nil
}

// fail logs err on the manager's error sink and returns it.
func (m *Manager) fail(err error) error {
	m.logger.Error("store error", "name", m.name, "err", err)
	return err
}
