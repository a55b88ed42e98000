package badger

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/notedb/schema"
	"github.com/poiesic/notedb/storage"
)

// Handle is an open, upgraded store. It is only obtained from Manager.Open,
// so holding one proves the store is ready for CRUD operations.
type Handle struct {
	backend  *Backend
	registry *schema.Registry
	name     string
	version  uint64
	catalog  map[string]storage.CatalogEntry
	logger   *slog.Logger

	mu   sync.Mutex
	seqs map[string]*badger.Sequence
}

// Name returns the store name.
func (h *Handle) Name() string { return h.name }

// Version returns the store version.
func (h *Handle) Version() uint64 { return h.version }

// Registry returns the schema the store was opened with.
func (h *Handle) Registry() *schema.Registry { return h.registry }

// IsClosed returns true once the handle's connection is closed.
func (h *Handle) IsClosed() bool { return h.backend.IsClosed() }

// Tables returns the catalog of created tables, sorted by name.
func (h *Handle) Tables() []storage.CatalogEntry {
	out := make([]storage.CatalogEntry, 0, len(h.catalog))
	for _, e := range h.catalog {
		e.Indexes = slices.Clone(e.Indexes)
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Table < out[j].Table })
	return out
}

// Indexes returns the indexes created on a table.
func (h *Handle) Indexes(table string) ([]string, error) {
	e, ok := h.catalog[table]
	if !ok {
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownTable, table)
	}
	return slices.Clone(e.Indexes), nil
}

// Fingerprint returns the schema fingerprint persisted in the store.
func (h *Handle) Fingerprint() (uint64, error) {
	var fp uint64
	err := h.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		fp, err = readUint64(tx, makeFingerprintKey(h.name))
		return err
	}, false)
	return fp, err
}

// sequence returns the id sequence of a table, creating it on first use.
func (h *Handle) sequence(table string) (*badger.Sequence, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.seqs == nil {
		return nil, storage.ErrStoreClosed
	}
	if seq, ok := h.seqs[table]; ok {
		return seq, nil
	}
	seq, err := h.backend.GetSequence(makeSequenceKey(h.name, table))
	if err != nil {
		return nil, err
	}
	h.seqs[table] = seq
	return seq, nil
}

// close releases the id sequences and the connection.
func (h *Handle) close() error {
	h.mu.Lock()
	var errs []error
	for table, seq := range h.seqs {
		if err := seq.Release(); err != nil {
			errs = append(errs, fmt.Errorf("releasing %s sequence: %w", table, err))
		}
	}
	h.seqs = nil
	h.mu.Unlock()

	if err := h.backend.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
