package badger

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/puzpuzpuz/xsync/v3"
)

const (
	defaultSequenceBandwidth = 100
)

// sharedDB is one BadgerDB instance shared by every connection to the same path.
type sharedDB struct {
	db   *badger.DB
	refs atomic.Int32
}

// connections tracks the open on-disk stores of this process, keyed by
// absolute path. In-memory stores are never shared.
var connections = xsync.NewMapOf[string, *sharedDB]()

// Backend is one connection to a BadgerDB store.
// Several Backends opened on the same path share the underlying database;
// it is closed when the last of them closes.
type Backend struct {
	shared *sharedDB
	key    string
	closed atomic.Bool
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a connection to the BadgerDB database at the specified path.
// Creates the directory if it doesn't exist. If another connection of this
// process already has the path open, the database is shared.
func OpenBackend(filePath string, inMemory bool) (*Backend, error) {
	return openBackend(filePath, inMemory, slog.Default())
}

func openBackend(filePath string, inMemory bool, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if inMemory {
		db, err := badger.Open(badgerOptions("", true, logger))
		if err != nil {
			return nil, err
		}
		shared := &sharedDB{db: db}
		shared.refs.Store(1)
		return &Backend{shared: shared, logger: logger}, nil
	}

	if err := ensureDir(filePath); err != nil {
		return nil, err
	}
	key, err := filepath.Abs(filePath)
	if err != nil {
		return nil, err
	}

	var openErr error
	shared, _ := connections.Compute(key, func(old *sharedDB, loaded bool) (*sharedDB, bool) {
		if loaded {
			old.refs.Add(1)
			return old, false
		}
		db, err := badger.Open(badgerOptions(key, false, logger))
		if err != nil {
			openErr = err
			return nil, true
		}
		s := &sharedDB{db: db}
		s.refs.Store(1)
		return s, false
	})
	if openErr != nil {
		return nil, openErr
	}

	return &Backend{shared: shared, key: key, logger: logger}, nil
}

func badgerOptions(path string, inMemory bool, logger *slog.Logger) badger.Options {
	opts := badger.DefaultOptions(path)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None
	return opts
}

func ensureDir(filePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		if err := os.MkdirAll(filePath, 0755); err != nil {
			return err
		}
		info, err = os.Stat(filePath)
		if err != nil {
			return err
		}
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filePath)
	}
	return nil
}

// Close releases this connection. The database itself closes with the last
// connection. Closing twice is a no-op.
func (b *Backend) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	if b.key == "" {
		return b.shared.db.Close()
	}

	var closeErr error
	connections.Compute(b.key, func(old *sharedDB, loaded bool) (*sharedDB, bool) {
		if !loaded {
			return old, true
		}
		if old.refs.Add(-1) > 0 {
			return old, false
		}
		closeErr = old.db.Close()
		return old, true
	})
	return closeErr
}

// IsClosed returns true if this connection or the database is closed.
func (b *Backend) IsClosed() bool {
	return b.closed.Load() || b.shared.db.IsClosed()
}

// Connections returns how many open connections share the database.
func (b *Backend) Connections() int {
	return int(b.shared.refs.Load())
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction.
// The transaction is automatically discarded if fn returns an error.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	tx := b.shared.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// GetSequence returns a BadgerDB sequence for generating sequential IDs.
func (b *Backend) GetSequence(key []byte) (*badger.Sequence, error) {
	return b.shared.db.GetSequence(key, defaultSequenceBandwidth)
}

// DeletePrefix removes every key starting with prefix. Deletes go through
// a write batch so stores larger than one transaction can be dropped.
func (b *Backend) DeletePrefix(prefix []byte) error {
	var keys [][]byte
	err := b.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		return nil
	}, false)
	if err != nil {
		return err
	}

	wb := b.shared.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return err
		}
	}
	return wb.Flush()
}
