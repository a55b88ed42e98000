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

//go:generate go run ./cmd/facadegen -out facade.gen.go

package notedb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/notedb/core"
	"github.com/poiesic/notedb/storage"
	"github.com/poiesic/notedb/storage/badger"
)

// ErrorFunc receives the error of a callback operation.
type ErrorFunc func(err error)

// Database is an open notes store. It offers a callback API whose
// operations run on a worker pool, and typed synchronous collections.
//
// Callback operations never block the caller. They are queued and run one
// at a time in submission order, so a callback may issue further operations;
// those run after it returns.
type Database struct {
	manager *badger.Manager
	engine  *badger.Engine
	pool    *ants.Pool
	logger  *slog.Logger
	onError ErrorFunc

	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	closed   bool
	queue    []job
	draining bool
	pending  sync.WaitGroup
	once     sync.Once
	err      error
}

// job is one queued callback operation.
type job struct {
	op      string
	onError ErrorFunc
	fn      func(ctx context.Context) error
}

// Open opens the store, upgrading it if needed, and returns a ready Database.
func Open(ctx context.Context, opts ...Option) (*Database, error) {
	o := &options{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	cfg := o.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	managerOpts := []badger.ManagerOption{
		badger.WithName(cfg.Name),
		badger.WithVersion(cfg.Version),
		badger.WithLogger(o.logger),
	}
	if cfg.InMemory {
		managerOpts = append(managerOpts, badger.WithInMemory())
	} else {
		managerOpts = append(managerOpts, badger.WithPath(cfg.Path))
	}
	manager, err := badger.NewManager(cfg.Registry, managerOpts...)
	if err != nil {
		return nil, err
	}

	handle, err := manager.Open(ctx)
	if err != nil {
		return nil, err
	}

	engine, err := badger.NewEngine(handle)
	if err != nil {
		manager.Close()
		return nil, err
	}

	pool, err := ants.NewPool(1)
	if err != nil {
		manager.Close()
		return nil, err
	}

	db := &Database{
		manager: manager,
		engine:  engine,
		pool:    pool,
		logger:  o.logger,
		onError: o.onError,
	}
	db.ctx, db.cancel = context.WithCancel(context.Background())
	return db, nil
}

// Init is the callback form of Open. Exactly one of onReady and onError
// fires, from a separate goroutine. A nil onError logs the failure.
func Init(ctx context.Context, onReady func(*Database), onError ErrorFunc, opts ...Option) {
	go func() {
		db, err := Open(ctx, opts...)
		if err != nil {
			if onError != nil {
				onError(err)
				return
			}
			slog.Default().Error("database error", "op", "init", "err", err)
			return
		}
		if onReady != nil {
			onReady(db)
		}
	}()
}

// Engine returns the CRUD engine behind the Database.
func (db *Database) Engine() storage.Engine {
	return db.engine
}

// Handle returns the open store handle.
func (db *Database) Handle() *badger.Handle {
	return db.engine.Handle()
}

// OnError is the shared error sink. It receives errors of callback
// operations issued without an error callback.
func (db *Database) OnError(err error) {
	db.logger.Error("database error", "err", err)
	if db.onError != nil {
		db.onError(err)
	}
}

// Get runs Engine.Get on the pool and passes the matches to onSuccess.
func (db *Database) Get(table string, filters storage.Filters, onSuccess func([]core.Entity), onError ErrorFunc) {
	db.submit("get", onError, func(ctx context.Context) error {
		entities, err := db.engine.Get(ctx, table, filters)
		if err != nil {
			return err
		}
		if onSuccess != nil {
			onSuccess(entities)
		}
		return nil
	})
}

// Add runs Engine.Add on the pool. onSuccess fires after the commit.
func (db *Database) Add(table string, entity core.Entity, onSuccess func(core.Entity), onError ErrorFunc) {
	db.submit("add", onError, func(ctx context.Context) error {
		if err := db.engine.Add(ctx, table, entity); err != nil {
			return err
		}
		if onSuccess != nil {
			onSuccess(entity)
		}
		return nil
	})
}

// Update runs Engine.Update on the pool. onSuccess fires after the commit.
func (db *Database) Update(table string, entity core.Entity, onSuccess func(core.Entity), onError ErrorFunc) {
	db.submit("update", onError, func(ctx context.Context) error {
		if err := db.engine.Update(ctx, table, entity); err != nil {
			return err
		}
		if onSuccess != nil {
			onSuccess(entity)
		}
		return nil
	})
}

// Remove runs Engine.Remove on the pool. onSuccess fires after the commit.
func (db *Database) Remove(table string, id core.ID, onSuccess func(), onError ErrorFunc) {
	db.submit("remove", onError, func(ctx context.Context) error {
		if err := db.engine.Remove(ctx, table, id); err != nil {
			return err
		}
		if onSuccess != nil {
			onSuccess()
		}
		return nil
	})
}

// UpdateMultiple runs Engine.UpdateMultiple on the pool and passes the
// updated entities to onSuccess.
func (db *Database) UpdateMultiple(table string, filters storage.Filters, partial core.Record, onSuccess func([]core.Entity), onError ErrorFunc) {
	db.submit("update_multiple", onError, func(ctx context.Context) error {
		entities, err := db.engine.UpdateMultiple(ctx, table, filters, partial)
		if err != nil {
			return err
		}
		if onSuccess != nil {
			onSuccess(entities)
		}
		return nil
	})
}

// Destroy closes the Database and drops the store. It waits for submitted
// operations to finish first. Callbacks fire from a separate goroutine.
func (db *Database) Destroy(onSuccess func(), onError ErrorFunc) {
	go func() {
		if err := db.Drop(context.Background()); err != nil {
			db.fail("destroy", onError, err)
			return
		}
		if onSuccess != nil {
			onSuccess()
		}
	}()
}

// Drop closes the Database and drops the store.
func (db *Database) Drop(ctx context.Context) error {
	if err := db.Close(); err != nil {
		return err
	}
	return db.manager.Destroy(ctx)
}

// Close waits for queued operations, releases the pool and closes the
// store. Operations issued by callbacks while Close waits are rejected with
// ErrStoreClosed. Calling Close more than once returns the first result.
// Close must not be called from a callback; use Destroy there.
func (db *Database) Close() error {
	db.once.Do(func() {
		db.mu.Lock()
		db.closed = true
		db.mu.Unlock()

		db.pending.Wait()
		db.pool.Release()
		db.cancel()
		db.err = db.manager.Close()
	})
	return db.err
}

// submit queues fn and returns at once. A single pool task drains the
// queue, so operations run in submission order. Errors go to onError, or
// to the shared sink when onError is nil.
func (db *Database) submit(op string, onError ErrorFunc, fn func(ctx context.Context) error) {
	db.mu.Lock()
	if db.closed {
		db.mu.Unlock()
		db.fail(op, onError, storage.ErrStoreClosed)
		return
	}
	db.pending.Add(1)
	db.queue = append(db.queue, job{op: op, onError: onError, fn: fn})
	if db.draining {
		db.mu.Unlock()
		return
	}
	db.draining = true
	db.mu.Unlock()

	if err := db.pool.Submit(db.drain); err != nil {
		if errors.Is(err, ants.ErrPoolClosed) {
			err = storage.ErrStoreClosed
		}
		db.mu.Lock()
		queued := db.queue
		db.queue = nil
		db.draining = false
		db.mu.Unlock()
		for _, j := range queued {
			db.fail(j.op, j.onError, fmt.Errorf("%w: %w", storage.ErrRequestFailed, err))
			db.pending.Done()
		}
	}
}

// drain runs queued jobs until the queue is empty.
func (db *Database) drain() {
	for {
		db.mu.Lock()
		if len(db.queue) == 0 {
			db.draining = false
			db.mu.Unlock()
			return
		}
		j := db.queue[0]
		db.queue[0] = job{}
		db.queue = db.queue[1:]
		db.mu.Unlock()

		db.run(j)
		db.pending.Done()
	}
}

// run executes one job. A panic in the operation or its callback is
// reported as ErrRequestFailed instead of killing the worker.
func (db *Database) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			db.fail(j.op, j.onError, fmt.Errorf("%w: panic: %v", storage.ErrRequestFailed, r))
		}
	}()
	if err := j.fn(db.ctx); err != nil {
		db.fail(j.op, j.onError, err)
	}
}

func (db *Database) fail(op string, onError ErrorFunc, err error) {
	db.logger.Debug("database operation failed", "op", op, "err", err)
	if onError != nil {
		onError(err)
		return
	}
	db.OnError(err)
}
