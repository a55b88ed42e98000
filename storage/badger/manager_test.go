package badger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/poiesic/notedb/core"
	"github.com/poiesic/notedb/schema"
	"github.com/poiesic/notedb/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// notesOnly is an early schema with a single unindexed table.
func notesOnly(t *testing.T) *schema.Registry {
	t.Helper()
	r, err := schema.NewRegistry(schema.TableDescriptor{
		Name:       "notes",
		ObjectType: "Note",
		New:        func(r core.Record) core.Entity { return core.NewNoteFromRecord(r) },
	})
	require.NoError(t, err)
	return r
}

func TestNewManager_Validation(t *testing.T) {
	_, err := NewManager(nil, WithInMemory())
	assert.ErrorIs(t, err, ErrRegistryRequired)

	_, err = NewManager(schema.Default())
	assert.ErrorIs(t, err, ErrLocationRequired)

	_, err = NewManager(schema.Default(), WithInMemory(), WithVersion(0))
	assert.ErrorIs(t, err, ErrInvalidVersion)

	m, err := NewManager(schema.Default(), WithInMemory())
	require.NoError(t, err)
	assert.Equal(t, schema.StoreName, m.name)
	assert.Equal(t, uint64(schema.Version), m.version)
}

func TestManager_OpenFreshStore(t *testing.T) {
	ctx := context.Background()
	m, err := NewManager(schema.Default(), WithInMemory())
	require.NoError(t, err)
	defer m.Close()

	h, err := m.Open(ctx)
	require.NoError(t, err)
	assert.Equal(t, schema.StoreName, h.Name())
	assert.Equal(t, uint64(schema.Version), h.Version())

	// Every declared table exists with exactly its declared indexes
	tables := h.Tables()
	require.Len(t, tables, len(schema.Default().Tables()))
	for _, d := range schema.Default().Tables() {
		indexes, err := h.Indexes(d.Name)
		require.NoError(t, err)
		assert.ElementsMatch(t, d.Indexes, indexes, "table %s", d.Name)
	}

	fp, err := h.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, schema.Default().Fingerprint(), fp)

	_, err = h.Indexes("missing")
	assert.ErrorIs(t, err, storage.ErrUnknownTable)
}

func TestManager_OpenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m, err := NewManager(schema.Default(), WithInMemory())
	require.NoError(t, err)
	defer m.Close()

	first, err := m.Open(ctx)
	require.NoError(t, err)
	second, err := m.Open(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Same(t, first, m.Handle())
}

func TestManager_CloseAndReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	m, err := NewManager(schema.Default(), WithPath(dir))
	require.NoError(t, err)
	h, err := m.Open(ctx)
	require.NoError(t, err)
	e, err := NewEngine(h)
	require.NoError(t, err)
	require.NoError(t, e.Add(ctx, "users", &core.User{Id: 1, Username: "ada"}))

	require.NoError(t, m.Close())
	assert.True(t, h.IsClosed())
	assert.Nil(t, m.Handle())

	_, err = e.Get(ctx, "users", nil)
	assert.ErrorIs(t, err, storage.ErrStoreClosed)

	h, err = m.Open(ctx)
	require.NoError(t, err)
	defer m.Close()
	e, err = NewEngine(h)
	require.NoError(t, err)

	users, err := e.Get(ctx, "users", nil)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "ada", users[0].(*core.User).Username)
}

func TestManager_UpgradeBackfillsIndexes(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	old, err := NewManager(notesOnly(t), WithPath(dir), WithVersion(1))
	require.NoError(t, err)
	h, err := old.Open(ctx)
	require.NoError(t, err)
	assert.Len(t, h.Tables(), 1)

	e, err := NewEngine(h)
	require.NoError(t, err)
	require.NoError(t, e.Add(ctx, "notes", &core.Note{Id: 1, NotebookId: 7, Name: "a"}))
	require.NoError(t, e.Add(ctx, "notes", &core.Note{Id: 2, NotebookId: 8, Name: "b"}))
	require.NoError(t, e.Add(ctx, "notes", &core.Note{Id: 3, NotebookId: 7, Name: "c"}))
	require.NoError(t, old.Close())

	m, err := NewManager(schema.Default(), WithPath(dir))
	require.NoError(t, err)
	defer m.Close()
	h, err = m.Open(ctx)
	require.NoError(t, err)
	assert.Len(t, h.Tables(), 4)

	indexes, err := h.Indexes("notes")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"notebook_id", "name"}, indexes)

	e, err = NewEngine(h)
	require.NoError(t, err)
	notes, err := e.GetByIndex(ctx, "notes", "notebook_id", 7)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, core.ID(1), notes[0].GetID())
	assert.Equal(t, core.ID(3), notes[1].GetID())

	// Existing records survive the upgrade
	count, err := e.Count(ctx, "notes")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestManager_NewerStoredVersionFails(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	m, err := NewManager(schema.Default(), WithPath(dir), WithVersion(5))
	require.NoError(t, err)
	_, err = m.Open(ctx)
	require.NoError(t, err)
	require.NoError(t, m.Close())

	older, err := NewManager(schema.Default(), WithPath(dir), WithVersion(4))
	require.NoError(t, err)
	_, err = older.Open(ctx)
	assert.ErrorIs(t, err, storage.ErrOpenFailed)
	assert.Nil(t, older.Handle())
}

func TestManager_UpgradeBlocked(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := NewManager(notesOnly(t), WithPath(dir), WithVersion(1))
	require.NoError(t, err)
	_, err = first.Open(ctx)
	require.NoError(t, err)
	defer first.Close()

	second, err := NewManager(schema.Default(), WithPath(dir), WithVersion(2))
	require.NoError(t, err)
	_, err = second.Open(ctx)
	assert.ErrorIs(t, err, storage.ErrUpgradeBlocked)

	// A connection at the same version is not blocked
	same, err := NewManager(notesOnly(t), WithPath(dir), WithVersion(1))
	require.NoError(t, err)
	_, err = same.Open(ctx)
	require.NoError(t, err)
	require.NoError(t, same.Close())

	// Once the other connection closes the upgrade goes through
	require.NoError(t, first.Close())
	h, err := second.Open(ctx)
	require.NoError(t, err)
	defer second.Close()
	assert.Equal(t, uint64(2), h.Version())
}

func TestManager_FingerprintMismatchWarns(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	m, err := NewManager(notesOnly(t), WithPath(dir), WithVersion(1))
	require.NoError(t, err)
	_, err = m.Open(ctx)
	require.NoError(t, err)
	require.NoError(t, m.Close())

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	changed, err := NewManager(schema.Default(), WithPath(dir), WithVersion(1), WithLogger(logger))
	require.NoError(t, err)
	h, err := changed.Open(ctx)
	require.NoError(t, err)
	defer changed.Close()

	assert.Contains(t, buf.String(), "schema changed without a version bump")
	// No upgrade ran, so only the original table exists
	assert.Len(t, h.Tables(), 1)
}

func TestManager_Destroy(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	m, err := NewManager(schema.Default(), WithPath(dir))
	require.NoError(t, err)
	h, err := m.Open(ctx)
	require.NoError(t, err)
	e, err := NewEngine(h)
	require.NoError(t, err)
	require.NoError(t, e.Add(ctx, "notes", &core.Note{Id: 1, NotebookId: 1, Name: "gone"}))

	require.NoError(t, m.Destroy(ctx))
	assert.True(t, h.IsClosed())

	h, err = m.Open(ctx)
	require.NoError(t, err)
	defer m.Close()
	e, err = NewEngine(h)
	require.NoError(t, err)

	count, err := e.Count(ctx, "notes")
	require.NoError(t, err)
	assert.Zero(t, count)
	notes, err := e.GetByIndex(ctx, "notes", "name", "gone")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestManager_DestroyBlocked(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	other, err := NewManager(schema.Default(), WithPath(dir))
	require.NoError(t, err)
	_, err = other.Open(ctx)
	require.NoError(t, err)
	defer other.Close()

	m, err := NewManager(schema.Default(), WithPath(dir))
	require.NoError(t, err)
	_, err = m.Open(ctx)
	require.NoError(t, err)

	err = m.Destroy(ctx)
	assert.ErrorIs(t, err, storage.ErrUpgradeBlocked)
}

func TestManager_DestroyKeepsOtherStores(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	keep, err := NewManager(schema.Default(), WithPath(dir), WithName("Keep"))
	require.NoError(t, err)
	h, err := keep.Open(ctx)
	require.NoError(t, err)
	e, err := NewEngine(h)
	require.NoError(t, err)
	require.NoError(t, e.Add(ctx, "users", &core.User{Id: 1, Username: "kept"}))
	require.NoError(t, keep.Close())

	drop, err := NewManager(schema.Default(), WithPath(dir), WithName("Drop"))
	require.NoError(t, err)
	require.NoError(t, drop.Destroy(ctx))

	h, err = keep.Open(ctx)
	require.NoError(t, err)
	defer keep.Close()
	e, err = NewEngine(h)
	require.NoError(t, err)
	count, err := e.Count(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
