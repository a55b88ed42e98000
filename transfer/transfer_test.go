package transfer

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/notedb/core"
	"github.com/poiesic/notedb/schema"
	"github.com/poiesic/notedb/storage"
	"github.com/poiesic/notedb/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEngine(t *testing.T) *badger.Engine {
	t.Helper()
	e, m, err := badger.NewMemoryEngine()
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return e
}

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := setupEngine(t)

	created := time.UnixMilli(1700000000000).UTC()
	for i := 1; i <= 5; i++ {
		require.NoError(t, src.Add(ctx, "notes", &core.Note{
			Id:         core.ID(i),
			NotebookId: core.ID(i % 2),
			Name:       fmt.Sprintf("note %d", i),
			CreatedAt:  created,
		}))
	}

	var buf bytes.Buffer
	var progress bytes.Buffer
	n, err := Export(ctx, src, "notes", &buf, WithProgress(&progress, 2))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Len(t, strings.Split(strings.TrimSpace(buf.String()), "\n"), 5)
	assert.Contains(t, progress.String(), "Exported: 5/5")

	dst := setupEngine(t)
	n, err = Import(ctx, dst, schema.Default(), "notes", bytes.NewReader(buf.Bytes()), WithBatchSize(2))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	want, err := src.Get(ctx, "notes", nil)
	require.NoError(t, err)
	got, err := dst.Get(ctx, "notes", nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Indexes are maintained on import
	odd, err := dst.GetByIndex(ctx, "notes", "notebook_id", 1)
	require.NoError(t, err)
	assert.Len(t, odd, 3)

	// Importing again is an upsert
	n, err = Import(ctx, dst, schema.Default(), "notes", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	count, err := dst.Count(ctx, "notes")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestImport_InvalidLineWritesNothing(t *testing.T) {
	ctx := context.Background()
	e := setupEngine(t)

	input := `{"id":1,"username":"ok"}

{"id":2,"username":
`
	n, err := Import(ctx, e, schema.Default(), "users", strings.NewReader(input))
	assert.ErrorIs(t, err, ErrInvalidLine)
	assert.Contains(t, err.Error(), "line 3")
	assert.Zero(t, n)

	count, err := e.Count(ctx, "users")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestImport_ZeroIDRejected(t *testing.T) {
	e := setupEngine(t)

	_, err := Import(context.Background(), e, schema.Default(), "users", strings.NewReader(`{"username":"no id"}`))
	assert.ErrorIs(t, err, ErrInvalidLine)
	assert.ErrorIs(t, err, core.ErrZeroID)
}

func TestImport_UnknownTable(t *testing.T) {
	e := setupEngine(t)

	_, err := Import(context.Background(), e, schema.Default(), "missing", strings.NewReader(""))
	assert.ErrorIs(t, err, storage.ErrUnknownTable)

	_, err = Import(context.Background(), e, nil, "users", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrRegistryRequired)
}

// flakyEngine fails the first Update calls with a transaction failure.
type flakyEngine struct {
	storage.Engine
	mu       sync.Mutex
	failures int
	updates  int
}

func (f *flakyEngine) Update(ctx context.Context, table string, entity core.Entity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.failures > 0 {
		f.failures--
		return fmt.Errorf("%w: conflict", storage.ErrTransactionFailed)
	}
	return f.Engine.Update(ctx, table, entity)
}

func TestImport_Retry(t *testing.T) {
	ctx := context.Background()
	flaky := &flakyEngine{Engine: setupEngine(t), failures: 2}

	input := `{"id":1,"username":"a"}
{"id":2,"username":"b"}`
	n, err := Import(ctx, flaky, schema.Default(), "users", strings.NewReader(input), WithRetry(3, time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 4, flaky.updates)

	count, err := flaky.Count(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestImport_NoRetryByDefault(t *testing.T) {
	flaky := &flakyEngine{Engine: setupEngine(t), failures: 1}

	n, err := Import(context.Background(), flaky, schema.Default(), "users", strings.NewReader(`{"id":1}`))
	assert.ErrorIs(t, err, storage.ErrTransactionFailed)
	assert.Zero(t, n)
	assert.Equal(t, 1, flaky.updates)
}
