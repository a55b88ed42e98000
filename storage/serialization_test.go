package storage

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/poiesic/notedb/core"
	"github.com/poiesic/notedb/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalUint64(t *testing.T) {
	tests := []struct {
		name string
		v    uint64
	}{
		{"zero", 0},
		{"schema version", 3},
		{"max uint64", 18446744073709551615},
		{"fingerprint", schema.Default().Fingerprint()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalUint64(tt.v)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalUint64(data)
			require.NoError(t, err)
			assert.Equal(t, tt.v, decoded)
		})
	}
}

func TestUnmarshalUint64_Invalid(t *testing.T) {
	_, err := UnmarshalUint64([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalCatalogEntry(t *testing.T) {
	tests := []struct {
		name  string
		entry CatalogEntry
	}{
		{"two indexes", CatalogEntry{Table: "notes", ObjectType: "Note", Indexes: []string{"notebook_id", "name"}}},
		{"no indexes", CatalogEntry{Table: "users", ObjectType: "User"}},
		{"unicode", CatalogEntry{Table: "notizen", ObjectType: "Notiz", Indexes: []string{"größe"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalCatalogEntry(tt.entry)
			decoded, err := UnmarshalCatalogEntry(data)
			require.NoError(t, err)
			assert.Equal(t, tt.entry, decoded)
		})
	}
}

func TestUnmarshalCatalogEntry_Truncated(t *testing.T) {
	data := MarshalCatalogEntry(CatalogEntry{Table: "notes", ObjectType: "Note", Indexes: []string{"notebook_id", "name"}})

	for _, cut := range []int{0, 3, len(data) - 1} {
		_, err := UnmarshalCatalogEntry(data[:cut])
		assert.Error(t, err, "cut at %d", cut)
	}
}

func TestUnmarshalRecord(t *testing.T) {
	rec, err := UnmarshalRecord([]byte(`{"id":18446744073709551615,"name":"Trip","tags":["a"]}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("18446744073709551615"), rec["id"])
	assert.Equal(t, core.ID(18446744073709551615), rec.ID("id"))
	assert.Equal(t, "Trip", rec["name"])
	assert.Equal(t, []any{"a"}, rec["tags"])

	for _, bad := range []string{``, `null`, `[1]`, `{"id":`} {
		_, err := UnmarshalRecord([]byte(bad))
		assert.ErrorIs(t, err, ErrSerializationFailed, "input %q", bad)
	}
}

func TestMarshalRecord_Unsupported(t *testing.T) {
	_, err := MarshalRecord(core.Record{"ch": make(chan int)})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestSerializeEntity_RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	tests := []struct {
		table  string
		entity core.Entity
	}{
		{"notes", &core.Note{Id: 1, NotebookId: 5, Name: "n", Content: "c", CreatedAt: now, UpdatedAt: now}},
		{"notebooks", &core.Notebook{Id: 1, UserId: 42, Name: "Trip", CreatedAt: now}},
		{"users", &core.User{Id: 42, Username: "ada", Email: "ada@example.com", CreatedAt: now}},
		{"noteResource", &core.NoteResource{Id: 8, NoteId: 1, MimeType: "text/plain", Filename: "a.txt", Data: []byte("hi")}},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			rec, data, err := SerializeEntity(tt.entity)
			require.NoError(t, err)
			require.NotEmpty(t, data)

			back, err := schema.Default().Unserialize(tt.table, rec)
			require.NoError(t, err)
			assert.Equal(t, tt.entity.Record(), back.Record())
		})
	}
}

func TestSerializeEntity_DropsTransientFields(t *testing.T) {
	nb := &core.Notebook{Id: 1, UserId: 42, Name: "Trip", NoteCount: 12}
	rec, _, err := SerializeEntity(nb)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"id", "user_id", "name", "created_at"}, keys(rec))
}

func TestNormalizeValue(t *testing.T) {
	for _, v := range []any{42, int64(42), uint64(42), core.ID(42), 42.0, json.Number("42")} {
		n, err := NormalizeValue(v)
		require.NoError(t, err)
		assert.Equal(t, json.Number("42"), n, "value %#v", v)
	}

	n, err := NormalizeValue("Trip")
	require.NoError(t, err)
	assert.Equal(t, "Trip", n)

	n, err = NormalizeValue(nil)
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestMarshalIndexValue_NoZeroByte(t *testing.T) {
	data, err := MarshalIndexValue("a\x00b")
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\x00")
}

func keys(rec core.Record) []string {
	out := make([]string, 0, len(rec))
	for k := range rec {
		out = append(out, k)
	}
	return out
}
