package schema

import "github.com/poiesic/notedb/core"

const (
	// StoreName is the name the notes store is persisted under.
	StoreName = "EVME_Notes"

	// Version is the pinned schema version. Bump it whenever a table or
	// index is added so existing stores run the upgrade step.
	Version = 3
)

var defaultRegistry = mustRegistry(
	TableDescriptor{
		Name:       "notes",
		ObjectType: "Note",
		Indexes:    []string{"notebook_id", "name"},
		New:        func(r core.Record) core.Entity { return core.NewNoteFromRecord(r) },
	},
	TableDescriptor{
		Name:       "noteResource",
		ObjectType: "NoteResource",
		Indexes:    []string{"note_id"},
		New:        func(r core.Record) core.Entity { return core.NewNoteResourceFromRecord(r) },
	},
	TableDescriptor{
		Name:       "notebooks",
		ObjectType: "Notebook",
		Indexes:    []string{"user_id"},
		New:        func(r core.Record) core.Entity { return core.NewNotebookFromRecord(r) },
	},
	TableDescriptor{
		Name:       "users",
		ObjectType: "User",
		New:        func(r core.Record) core.Entity { return core.NewUserFromRecord(r) },
	},
)

// Default returns the notes application schema.
func Default() *Registry {
	return defaultRegistry
}

func mustRegistry(tables ...TableDescriptor) *Registry {
	r, err := NewRegistry(tables...)
	if err != nil {
		panic(err)
	}
	return r
}
