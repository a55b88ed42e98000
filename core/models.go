package core

import "time"

// ID is the primary key of every stored entity.
type ID uint64

// Entity is a domain object the store can persist.
//
// Record returns only the persisted fields, keyed by their persisted names.
// Every other field on the implementing type is transient and does not
// survive a write/read cycle. Set bulk-assigns persisted fields by the same
// names; unknown names are ignored.
//
// Records round-trip exactly. Times are stored as Unix milliseconds, so a
// time.Time read back from a record is truncated to the millisecond and in UTC.
type Entity interface {
	GetID() ID
	Record() Record
	Set(partial Record)
}

var (
	_ Entity = (*Note)(nil)
	_ Entity = (*Notebook)(nil)
	_ Entity = (*User)(nil)
	_ Entity = (*NoteResource)(nil)
)

// Note is a single note inside a notebook.
type Note struct {
	Id         ID
	NotebookId ID
	Name       string
	Content    string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Dirty marks unsaved edits held by the UI.
	Dirty bool
}

// NewNoteFromRecord builds a Note from a stored record.
func NewNoteFromRecord(r Record) *Note {
	n := &Note{}
	n.Set(r)
	return n
}

func (n *Note) GetID() ID { return n.Id }

func (n *Note) Record() Record {
	return Record{
		"id":          n.Id,
		"notebook_id": n.NotebookId,
		"name":        n.Name,
		"content":     n.Content,
		"created_at":  Millis(n.CreatedAt),
		"updated_at":  Millis(n.UpdatedAt),
	}
}

func (n *Note) Set(r Record) {
	if r.Has("id") {
		n.Id = r.ID("id")
	}
	if r.Has("notebook_id") {
		n.NotebookId = r.ID("notebook_id")
	}
	if r.Has("name") {
		n.Name = r.String("name")
	}
	if r.Has("content") {
		n.Content = r.String("content")
	}
	if r.Has("created_at") {
		n.CreatedAt = r.Time("created_at")
	}
	if r.Has("updated_at") {
		n.UpdatedAt = r.Time("updated_at")
	}
}

// Notebook groups notes and belongs to a user.
type Notebook struct {
	Id        ID
	UserId    ID
	Name      string
	CreatedAt time.Time

	// NoteCount is computed by the UI from the notes table.
	NoteCount int
}

// NewNotebookFromRecord builds a Notebook from a stored record.
func NewNotebookFromRecord(r Record) *Notebook {
	nb := &Notebook{}
	nb.Set(r)
	return nb
}

func (nb *Notebook) GetID() ID { return nb.Id }

func (nb *Notebook) Record() Record {
	return Record{
		"id":         nb.Id,
		"user_id":    nb.UserId,
		"name":       nb.Name,
		"created_at": Millis(nb.CreatedAt),
	}
}

func (nb *Notebook) Set(r Record) {
	if r.Has("id") {
		nb.Id = r.ID("id")
	}
	if r.Has("user_id") {
		nb.UserId = r.ID("user_id")
	}
	if r.Has("name") {
		nb.Name = r.String("name")
	}
	if r.Has("created_at") {
		nb.CreatedAt = r.Time("created_at")
	}
}

// User owns notebooks.
type User struct {
	Id        ID
	Username  string
	Email     string
	CreatedAt time.Time
}

// NewUserFromRecord builds a User from a stored record.
func NewUserFromRecord(r Record) *User {
	u := &User{}
	u.Set(r)
	return u
}

func (u *User) GetID() ID { return u.Id }

func (u *User) Record() Record {
	return Record{
		"id":         u.Id,
		"username":   u.Username,
		"email":      u.Email,
		"created_at": Millis(u.CreatedAt),
	}
}

func (u *User) Set(r Record) {
	if r.Has("id") {
		u.Id = r.ID("id")
	}
	if r.Has("username") {
		u.Username = r.String("username")
	}
	if r.Has("email") {
		u.Email = r.String("email")
	}
	if r.Has("created_at") {
		u.CreatedAt = r.Time("created_at")
	}
}

// NoteResource is a binary attachment of a note (image, audio, ...).
type NoteResource struct {
	Id       ID
	NoteId   ID
	MimeType string
	Filename string
	Data     []byte
}

// NewNoteResourceFromRecord builds a NoteResource from a stored record.
func NewNoteResourceFromRecord(r Record) *NoteResource {
	res := &NoteResource{}
	res.Set(r)
	return res
}

func (res *NoteResource) GetID() ID { return res.Id }

func (res *NoteResource) Record() Record {
	return Record{
		"id":        res.Id,
		"note_id":   res.NoteId,
		"mime_type": res.MimeType,
		"filename":  res.Filename,
		"data":      res.Data,
	}
}

func (res *NoteResource) Set(r Record) {
	if r.Has("id") {
		res.Id = r.ID("id")
	}
	if r.Has("note_id") {
		res.NoteId = r.ID("note_id")
	}
	if r.Has("mime_type") {
		res.MimeType = r.String("mime_type")
	}
	if r.Has("filename") {
		res.Filename = r.String("filename")
	}
	if r.Has("data") {
		res.Data = r.Bytes("data")
	}
}
