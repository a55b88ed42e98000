package main

import (
	"bytes"
	"fmt"
	"go/format"
	"text/template"

	"github.com/poiesic/notedb/schema"
)

// entity is the template view of one table.
type entity struct {
	Table string
	Type  string
}

// Plural names the collection accessor and the Get method.
func (e entity) Plural() string {
	return e.Type + "s"
}

var facadeTemplate = template.Must(template.New("facade").Parse(`// Code generated by facadegen. DO NOT EDIT.

package {{.Package}}

import (
	"github.com/poiesic/notedb/core"
	"github.com/poiesic/notedb/storage"
)
{{range .Entities}}
// Get{{.Plural}} passes the {{.Table}} entries matching filters to onSuccess.
func (db *Database) Get{{.Plural}}(filters storage.Filters, onSuccess func([]*core.{{.Type}}), onError ErrorFunc) {
	getAs(db, "{{.Table}}", filters, onSuccess, onError)
}

// Add{{.Type}} inserts v into {{.Table}}.
func (db *Database) Add{{.Type}}(v *core.{{.Type}}, onSuccess func(*core.{{.Type}}), onError ErrorFunc) {
	db.Add("{{.Table}}", v, writeAs(onSuccess), onError)
}

// Update{{.Type}} upserts v into {{.Table}}.
func (db *Database) Update{{.Type}}(v *core.{{.Type}}, onSuccess func(*core.{{.Type}}), onError ErrorFunc) {
	db.Update("{{.Table}}", v, writeAs(onSuccess), onError)
}

// Remove{{.Type}} deletes v from {{.Table}}.
func (db *Database) Remove{{.Type}}(v *core.{{.Type}}, onSuccess func(), onError ErrorFunc) {
	removeAs(db, "{{.Table}}", v, onSuccess, onError)
}

// {{.Plural}} returns the typed collection of {{.Table}}.
func (db *Database) {{.Plural}}() *Collection[*core.{{.Type}}] {
	return NewCollection[*core.{{.Type}}](db.engine, "{{.Table}}")
}
{{end}}`))

// generate renders the facade for every table of the registry.
func generate(pkg string, registry *schema.Registry) ([]byte, error) {
	data := struct {
		Package  string
		Entities []entity
	}{Package: pkg}
	for _, d := range registry.Tables() {
		data.Entities = append(data.Entities, entity{Table: d.Name, Type: d.ObjectType})
	}

	var buf bytes.Buffer
	if err := facadeTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering facade: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting facade: %w", err)
	}
	return src, nil
}
