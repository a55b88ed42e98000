package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/notedb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// run executes the CLI against dir and returns what it printed.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}
	full := append([]string{"notedb", "--log-level", "error", "--db", dir}, args...)
	err := app.Run(full)
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := run(t, dir, args...)
	require.NoError(t, err, "notedb %s", strings.Join(args, " "))
	return out
}

func TestCLI_RecordLifecycle(t *testing.T) {
	dir := t.TempDir()

	assert.Contains(t, mustRun(t, dir, "init"), "ready at version")

	mustRun(t, dir, "add", "notebooks", `{"id":1,"user_id":42,"name":"Trip"}`)
	out := mustRun(t, dir, "add", "notebooks", `{"user_id":42,"name":"Work"}`)
	assert.Contains(t, out, "added notebooks/")

	out = mustRun(t, dir, "get", "notebooks", "user_id=42")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"name":"Trip"`)

	out = mustRun(t, dir, "get", "--index", "user_id", "notebooks", "user_id=42")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)

	mustRun(t, dir, "update", "notebooks", `{"id":1,"user_id":42,"name":"Holiday"}`)
	out = mustRun(t, dir, "get", "notebooks", "id=1")
	assert.Contains(t, out, `"name":"Holiday"`)

	out = mustRun(t, dir, "update-multiple", "notebooks", `{"user_id":7}`, "user_id=42")
	assert.Contains(t, out, "updated 2 records")
	assert.Empty(t, strings.TrimSpace(mustRun(t, dir, "get", "notebooks", "user_id=42")))

	mustRun(t, dir, "remove", "notebooks", "1")
	assert.Empty(t, strings.TrimSpace(mustRun(t, dir, "get", "notebooks", "id=1")))

	_, err := run(t, dir, "add", "notebooks", `{"id":1,"name":"again"}`)
	require.NoError(t, err)
	_, err = run(t, dir, "add", "notebooks", `{"id":1,"name":"again"}`)
	assert.ErrorContains(t, err, "duplicate key")
}

func TestCLI_ExportImport(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	file := filepath.Join(t.TempDir(), "users.jsonl")

	mustRun(t, src, "add", "users", `{"id":1,"username":"ada"}`)
	mustRun(t, src, "add", "users", `{"id":2,"username":"grace"}`)
	mustRun(t, src, "export", "--out", file, "users")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 2)

	out := mustRun(t, dst, "import", "users", file)
	assert.Contains(t, out, "imported 2 records into users")
	assert.Contains(t, mustRun(t, dst, "get", "users", "username=grace"), `"id":2`)
}

func TestCLI_InfoAndStats(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "add", "notes", `{"id":1,"notebook_id":1,"name":"n"}`)

	out := mustRun(t, dir, "info")
	assert.Contains(t, out, "store:       EVME_Notes")
	assert.Contains(t, out, "table notes (Note): 1 records, indexes: notebook_id, name")
	assert.Contains(t, out, "table users (User): 0 records, indexes: -")

	out = mustRun(t, dir, "stats")
	assert.Contains(t, out, `notedb_ops_total{op="count",table="notes"}`)
}

func TestCLI_Destroy(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "add", "users", `{"id":1}`)

	_, err := run(t, dir, "destroy")
	assert.ErrorContains(t, err, "--yes")

	assert.Contains(t, mustRun(t, dir, "destroy", "--yes"), "store destroyed")
	assert.Contains(t, mustRun(t, dir, "info"), "table users (User): 0 records")
}

func TestCLI_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "get", "missing")
	assert.ErrorContains(t, err, "unknown table")

	_, err = run(t, dir, "get", "users", "novalue")
	assert.ErrorContains(t, err, "field=value")

	_, err = run(t, dir, "remove", "users", "abc")
	assert.ErrorContains(t, err, "invalid id")

	_, err = run(t, dir, "add", "users", `[1,2]`)
	assert.ErrorContains(t, err, "invalid record")

	_, err = run(t, dir, "--log-level", "loud", "info")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestParseFilters(t *testing.T) {
	filters, err := parseFilters([]string{"id=3", "name=plain text", "done=true", `title="quoted"`})
	require.NoError(t, err)
	assert.Equal(t, "3", filters["id"].(interface{ String() string }).String())
	assert.Equal(t, "plain text", filters["name"])
	assert.Equal(t, true, filters["done"])
	assert.Equal(t, "quoted", filters["title"])

	_, err = parseFilters([]string{"=x"})
	assert.Error(t, err)
}

// resolveConfig runs the CLI with args and returns the resolved config.
func resolveConfig(t *testing.T, args ...string) *notedb.Config {
	t.Helper()
	app := newApp()
	var cfg *notedb.Config
	app.Action = func(c *cli.Context) error {
		v, err := loadConfig(c)
		if err != nil {
			return err
		}
		cfg, err = databaseConfig(v)
		return err
	}
	require.NoError(t, app.Run(append([]string{"notedb"}, args...)))
	return cfg
}

func TestDatabaseConfig(t *testing.T) {
	t.Setenv("NOTEDB_DB", "/tmp/from-env")
	t.Setenv("NOTEDB_NAME", "Other_Notes")

	cfg := resolveConfig(t)
	assert.Equal(t, "/tmp/from-env", cfg.Path)
	assert.Equal(t, "Other_Notes", cfg.Name)

	cfg = resolveConfig(t, "--db", "/tmp/from-flag")
	assert.Equal(t, "/tmp/from-flag", cfg.Path)
}

func TestDatabaseConfig_File(t *testing.T) {
	file := filepath.Join(t.TempDir(), "notedb.yaml")
	require.NoError(t, os.WriteFile(file, []byte("db: /tmp/from-file\nversion: 9\n"), 0644))

	cfg := resolveConfig(t, "--config", file)
	assert.Equal(t, "/tmp/from-file", cfg.Path)
	assert.Equal(t, uint64(9), cfg.Version)
}

func TestDatabaseConfig_MissingPath(t *testing.T) {
	t.Setenv("NOTEDB_DB", "")

	app := newApp()
	app.Action = func(c *cli.Context) error {
		v, err := loadConfig(c)
		if err != nil {
			return err
		}
		_, err = databaseConfig(v)
		return err
	}
	err := app.Run([]string{"notedb"})
	assert.ErrorContains(t, err, "database path is required")
}
