package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/poiesic/notedb"
	"github.com/poiesic/notedb/core"
	"github.com/poiesic/notedb/schema"
	"github.com/poiesic/notedb/storage"
	"github.com/poiesic/notedb/storage/badger"
	"github.com/poiesic/notedb/transfer"
	"github.com/urfave/cli/v2"
)

// openDatabase opens the store configured by flags, environment and file.
func openDatabase(c *cli.Context) (*notedb.Database, error) {
	v, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	cfg, err := databaseConfig(v)
	if err != nil {
		return nil, err
	}
	return notedb.Open(c.Context, notedb.WithConfig(cfg))
}

// withDatabase runs fn on an open database and closes it afterwards.
func withDatabase(c *cli.Context, fn func(ctx context.Context, db *notedb.Database) error) (err error) {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); err == nil {
			err = closeErr
		}
	}()
	return fn(c.Context, db)
}

func initCommand(c *cli.Context) error {
	return withDatabase(c, func(ctx context.Context, db *notedb.Database) error {
		h := db.Handle()
		fmt.Fprintf(c.App.Writer, "store %s ready at version %d\n", h.Name(), h.Version())
		return nil
	})
}

func infoCommand(c *cli.Context) error {
	return withDatabase(c, func(ctx context.Context, db *notedb.Database) error {
		h := db.Handle()
		fp, err := h.Fingerprint()
		if err != nil {
			return err
		}
		w := c.App.Writer
		fmt.Fprintf(w, "store:       %s\n", h.Name())
		fmt.Fprintf(w, "version:     %d\n", h.Version())
		fmt.Fprintf(w, "fingerprint: %016x\n", fp)
		for _, t := range h.Tables() {
			count, err := db.Engine().Count(ctx, t.Table)
			if err != nil {
				return err
			}
			indexes := strings.Join(t.Indexes, ", ")
			if indexes == "" {
				indexes = "-"
			}
			fmt.Fprintf(w, "table %s (%s): %d records, indexes: %s\n", t.Table, t.ObjectType, count, indexes)
		}
		return nil
	})
}

func getCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("table is required")
	}
	table := c.Args().First()
	filters, err := parseFilters(c.Args().Tail())
	if err != nil {
		return err
	}

	return withDatabase(c, func(ctx context.Context, db *notedb.Database) error {
		var entities []core.Entity
		if index := c.String("index"); index != "" {
			value, ok := filters[index]
			if !ok || len(filters) != 1 {
				return fmt.Errorf("--index %s needs exactly one filter %s=value", index, index)
			}
			entities, err = db.Engine().GetByIndex(ctx, table, index, value)
		} else {
			entities, err = db.Engine().Get(ctx, table, filters)
		}
		if err != nil {
			return err
		}
		return printEntities(c.App.Writer, entities)
	})
}

func addCommand(c *cli.Context) error {
	table, rec, err := tableAndRecord(c)
	if err != nil {
		return err
	}
	return withDatabase(c, func(ctx context.Context, db *notedb.Database) error {
		if rec.ID(schema.PrimaryKey) == 0 {
			id, err := db.Engine().NextID(ctx, table)
			if err != nil {
				return err
			}
			rec[schema.PrimaryKey] = id
		}
		entity, err := db.Handle().Registry().Unserialize(table, rec)
		if err != nil {
			return err
		}
		if err := db.Engine().Add(ctx, table, entity); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "added %s/%d\n", table, entity.GetID())
		return nil
	})
}

func updateCommand(c *cli.Context) error {
	table, rec, err := tableAndRecord(c)
	if err != nil {
		return err
	}
	return withDatabase(c, func(ctx context.Context, db *notedb.Database) error {
		entity, err := db.Handle().Registry().Unserialize(table, rec)
		if err != nil {
			return err
		}
		if err := db.Engine().Update(ctx, table, entity); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "updated %s/%d\n", table, entity.GetID())
		return nil
	})
}

func removeCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: remove TABLE ID")
	}
	table := c.Args().Get(0)
	id, err := strconv.ParseUint(c.Args().Get(1), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", c.Args().Get(1), err)
	}
	return withDatabase(c, func(ctx context.Context, db *notedb.Database) error {
		if err := db.Engine().Remove(ctx, table, core.ID(id)); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "removed %s/%d\n", table, id)
		return nil
	})
}

func updateMultipleCommand(c *cli.Context) error {
	table, partial, err := tableAndRecord(c)
	if err != nil {
		return err
	}
	filters, err := parseFilters(c.Args().Slice()[2:])
	if err != nil {
		return err
	}
	return withDatabase(c, func(ctx context.Context, db *notedb.Database) error {
		updated, err := db.Engine().UpdateMultiple(ctx, table, filters, partial)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "updated %d records in %s\n", len(updated), table)
		return nil
	})
}

func exportCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: export TABLE")
	}
	table := c.Args().First()

	w := c.App.Writer
	if out := c.String("out"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	return withDatabase(c, func(ctx context.Context, db *notedb.Database) error {
		_, err := transfer.Export(ctx, db.Engine(), table, w,
			transfer.WithProgress(c.App.ErrWriter, c.Int("report-interval")))
		return err
	})
}

func importCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: import TABLE FILE")
	}
	table := c.Args().Get(0)
	f, err := os.Open(c.Args().Get(1))
	if err != nil {
		return err
	}
	defer f.Close()

	return withDatabase(c, func(ctx context.Context, db *notedb.Database) error {
		n, err := transfer.Import(ctx, db.Engine(), db.Handle().Registry(), table, f,
			transfer.WithBatchSize(c.Int("batch-size")),
			transfer.WithProgress(c.App.ErrWriter, c.Int("report-interval")),
			transfer.WithRetry(c.Int("max-retries"), c.Duration("retry-delay")))
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "imported %d records into %s\n", n, table)
		return nil
	})
}

func destroyCommand(c *cli.Context) error {
	if !c.Bool("yes") {
		return fmt.Errorf("refusing to destroy the store without --yes")
	}
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	if err := db.Drop(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "store destroyed")
	return nil
}

func statsCommand(c *cli.Context) error {
	return withDatabase(c, func(ctx context.Context, db *notedb.Database) error {
		for _, t := range db.Handle().Tables() {
			if _, err := db.Engine().Count(ctx, t.Table); err != nil {
				return err
			}
		}
		badger.WriteMetrics(c.App.Writer)
		return nil
	})
}

// tableAndRecord reads the TABLE and JSON arguments.
func tableAndRecord(c *cli.Context) (string, core.Record, error) {
	if c.NArg() < 2 {
		return "", nil, fmt.Errorf("table and JSON record are required")
	}
	rec, err := storage.UnmarshalRecord([]byte(c.Args().Get(1)))
	if err != nil {
		return "", nil, fmt.Errorf("invalid record: %w", err)
	}
	return c.Args().Get(0), rec, nil
}

// parseFilters turns field=value arguments into filters. Values that parse
// as JSON (numbers, booleans, quoted strings) keep their type; anything else
// is a plain string.
func parseFilters(args []string) (storage.Filters, error) {
	filters := storage.Filters{}
	for _, arg := range args {
		field, raw, ok := strings.Cut(arg, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid filter %q: want field=value", arg)
		}
		filters[field] = parseValue(raw)
	}
	return filters, nil
}

func parseValue(raw string) any {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw
	}
	return v
}

func printEntities(w io.Writer, entities []core.Entity) error {
	var buf bytes.Buffer
	for _, e := range entities {
		data, err := storage.MarshalRecord(e.Record())
		if err != nil {
			return err
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	_, err := w.Write(buf.Bytes())
	return err
}
