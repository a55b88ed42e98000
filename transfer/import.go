package transfer

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/poiesic/notedb/core"
	"github.com/poiesic/notedb/schema"
	"github.com/poiesic/notedb/storage"
)

// Import upserts every record read from r into table. Blank lines are
// skipped. Nothing is written unless every line parses into a valid entity.
// Returns the number of records written.
func Import(ctx context.Context, engine storage.Engine, registry *schema.Registry, table string, r io.Reader, opts ...Option) (int, error) {
	if registry == nil {
		return 0, ErrRegistryRequired
	}
	o := newOptions(opts)

	d, err := registry.Lookup(table)
	if err != nil {
		return 0, err
	}
	entities, err := readEntities(r, d)
	if err != nil {
		return 0, err
	}

	progress := o.tracker("Imported", len(entities))
	if progress != nil {
		progress.Start()
		defer progress.Finish()
	}

	written := 0
	for start := 0; start < len(entities); start += o.batchSize {
		batch := entities[start:min(start+o.batchSize, len(entities))]
		err := RetryWithBackoff(ctx, func() error {
			for _, e := range batch {
				if err := engine.Update(ctx, table, e); err != nil {
					return err
				}
			}
			return nil
		}, o.maxAttempts, o.baseDelay)
		if err != nil {
			o.logger.Error("import failed", "table", table, "written", written, "err", err)
			return written, err
		}
		written += len(batch)
		if progress != nil {
			progress.Increment(len(batch))
		}
	}

	o.logger.Info("import complete", "table", table, "records", written)
	return written, nil
}

// readEntities parses every line of r into an entity of the table.
func readEntities(r io.Reader, d schema.TableDescriptor) ([]core.Entity, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var entities []core.Entity
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		rec, err := storage.UnmarshalRecord(text)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidLine, line, err)
		}
		e := d.New(rec)
		if err := core.ValidateEntity(e); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidLine, line, err)
		}
		entities = append(entities, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entities, nil
}
