package transfer

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/poiesic/notedb/storage"
)

// Export writes every record of table to w, one JSON object per line, in
// primary-key order. Returns the number of records written.
func Export(ctx context.Context, engine storage.Engine, table string, w io.Writer, opts ...Option) (int, error) {
	o := newOptions(opts)

	entities, err := engine.Get(ctx, table, nil)
	if err != nil {
		return 0, err
	}

	progress := o.tracker("Exported", len(entities))
	if progress != nil {
		progress.Start()
		defer progress.Finish()
	}

	bw := bufio.NewWriter(w)
	for i, e := range entities {
		data, err := storage.MarshalRecord(e.Record())
		if err != nil {
			return i, fmt.Errorf("exporting %s/%d: %w", table, e.GetID(), err)
		}
		if _, err := bw.Write(data); err != nil {
			return i, err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return i, err
		}
		if progress != nil {
			progress.Increment(1)
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, err
	}

	o.logger.Info("export complete", "table", table, "records", len(entities))
	return len(entities), nil
}
