package badger

import (
	"fmt"
	"io"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// observe runs fn and records the operation in the package metrics:
// notedb_ops_total and notedb_op_errors_total per operation and table,
// notedb_op_duration_seconds per operation.
func observe(op, table string, fn func() error) error {
	start := time.Now()
	err := fn()

	metrics.GetOrCreateCounter(fmt.Sprintf(`notedb_ops_total{op=%q,table=%q}`, op, table)).Inc()
	if err != nil {
		metrics.GetOrCreateCounter(fmt.Sprintf(`notedb_op_errors_total{op=%q,table=%q}`, op, table)).Inc()
	}
	metrics.GetOrCreateHistogram(fmt.Sprintf(`notedb_op_duration_seconds{op=%q}`, op)).Update(time.Since(start).Seconds())
	return err
}

// WriteMetrics writes the engine metrics in Prometheus text format.
func WriteMetrics(w io.Writer) {
	metrics.WritePrometheus(w, false)
}
