package transfer

import (
	"io"
	"log/slog"
	"time"
)

const (
	defaultBatchSize      = 100
	defaultReportInterval = 100
	maxLineSize           = 64 << 20
)

// Option configures Export and Import.
type Option func(*options)

type options struct {
	batchSize      int
	progress       io.Writer
	reportInterval int
	maxAttempts    int
	baseDelay      time.Duration
	logger         *slog.Logger
}

func newOptions(opts []Option) *options {
	o := &options{
		batchSize:      defaultBatchSize,
		reportInterval: defaultReportInterval,
		maxAttempts:    1,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithBatchSize sets how many records Import writes per batch.
// Default is 100.
func WithBatchSize(size int) Option {
	return func(o *options) {
		if size < 1 {
			size = 1
		}
		o.batchSize = size
	}
}

// WithProgress reports progress to w every interval records.
func WithProgress(w io.Writer, interval int) Option {
	return func(o *options) {
		o.progress = w
		o.reportInterval = interval
	}
}

// WithRetry retries each failed Import batch up to maxAttempts times,
// doubling baseDelay between attempts.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(o *options) {
		o.maxAttempts = maxAttempts
		o.baseDelay = baseDelay
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

func (o *options) tracker(label string, total int) *ProgressTracker {
	if o.progress == nil {
		return nil
	}
	return NewProgressTracker(o.progress, label, total, o.reportInterval)
}
