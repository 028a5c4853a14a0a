package worker

import (
	"context"
	"log/slog"
	"time"

	audit "custody/pkg/platform/audit"
	"custody/pkg/platform/circuit"

	"github.com/google/uuid"
)

const (
	defaultInterval  = time.Second
	defaultBatchSize = 100
)

// Worker relays pending outbox entries to a sink. Entries are marked
// published only after the sink accepts the whole batch, so a crash between
// the two steps redelivers rather than loses.
type Worker struct {
	source    audit.OutboxSource
	sink      audit.Sink
	logger    *slog.Logger
	metrics   *Metrics
	breaker   *circuit.Breaker
	interval  time.Duration
	batchSize int
}

type Option func(*Worker)

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

// WithBreaker tracks sink health. While the breaker is open, repeated relay
// failures are logged at debug level.
func WithBreaker(b *circuit.Breaker) Option {
	return func(w *Worker) {
		w.breaker = b
	}
}

func NewWorker(source audit.OutboxSource, sink audit.Sink, opts ...Option) *Worker {
	w := &Worker{
		source:    source,
		sink:      sink,
		logger:    slog.Default(),
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run relays until ctx is cancelled. Relay errors are logged and retried on
// the next tick.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_, err := w.RelayOnce(ctx)
			w.record(ctx, err)
		}
	}
}

// RelayOnce moves one batch from the outbox to the sink and returns how many
// entries were relayed.
func (w *Worker) RelayOnce(ctx context.Context) (int, error) {
	entries, err := w.source.FetchPending(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	if err := w.sink.Publish(ctx, entries); err != nil {
		return 0, err
	}

	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	if err := w.source.MarkPublished(ctx, ids); err != nil {
		return 0, err
	}

	w.metrics.addRelayed(len(entries))
	w.logger.DebugContext(ctx, "relayed audit outbox batch", "count", len(entries))
	return len(entries), nil
}

func (w *Worker) record(ctx context.Context, err error) {
	if err != nil {
		w.metrics.incFailure()
	}
	if w.breaker == nil {
		if err != nil {
			w.logger.ErrorContext(ctx, "audit outbox relay failed", "error", err)
		}
		return
	}

	if err == nil {
		if _, change := w.breaker.RecordSuccess(); change.Closed {
			w.metrics.setBreakerOpen(false)
			w.logger.InfoContext(ctx, "audit sink recovered", "breaker", w.breaker.Name())
		}
		return
	}

	wasOpen := w.breaker.IsOpen()
	_, change := w.breaker.RecordFailure()
	switch {
	case change.Opened:
		w.metrics.setBreakerOpen(true)
		w.logger.WarnContext(ctx, "audit sink circuit opened", "breaker", w.breaker.Name(), "error", err)
	case wasOpen:
		w.logger.DebugContext(ctx, "audit outbox relay failed", "error", err)
	default:
		w.logger.ErrorContext(ctx, "audit outbox relay failed", "error", err)
	}
}
