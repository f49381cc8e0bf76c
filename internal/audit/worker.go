package audit

import (
	"context"
	"log/slog"
	"time"
)

const defaultBatchSize = 256

// Worker drains the recorder's buffer to the configured sinks on a fixed
// interval. A failing sink loses its share of the batch; other sinks still
// receive theirs. The trail is best-effort and never stops the process.
type Worker struct {
	recorder *Recorder
	sinks    []Sink
	interval time.Duration
	logger   *slog.Logger
}

func NewWorker(recorder *Recorder, sinks []Sink, interval time.Duration, logger *slog.Logger) *Worker {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		recorder: recorder,
		sinks:    sinks,
		interval: interval,
		logger:   logger,
	}
}

// Run flushes until ctx is cancelled, then performs one final drain so
// shutdown does not lose buffered events.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Flush(context.WithoutCancel(ctx))
			return ctx.Err()
		case <-ticker.C:
			w.Flush(ctx)
		}
	}
}

// Flush drains the whole buffer to every sink.
func (w *Worker) Flush(ctx context.Context) {
	for {
		batch := w.recorder.drain(defaultBatchSize)
		if len(batch) == 0 {
			return
		}
		for _, sink := range w.sinks {
			w.appendBatch(ctx, sink, batch)
		}
	}
}

func (w *Worker) appendBatch(ctx context.Context, sink Sink, batch []Event) {
	for i, event := range batch {
		if err := sink.Append(ctx, event); err != nil {
			w.logger.ErrorContext(ctx, "audit sink append failed",
				"error", err,
				"lost", len(batch)-i,
			)
			return
		}
	}
}
