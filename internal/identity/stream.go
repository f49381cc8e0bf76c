package identity

import (
	"context"
	"log/slog"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/platform/kafka/consumer"
)

// StreamHandler decodes identity events from the Kafka topic and forwards
// them to a sink. Malformed payloads are logged and skipped so one bad record
// cannot wedge the partition.
type StreamHandler struct {
	sink   chan<- Event
	logger *slog.Logger
}

// NewStreamHandler builds a handler feeding the given sink channel.
func NewStreamHandler(sink chan<- Event, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{sink: sink, logger: logger}
}

// Handle implements consumer.Handler.
func (h *StreamHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	event, err := DecodeEvent(msg.Value)
	if err != nil {
		h.logger.WarnContext(ctx, "skipping undecodable identity event",
			"topic", msg.Topic,
			"key", string(msg.Key),
			"error", err,
		)
		return nil
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = msg.Timestamp
	}

	select {
	case h.sink <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
