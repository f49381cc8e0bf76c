package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/platform/kafka"
)

// KafkaSink publishes audit events to the scope trail topic. Events are
// keyed by identity so per-identity ordering survives partitioning.
type KafkaSink struct {
	producer *kafka.Producer
}

func NewKafkaSink(producer *kafka.Producer) *KafkaSink {
	return &KafkaSink{producer: producer}
}

func (s *KafkaSink) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	if err := s.producer.Publish(ctx, []byte(event.IdentityID.String()), payload); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}
