// Package kafka relays audit outbox entries to a Kafka topic for external
// indexers. Records are keyed by subject so one principal's trail stays in
// partition order.
package kafka

import (
	"context"
	"fmt"

	audit "custody/pkg/platform/audit"

	"github.com/twmb/franz-go/pkg/kgo"
)

type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Sink implements audit.Sink over a franz-go client.
type Sink struct {
	client producer
	topic  string
}

func NewSink(client *kgo.Client, topic string) *Sink {
	return &Sink{client: client, topic: topic}
}

// Publish produces every entry and waits for all acknowledgements.
func (s *Sink) Publish(ctx context.Context, entries []audit.OutboxEntry) error {
	records := make([]*kgo.Record, len(entries))
	for i, e := range entries {
		records[i] = &kgo.Record{
			Topic: s.topic,
			Key:   []byte(e.Key),
			Value: e.Payload,
			Headers: []kgo.RecordHeader{
				{Key: "event_id", Value: []byte(e.ID.String())},
				{Key: "event_type", Value: []byte(e.Action)},
			},
		}
	}
	if err := s.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce audit records: %w", err)
	}
	return nil
}
