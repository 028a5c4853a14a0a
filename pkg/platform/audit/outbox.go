package audit

import (
	"context"

	"github.com/google/uuid"
)

// OutboxEntry is a persisted audit event awaiting relay to the event stream.
type OutboxEntry struct {
	ID      uuid.UUID
	Key     string
	Action  string
	Payload []byte
}

// OutboxSource yields pending entries and records which were relayed.
type OutboxSource interface {
	FetchPending(ctx context.Context, limit int) ([]OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Sink delivers outbox entries to an external stream.
type Sink interface {
	Publish(ctx context.Context, entries []OutboxEntry) error
}
