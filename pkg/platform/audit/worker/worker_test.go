package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	audit "custody/pkg/platform/audit"
	"custody/pkg/platform/circuit"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutbox struct {
	mu        sync.Mutex
	pending   []audit.OutboxEntry
	published []uuid.UUID
	fetchErr  error
}

func (f *fakeOutbox) FetchPending(_ context.Context, limit int) ([]audit.OutboxEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if limit > len(f.pending) {
		limit = len(f.pending)
	}
	return append([]audit.OutboxEntry{}, f.pending[:limit]...), nil
}

func (f *fakeOutbox) MarkPublished(_ context.Context, ids []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, ids...)
	f.pending = f.pending[len(ids):]
	return nil
}

type fakeSink struct {
	mu       sync.Mutex
	received []audit.OutboxEntry
	err      error
}

func (f *fakeSink) Publish(_ context.Context, entries []audit.OutboxEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.received = append(f.received, entries...)
	return nil
}

func entries(n int) []audit.OutboxEntry {
	out := make([]audit.OutboxEntry, n)
	for i := range out {
		out[i] = audit.OutboxEntry{ID: uuid.New(), Key: "0xb", Action: string(audit.EventTokenStaked)}
	}
	return out
}

func TestRelayOnce(t *testing.T) {
	t.Run("relays a batch and marks it published", func(t *testing.T) {
		outbox := &fakeOutbox{pending: entries(3)}
		sink := &fakeSink{}
		w := NewWorker(outbox, sink, WithBatchSize(2))

		n, err := w.RelayOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Len(t, sink.received, 2)
		assert.Len(t, outbox.published, 2)
		assert.Len(t, outbox.pending, 1)
	})

	t.Run("sink failure leaves entries pending", func(t *testing.T) {
		outbox := &fakeOutbox{pending: entries(2)}
		sink := &fakeSink{err: errors.New("broker unavailable")}
		w := NewWorker(outbox, sink)

		_, err := w.RelayOnce(context.Background())
		require.Error(t, err)
		assert.Empty(t, outbox.published)
		assert.Len(t, outbox.pending, 2)
	})

	t.Run("empty outbox is a no-op", func(t *testing.T) {
		w := NewWorker(&fakeOutbox{}, &fakeSink{})
		n, err := w.RelayOnce(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestRun_StopsOnCancel(t *testing.T) {
	outbox := &fakeOutbox{pending: entries(1)}
	sink := &fakeSink{}
	w := NewWorker(outbox, sink, WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.received) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestRecord_TracksSinkHealth(t *testing.T) {
	breaker := circuit.New("audit-sink", circuit.WithFailureThreshold(2), circuit.WithSuccessThreshold(1))
	w := NewWorker(&fakeOutbox{}, &fakeSink{}, WithBreaker(breaker))
	ctx := context.Background()
	sinkErr := errors.New("broker unavailable")

	w.record(ctx, sinkErr)
	assert.False(t, breaker.IsOpen())

	w.record(ctx, sinkErr)
	assert.True(t, breaker.IsOpen())

	w.record(ctx, sinkErr)
	assert.True(t, breaker.IsOpen())

	w.record(ctx, nil)
	assert.False(t, breaker.IsOpen())
}
