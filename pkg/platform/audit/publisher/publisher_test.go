package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	audit "custody/pkg/platform/audit"
	"custody/pkg/platform/audit/store/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "0x00000000000000000000000000000000000000a1"
	bob   = "0x00000000000000000000000000000000000000b2"
)

type failingStore struct {
	*memory.InMemoryStore
	err error
}

func (f failingStore) Append(context.Context, audit.Event) error { return f.err }

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{
		Subject: alice,
		Action:  string(audit.EventAdminAdded),
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventAdminAdded), events[0].Action)
	assert.Equal(t, audit.CategorySecurity, events[0].Category)
	assert.NotEqual(t, uuid.Nil, events[0].ID)
}

func TestPublisher_SyncMode_FailsClosed(t *testing.T) {
	boom := errors.New("store down")
	pub := NewPublisher(failingStore{InMemoryStore: memory.NewInMemoryStore(), err: boom})
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{Subject: alice, Action: string(audit.EventTokenStaked)})
	require.ErrorIs(t, err, boom)
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{
		Subject: alice,
		Action:  string(audit.EventVestedDeposited),
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		events, _ := pub.List(context.Background(), alice)
		return len(events) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	for range 10 {
		err := pub.Emit(context.Background(), audit.Event{
			Subject: alice,
			Action:  string(audit.EventWaitedUnlockedDeposited),
		})
		require.NoError(t, err)
	}

	// Close should drain all events
	pub.Close()

	events, err := store.ListBySubject(context.Background(), alice)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_BufferFull_DropsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pub.Emit(context.Background(), audit.Event{
				Subject: alice,
				Action:  string(audit.EventAdminAdded),
			})
			if err != nil {
				assert.ErrorIs(t, err, ErrBufferFull)
			}
		}()
	}
	wg.Wait()
}

func TestPublisher_SetsTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	before := time.Now()
	err := pub.Emit(context.Background(), audit.Event{Subject: alice, Action: string(audit.EventAdminAdded)})
	require.NoError(t, err)
	after := time.Now()

	events, err := pub.List(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.False(t, events[0].Timestamp.Before(before), "timestamp should be >= before")
	assert.False(t, events[0].Timestamp.After(after), "timestamp should be <= after")
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	customTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	err := pub.Emit(context.Background(), audit.Event{
		Subject:   alice,
		Action:    string(audit.EventAdminAdded),
		Timestamp: customTime,
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
}

func TestPublisher_MultipleEventsKeepOrder(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	actions := []audit.AuditEvent{
		audit.EventVestedDeposited,
		audit.EventVestingCreated,
		audit.EventTokenStaked,
	}
	for _, action := range actions {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{Subject: alice, Action: string(action)}))
	}

	result, err := pub.List(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, result, 3)
	for i, action := range actions {
		assert.Equal(t, string(action), result[i].Action)
	}

	recent, err := pub.ListRecent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, string(audit.EventTokenStaked), recent[0].Action)
}

func TestPublisher_DifferentSubjects(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	require.NoError(t, pub.Emit(context.Background(), audit.Event{Subject: alice, Action: string(audit.EventAdminAdded)}))
	require.NoError(t, pub.Emit(context.Background(), audit.Event{Subject: bob, Action: string(audit.EventAdminRemoved)}))

	events1, err := pub.List(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, events1, 1)
	assert.Equal(t, string(audit.EventAdminAdded), events1[0].Action)

	events2, err := pub.List(context.Background(), bob)
	require.NoError(t, err)
	require.Len(t, events2, 1)
	assert.Equal(t, string(audit.EventAdminRemoved), events2[0].Action)
}
