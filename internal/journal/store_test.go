package journal

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ismaiel54/fix-order-client/internal/msg"
	"github.com/ismaiel54/fix-order-client/internal/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "journal_test_*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	store, err := Open(filepath.Join(tmpDir, "journal.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func transition(from, to order.State) order.Transition {
	return order.Transition{
		ClientOrderID:   "1700000000",
		ExchangeOrderID: "55667",
		Symbol:          "SOL-USD",
		From:            from,
		To:              to,
		At:              time.UnixMilli(1700000000123),
	}
}

type fakeProducer struct {
	mu       sync.Mutex
	produced []msg.LifecycleEventMsg
	fail     bool
}

func (f *fakeProducer) ProduceJSON(_ context.Context, topic, key string, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broker unavailable")
	}
	f.produced = append(f.produced, v.(msg.LifecycleEventMsg))
	return nil
}

func TestRecordTransition_JournalsAndQueues(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	ev, err := store.RecordTransition(ctx, "sess-1", transition(order.StateCancelRequested, order.StateCancelled))
	require.NoError(t, err)
	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, msg.TopicOrderLifecycle, ev.Topic)
	assert.Equal(t, "1700000000", ev.Key)

	rows, err := store.Transitions(ctx, "1700000000")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "cancel_requested", rows[0].FromState)
	assert.Equal(t, "cancelled", rows[0].ToState)
	assert.Equal(t, "sess-1", rows[0].SessionID)
	assert.Equal(t, int64(1700000000123), rows[0].AtUnixMillis)

	unpublished, err := store.ListUnpublished(ctx, 100)
	require.NoError(t, err)
	require.Len(t, unpublished, 1)

	var payload msg.LifecycleEventMsg
	require.NoError(t, json.Unmarshal([]byte(unpublished[0].PayloadJSON), &payload))
	assert.Equal(t, "55667", payload.OrderID)
	assert.Equal(t, "cancelled", payload.ToState)
}

func TestMarkPublished(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	ev, err := store.RecordTransition(ctx, "sess-1", transition(order.StateCreated, order.StateSent))
	require.NoError(t, err)

	require.NoError(t, store.MarkPublished(ctx, ev.EventID, 2000))

	unpublished, err := store.ListUnpublished(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, unpublished, 0, "should have no unpublished events after marking as published")
}

func TestRecorder_JournalsEveryTransition(t *testing.T) {
	store := openTestStore(t)
	rec := NewRecorder(store, "sess-2", zap.NewNop())
	ctx := context.Background()

	rec.OrderTransitioned(ctx, transition(order.StateCreated, order.StateSent))
	rec.OrderTransitioned(ctx, transition(order.StateSent, order.StateAwaitingConfirmation))
	rec.OrderTransitioned(ctx, transition(order.StateAwaitingConfirmation, order.StateTimedOut))

	rows, err := store.Transitions(ctx, "1700000000")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "timed_out", rows[2].ToState)
}

func TestPublisher_PublishPending(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	for _, to := range []order.State{order.StateSent, order.StateAwaitingConfirmation} {
		_, err := store.RecordTransition(ctx, "sess-3", transition(order.StateCreated, to))
		require.NoError(t, err)
	}

	producer := &fakeProducer{}
	pub := NewPublisher(store, producer, zap.NewNop())

	n, err := pub.PublishPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, producer.produced, 2)
	assert.Equal(t, "sent", producer.produced[0].ToState)
	assert.Equal(t, "awaiting_confirmation", producer.produced[1].ToState)

	n, err = pub.PublishPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPublisher_FailedProduceStaysQueued(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	_, err := store.RecordTransition(ctx, "sess-4", transition(order.StateCreated, order.StateSent))
	require.NoError(t, err)

	producer := &fakeProducer{fail: true}
	pub := NewPublisher(store, producer, zap.NewNop())

	n, err := pub.PublishPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	unpublished, err := store.ListUnpublished(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, unpublished, 1)

	producer.fail = false
	n, err = pub.PublishPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPublisher_RunDrainsOnCancel(t *testing.T) {
	store := openTestStore(t)
	_, err := store.RecordTransition(context.Background(), "sess-5", transition(order.StateCreated, order.StateSent))
	require.NoError(t, err)

	producer := &fakeProducer{}
	pub := NewPublisher(store, producer, zap.NewNop())
	pub.interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = pub.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, producer.produced, 1)
}
