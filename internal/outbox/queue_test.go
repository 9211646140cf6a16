package outbox_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/fieldsync/internal/outbox"
	outboxrepo "github.com/fieldops/fieldsync/internal/outbox/repositoryimpl"
	"github.com/fieldops/fieldsync/pkg/storage"
)

func newQueue(clock *int64) *outbox.Queue {
	return outbox.NewQueue(outboxrepo.NewJSONRepository(storage.NewMemoryStorage()), nil,
		outbox.WithNow(func() int64 { return *clock }))
}

func TestQueue_EnqueuePreservesAppendOrder(t *testing.T) {
	ctx := context.Background()
	clock := int64(1_000_000)
	q := newQueue(&clock)

	first, err := q.Enqueue(ctx, "t-1", outbox.TypeStatusUpdate, outbox.StatusPayload{Status: "in_progress"})
	require.NoError(t, err)
	second, err := q.Enqueue(ctx, "t-1", outbox.TypeStatusUpdate, outbox.StatusPayload{Status: "completed"})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Less(t, first.ID, second.ID) // ULIDs sort by creation time

	actions, err := q.All(ctx)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, first.ID, actions[0].ID)
	assert.Equal(t, second.ID, actions[1].ID)
}

func TestQueue_DrainUnsyncedSkipsConfirmed(t *testing.T) {
	ctx := context.Background()
	clock := int64(1_000_000)
	q := newQueue(&clock)

	a1, err := q.Enqueue(ctx, "t-1", outbox.TypeStatusUpdate, outbox.StatusPayload{Status: "in_progress"})
	require.NoError(t, err)
	a2, err := q.Enqueue(ctx, "t-2", outbox.TypeMessage, outbox.MessagePayload{System: true, Text: "Assigned to w-1"})
	require.NoError(t, err)

	clock = 1_000_500
	require.NoError(t, q.MarkSynced(ctx, a1.ID))

	pending, err := q.DrainUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, a2.ID, pending[0].ID)

	// Entries stay in the log after confirmation
	all, err := q.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(1_000_500), all[0].SyncedAt)
}

func TestQueue_MarkSyncedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	clock := int64(1_000_000)
	q := newQueue(&clock)

	a, err := q.Enqueue(ctx, "t-1", outbox.TypeStatusUpdate, outbox.StatusPayload{Status: "completed"})
	require.NoError(t, err)

	clock = 1_000_100
	require.NoError(t, q.MarkSynced(ctx, a.ID))

	// A redelivered ack must not move the confirmation stamp
	clock = 1_000_900
	require.NoError(t, q.MarkSynced(ctx, a.ID))
	require.NoError(t, q.MarkSynced(ctx, "a-unknown"))

	all, err := q.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(1_000_100), all[0].SyncedAt)
}

func TestQueue_MarkAllSynced(t *testing.T) {
	ctx := context.Background()
	clock := int64(1_000_000)
	q := newQueue(&clock)

	for _, status := range []string{"in_progress", "blocked", "completed"} {
		_, err := q.Enqueue(ctx, "t-1", outbox.TypeStatusUpdate, outbox.StatusPayload{Status: status})
		require.NoError(t, err)
	}

	clock = 1_000_300
	require.NoError(t, q.MarkAllSynced(ctx))

	pending, err := q.DrainUnsynced(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestQueue_ClearOnEmptyStoreIsFine(t *testing.T) {
	ctx := context.Background()
	clock := int64(1_000_000)
	q := newQueue(&clock)

	require.NoError(t, q.Clear(ctx))

	_, err := q.Enqueue(ctx, "t-1", outbox.TypeStatusUpdate, outbox.StatusPayload{Status: "completed"})
	require.NoError(t, err)
	require.NoError(t, q.Clear(ctx))

	all, err := q.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
