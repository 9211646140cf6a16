package watch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/fieldsync/internal/eventbus"
	"github.com/fieldops/fieldsync/pkg/storage"
)

func TestWatcher_PublishesKeyChanged(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	bus := eventbus.New()
	_, events := bus.Subscribe(8)

	w := New(store, bus)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher a moment to register the directory
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, store.Write(ctx, "worker_tasks", []byte(`[]`)))

	select {
	case e := <-events:
		assert.Equal(t, eventbus.EventKeyChanged, e.Type)
		assert.Equal(t, "worker_tasks", e.ResourceID)
	case <-time.After(3 * time.Second):
		t.Fatal("no key_changed event within timeout")
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestWatcher_DebounceCoalescesBursts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	bus := eventbus.New()
	_, events := bus.Subscribe(16)

	w := New(store, bus)
	go func() { _ = w.Run(ctx) }()
	time.Sleep(200 * time.Millisecond)

	// Several writes to one key inside the debounce window
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Write(ctx, "worker_outbox", []byte(`[]`)))
	}

	var got []*eventbus.Event
	deadline := time.After(3 * time.Second)
	select {
	case e := <-events:
		got = append(got, e)
	case <-deadline:
		t.Fatal("no event within timeout")
	}

	// Quiet period: no further events should arrive for the same burst
	select {
	case e := <-events:
		got = append(got, e)
	case <-time.After(3 * DebounceInterval):
	}

	require.Len(t, got, 1)
	assert.Equal(t, "worker_outbox", got[0].ResourceID)
}
