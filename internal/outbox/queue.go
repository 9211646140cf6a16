package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/fieldops/fieldsync/internal/eventbus"
)

// Queue is the append-only write-ahead log of intended mutations awaiting
// confirmed delivery. It serializes its own read-modify-write cycles; the
// cross-process race on the shared blob stays last-writer-wins by design.
type Queue struct {
	mu   sync.Mutex
	repo Repository
	bus  *eventbus.Bus
	now  func() int64
}

type QueueOption func(*Queue)

// WithNow overrides the queue clock, for tests.
func WithNow(now func() int64) QueueOption {
	return func(q *Queue) {
		q.now = now
	}
}

func NewQueue(repo Repository, bus *eventbus.Bus, opts ...QueueOption) *Queue {
	q := &Queue{
		repo: repo,
		bus:  bus,
		now:  func() int64 { return time.Now().UnixMilli() },
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue assigns a time-ordered id and queue timestamp to the action and
// appends it to the log.
func (q *Queue) Enqueue(ctx context.Context, taskID string, typ ActionType, payload Payload) (*Action, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	action := &Action{
		ID:       "a-" + ulid.Make().String(),
		TaskID:   taskID,
		Type:     typ,
		Payload:  payload,
		QueuedAt: q.now(),
	}
	if err := q.repo.Append(ctx, action); err != nil {
		return nil, err
	}
	if q.bus != nil {
		q.bus.PublishNew(eventbus.EventOutboxEnqueued, action.ID, map[string]string{"task_id": taskID})
	}
	return action, nil
}

// All returns the full log in append order.
func (q *Queue) All(ctx context.Context) ([]*Action, error) {
	return q.repo.All(ctx)
}

// DrainUnsynced returns the unconfirmed entries in append order. The entries
// stay in the log; only a Mark call confirms them.
func (q *Queue) DrainUnsynced(ctx context.Context) ([]*Action, error) {
	actions, err := q.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	var unsynced []*Action
	for _, a := range actions {
		if !a.Synced() {
			unsynced = append(unsynced, a)
		}
	}
	return unsynced, nil
}

// MarkSynced acknowledges delivery of individual entries by action id.
// Already-synced and unknown ids are ignored, so redelivered acknowledgments
// are harmless.
func (q *Queue) MarkSynced(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	idSet := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}
	actions, err := q.repo.All(ctx)
	if err != nil {
		return err
	}
	now := q.now()
	changed := false
	for _, a := range actions {
		if _, ok := idSet[a.ID]; ok && !a.Synced() {
			a.SyncedAt = now
			changed = true
		}
	}
	if !changed {
		return nil
	}
	if err := q.repo.Replace(ctx, actions); err != nil {
		return err
	}
	if q.bus != nil {
		q.bus.PublishNew(eventbus.EventOutboxSynced, "", nil)
	}
	return nil
}

// MarkAllSynced stamps every unconfirmed entry at once. This is the legacy
// sweep semantics; the sync engine prefers per-entry MarkSynced.
func (q *Queue) MarkAllSynced(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	actions, err := q.repo.All(ctx)
	if err != nil {
		return err
	}
	now := q.now()
	changed := false
	for _, a := range actions {
		if !a.Synced() {
			a.SyncedAt = now
			changed = true
		}
	}
	if !changed {
		return nil
	}
	if err := q.repo.Replace(ctx, actions); err != nil {
		return err
	}
	if q.bus != nil {
		q.bus.PublishNew(eventbus.EventOutboxSynced, "", nil)
	}
	return nil
}

// Clear wipes the whole log. Used only on session reset.
func (q *Queue) Clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.repo.Clear(ctx)
}
