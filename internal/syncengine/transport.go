package syncengine

import (
	"context"
	"time"

	"github.com/fieldops/fieldsync/internal/outbox"
)

// Transport delivers one outbox action to the remote authority. Delivery must
// be idempotent keyed by the action id: the engine may redeliver an action
// whose acknowledgment was lost.
type Transport interface {
	Deliver(ctx context.Context, action *outbox.Action) error
}

// SimulatedTransport always succeeds after an optional latency. No remote
// authority exists today; this preserves the historical always-succeeding
// sweep while keeping the engine honest about delivery and acknowledgment.
type SimulatedTransport struct {
	Latency time.Duration
}

func (t *SimulatedTransport) Deliver(ctx context.Context, _ *outbox.Action) error {
	if t.Latency <= 0 {
		return nil
	}
	select {
	case <-time.After(t.Latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
