package syncengine

import (
	"context"
	"log/slog"
	"time"

	"github.com/fieldops/fieldsync/internal/outbox"
)

const (
	// DefaultInterval is the periodic sweep cadence.
	DefaultInterval = 30 * time.Second

	// DefaultAttemptTimeout bounds a single delivery attempt.
	DefaultAttemptTimeout = 10 * time.Second

	// InitialBackoff is the delay before re-sweeping after a failed delivery.
	InitialBackoff = 5 * time.Second

	// MaxBackoff is the maximum delay between failed sweeps.
	MaxBackoff = 10 * time.Minute

	// BackoffFactor is the multiplier for each successive failed sweep.
	BackoffFactor = 2.0
)

// Engine reconciles the outbox against a remote authority. Each sweep drains
// the unconfirmed entries and delivers them in append order, acknowledging
// every entry individually; a failed delivery stops the sweep so per-task
// causal order is never reordered, and the next sweep backs off
// exponentially until a sweep completes clean.
type Engine struct {
	queue     *outbox.Queue
	transport Transport

	interval       time.Duration
	attemptTimeout time.Duration
	initialBackoff time.Duration
	maxBackoff     time.Duration
	backoff        time.Duration

	online chan struct{}
}

type Option func(*Engine)

// WithInterval overrides the periodic sweep cadence.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.interval = d
	}
}

// WithAttemptTimeout overrides the per-delivery timeout.
func WithAttemptTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.attemptTimeout = d
	}
}

// WithBackoff overrides the initial and maximum retry delays.
func WithBackoff(initial, max time.Duration) Option {
	return func(e *Engine) {
		e.initialBackoff = initial
		e.maxBackoff = max
	}
}

func New(queue *outbox.Queue, transport Transport, opts ...Option) *Engine {
	e := &Engine{
		queue:          queue,
		transport:      transport,
		interval:       DefaultInterval,
		attemptTimeout: DefaultAttemptTimeout,
		initialBackoff: InitialBackoff,
		maxBackoff:     MaxBackoff,
		online:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.backoff = e.initialBackoff
	return e
}

// NotifyOnline requests an immediate sweep, e.g. on a connectivity-restored
// event. Safe to call from any goroutine; redundant notifications coalesce.
func (e *Engine) NotifyOnline() {
	select {
	case e.online <- struct{}{}:
	default:
	}
}

// Run sweeps on a timer and on NotifyOnline until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("sync engine started", "interval", e.interval)
	timer := time.NewTimer(e.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sync engine stopped")
			return ctx.Err()
		case <-e.online:
		case <-timer.C:
		}

		next := e.interval
		if _, err := e.Sweep(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			next = e.nextBackoff()
			slog.Warn("sync sweep failed, backing off", "retry_in", next, "error", err)
		} else {
			e.resetBackoff()
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(next)
	}
}

// Sweep drains the unconfirmed outbox entries and delivers them in order,
// marking each synced on success. It returns the number of entries confirmed.
// On the first failure the remaining entries stay queued for the next sweep.
func (e *Engine) Sweep(ctx context.Context) (int, error) {
	actions, err := e.queue.DrainUnsynced(ctx)
	if err != nil {
		return 0, err
	}
	if len(actions) == 0 {
		return 0, nil
	}

	delivered := 0
	for _, action := range actions {
		if err := e.deliver(ctx, action); err != nil {
			slog.Warn("delivery failed, leaving action queued",
				"action_id", action.ID, "task_id", action.TaskID, "error", err)
			return delivered, err
		}
		if err := e.queue.MarkSynced(ctx, action.ID); err != nil {
			return delivered, err
		}
		delivered++
	}
	slog.Debug("sync sweep complete", "delivered", delivered)
	return delivered, nil
}

// nextBackoff returns the delay before the next retry and escalates the
// following one, capped at maxBackoff.
func (e *Engine) nextBackoff() time.Duration {
	d := e.backoff
	e.backoff = time.Duration(float64(e.backoff) * BackoffFactor)
	if e.backoff > e.maxBackoff {
		e.backoff = e.maxBackoff
	}
	return d
}

func (e *Engine) resetBackoff() {
	e.backoff = e.initialBackoff
}

func (e *Engine) deliver(ctx context.Context, action *outbox.Action) error {
	ctx, cancel := context.WithTimeout(ctx, e.attemptTimeout)
	defer cancel()
	return e.transport.Deliver(ctx, action)
}
