package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/fieldops/fieldsync/internal/eventbus"
	"github.com/fieldops/fieldsync/internal/outbox"
	"github.com/fieldops/fieldsync/pkg/cerr"
)

// Store owns creation, mutation and removal of tasks. Every mutating call
// writes the full collection through synchronously and appends exactly one
// outbox action, so the log stays the causal record of local mutations.
// Mutations serialize on an in-process mutex; concurrent read-modify-write
// cycles against the same collection blob would otherwise lose updates.
type Store struct {
	mu          sync.Mutex
	repo        Repository
	queue       *outbox.Queue
	bus         *eventbus.Bus
	transitions *TransitionTable
	now         func() int64
}

type StoreOption func(*Store)

// WithTransitionTable opts in to status transition enforcement.
func WithTransitionTable(t *TransitionTable) StoreOption {
	return func(s *Store) {
		s.transitions = t
	}
}

// WithNow overrides the store clock, for tests.
func WithNow(now func() int64) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(repo Repository, queue *outbox.Queue, bus *eventbus.Bus, opts ...StoreOption) *Store {
	s := &Store{
		repo:  repo,
		queue: queue,
		bus:   bus,
		now:   func() int64 { return time.Now().UnixMilli() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the collection snapshot in insertion order. Missing or
// unparsable persisted data yields an empty snapshot, never an error.
func (s *Store) List(ctx context.Context) ([]*Task, error) {
	return s.repo.All(ctx)
}

// Get returns the task with the given id, or (nil, nil) when absent.
func (s *Store) Get(ctx context.Context, taskID string) (*Task, error) {
	tasks, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if t.ID == taskID {
			return t, nil
		}
	}
	return nil, nil
}

// CreateInput carries the caller-supplied fields of a new task. Beyond the
// required fields nothing is validated; malformed priority or location values
// are stored as-is, matching the legacy contract.
type CreateInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	SLADueAt    int64    `json:"slaDueAt"`
	Location    Location `json:"location"`
	Status      Status   `json:"status,omitempty"`
	Source      Source   `json:"source,omitempty"`
	AssignedTo  string   `json:"assignedTo,omitempty"`
}

// Create appends a new task to the store and returns it. The id is fresh and
// time-ordered, status defaults to pending, source to user.
func (s *Store) Create(ctx context.Context, input CreateInput) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	status := input.Status
	if status == "" {
		status = StatusPending
	}
	source := input.Source
	if source == "" {
		source = SourceUser
	}
	t := &Task{
		ID:          "t-" + ulid.Make().String(),
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		SLADueAt:    input.SLADueAt,
		Location:    input.Location,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
		Source:      source,
		AssignedTo:  input.AssignedTo,
	}

	tasks, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Replace(ctx, append(tasks, t)); err != nil {
		return nil, err
	}
	if s.bus != nil {
		s.bus.PublishNew(eventbus.EventTaskCreated, t.ID, map[string]string{"source": string(source)})
	}
	return t, nil
}

// Assign sets the task's worker and enqueues a message action noting the
// assignment. An unknown id is a silent no-op returning (nil, nil) so callers
// decide whether to surface it.
func (s *Store) Assign(ctx context.Context, taskID, workerID string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	var assigned *Task
	for _, t := range tasks {
		if t.ID == taskID {
			t.AssignedTo = workerID
			t.UpdatedAt = s.bump(t.UpdatedAt)
			assigned = t
			break
		}
	}
	if assigned == nil {
		return nil, nil
	}
	if err := s.repo.Replace(ctx, tasks); err != nil {
		return nil, err
	}
	if _, err := s.queue.Enqueue(ctx, taskID, outbox.TypeMessage, outbox.MessagePayload{
		System: true,
		Text:   fmt.Sprintf("Assigned to %s", workerID),
	}); err != nil {
		return nil, err
	}
	if s.bus != nil {
		s.bus.PublishNew(eventbus.EventTaskUpdated, taskID, map[string]string{"assigned_to": workerID})
	}
	return assigned, nil
}

// UpdateStatus sets the task's status and enqueues a status_update action.
// An unknown id is a silent no-op returning (nil, nil). With a transition
// table configured, forbidden transitions fail with FailedPrecondition.
func (s *Store) UpdateStatus(ctx context.Context, taskID string, status Status) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	var updated *Task
	for _, t := range tasks {
		if t.ID == taskID {
			if !s.transitions.Allows(t.Status, status) {
				return nil, cerr.NewError(cerr.FailedPrecondition,
					fmt.Sprintf("transition %s -> %s not allowed", t.Status, status), nil)
			}
			t.Status = status
			t.UpdatedAt = s.bump(t.UpdatedAt)
			updated = t
			break
		}
	}
	if updated == nil {
		return nil, nil
	}
	if err := s.repo.Replace(ctx, tasks); err != nil {
		return nil, err
	}
	if _, err := s.queue.Enqueue(ctx, taskID, outbox.TypeStatusUpdate, outbox.StatusPayload{
		Status: string(status),
	}); err != nil {
		return nil, err
	}
	if s.bus != nil {
		s.bus.PublishNew(eventbus.EventTaskUpdated, taskID, map[string]string{"status": string(status)})
	}
	return updated, nil
}

// Complete removes the task from the store entirely and enqueues the terminal
// status_update. Completed tasks are not retained. The removal write and the
// terminal action happen even for an unknown id, matching the legacy
// unconditional filter-and-write.
func (s *Store) Complete(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.repo.All(ctx)
	if err != nil {
		return err
	}
	remaining := tasks[:0]
	for _, t := range tasks {
		if t.ID != taskID {
			remaining = append(remaining, t)
		}
	}
	if err := s.repo.Replace(ctx, remaining); err != nil {
		return err
	}
	if _, err := s.queue.Enqueue(ctx, taskID, outbox.TypeStatusUpdate, outbox.StatusPayload{
		Status: string(StatusCompleted),
	}); err != nil {
		return err
	}
	if s.bus != nil {
		s.bus.PublishNew(eventbus.EventTaskCompleted, taskID, nil)
	}
	return nil
}

// SeedDefaults populates the store with the fixed default set, only when the
// collection blob has never been written.
func (s *Store) SeedDefaults(ctx context.Context, baseTime int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.repo.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.repo.Replace(ctx, DefaultTasks(baseTime))
}

// ResetForLogin overwrites the store with the default set and wipes the
// outbox. Called on a new worker session.
func (s *Store) ResetForLogin(ctx context.Context, baseTime int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Replace(ctx, DefaultTasks(baseTime)); err != nil {
		return err
	}
	return s.queue.Clear(ctx)
}

// bump advances updatedAt so a successful mutation is strictly greater than
// the previous stamp even within one clock millisecond.
func (s *Store) bump(prev int64) int64 {
	now := s.now()
	if now <= prev {
		return prev + 1
	}
	return now
}
