package chat

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/fieldops/fieldsync/internal/outbox"
)

// Service appends chat messages and mirrors each one into the outbox so the
// conversation is part of the eventual sync stream.
type Service struct {
	repo  Repository
	queue *outbox.Queue
	now   func() int64
}

type ServiceOption func(*Service)

// WithNow overrides the service clock, for tests.
func WithNow(now func() int64) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, queue *outbox.Queue, opts ...ServiceOption) *Service {
	s := &Service{
		repo:  repo,
		queue: queue,
		now:   func() int64 { return time.Now().UnixMilli() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send appends a message to the task's chat and enqueues a matching outbox
// action carrying the same record.
func (s *Service) Send(ctx context.Context, taskID string, role Role, text string) (*Message, error) {
	msg := &Message{
		ID:   "m-" + ulid.Make().String(),
		Role: role,
		Text: text,
		At:   s.now(),
	}
	if err := s.repo.Append(ctx, taskID, msg); err != nil {
		return nil, err
	}
	if _, err := s.queue.Enqueue(ctx, taskID, outbox.TypeMessage, outbox.MessagePayload{
		ID:   msg.ID,
		Role: string(msg.Role),
		Text: msg.Text,
		At:   msg.At,
	}); err != nil {
		return nil, err
	}
	return msg, nil
}

// Messages returns the task's chat in append order.
func (s *Service) Messages(ctx context.Context, taskID string) ([]*Message, error) {
	return s.repo.Messages(ctx, taskID)
}
