package chat

import "context"

// Repository persists one message list per task.
type Repository interface {
	// Messages returns the task's messages in append order; missing or
	// unparsable data yields an empty list, never an error.
	Messages(ctx context.Context, taskID string) ([]*Message, error)
	Append(ctx context.Context, taskID string, msg *Message) error
}
