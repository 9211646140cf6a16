package outbox

import "context"

// Repository persists the outbox log as one document in append order,
// matching the legacy single-blob layout.
type Repository interface {
	All(ctx context.Context) ([]*Action, error)
	Replace(ctx context.Context, actions []*Action) error
	Append(ctx context.Context, action *Action) error
	Clear(ctx context.Context) error
}
