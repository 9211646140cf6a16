package task

import "context"

// Repository persists the full task collection as one document, matching the
// legacy single-blob layout. Replace swaps the entire collection in one write;
// there is no per-task update, so concurrent writers are last-writer-wins at
// collection granularity.
type Repository interface {
	// All returns the collection in insertion order. A missing or unparsable
	// blob yields an empty collection, never an error.
	All(ctx context.Context) ([]*Task, error)
	// Replace overwrites the whole collection.
	Replace(ctx context.Context, tasks []*Task) error
	// Exists reports whether the collection blob is present at all,
	// distinguishing "never seeded" from "seeded but empty".
	Exists(ctx context.Context) (bool, error)
}
