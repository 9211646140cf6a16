package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested key does not exist in storage.
var ErrNotFound = errors.New("not found")

// Storage provides an abstraction over key-value blob storage. Values are
// opaque byte slices; the engine stores JSON-encoded documents under fixed
// string keys (worker_tasks, worker_outbox, ...), so implementations must
// preserve values byte-exact.
type Storage interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, key string) (bool, error)
}
