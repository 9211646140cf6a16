package repositoryimpl

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/fieldops/fieldsync/internal/task"
	"github.com/fieldops/fieldsync/pkg/cerr"
	"github.com/fieldops/fieldsync/pkg/storage"
)

// TasksKey is the storage key holding the task collection, kept identical to
// the legacy layout.
const TasksKey = "worker_tasks"

// JSONRepository persists the task collection as a single JSON array under
// TasksKey.
type JSONRepository struct {
	storage storage.Storage
}

func NewJSONRepository(s storage.Storage) *JSONRepository {
	return &JSONRepository{storage: s}
}

func (r *JSONRepository) All(ctx context.Context) ([]*task.Task, error) {
	data, err := r.storage.Read(ctx, TasksKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []*task.Task{}, nil
		}
		return nil, cerr.WrapStorageReadError("tasks", err)
	}
	var tasks []*task.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		// Malformed persisted data recovers as an empty collection.
		slog.WarnContext(ctx, "discarding unparsable task collection", "error", err)
		return []*task.Task{}, nil
	}
	if tasks == nil {
		tasks = []*task.Task{}
	}
	return tasks, nil
}

func (r *JSONRepository) Replace(ctx context.Context, tasks []*task.Task) error {
	if tasks == nil {
		tasks = []*task.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", err)
	}
	if err := r.storage.Write(ctx, TasksKey, data); err != nil {
		return cerr.WrapStorageWriteError("tasks", err)
	}
	return nil
}

func (r *JSONRepository) Exists(ctx context.Context) (bool, error) {
	ok, err := r.storage.Exists(ctx, TasksKey)
	if err != nil {
		return false, cerr.WrapStorageReadError("tasks", err)
	}
	return ok, nil
}
