package repositoryimpl

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/fieldops/fieldsync/internal/outbox"
	"github.com/fieldops/fieldsync/pkg/cerr"
	"github.com/fieldops/fieldsync/pkg/storage"
)

// OutboxKey is the storage key holding the outbox log, kept identical to the
// legacy layout.
const OutboxKey = "worker_outbox"

// JSONRepository persists the outbox log as a single JSON array under
// OutboxKey.
type JSONRepository struct {
	storage storage.Storage
}

func NewJSONRepository(s storage.Storage) *JSONRepository {
	return &JSONRepository{storage: s}
}

func (r *JSONRepository) All(ctx context.Context) ([]*outbox.Action, error) {
	data, err := r.storage.Read(ctx, OutboxKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []*outbox.Action{}, nil
		}
		return nil, cerr.WrapStorageReadError("outbox", err)
	}
	var actions []*outbox.Action
	if err := json.Unmarshal(data, &actions); err != nil {
		// Malformed persisted data recovers as an empty log.
		slog.WarnContext(ctx, "discarding unparsable outbox log", "error", err)
		return []*outbox.Action{}, nil
	}
	if actions == nil {
		actions = []*outbox.Action{}
	}
	return actions, nil
}

func (r *JSONRepository) Replace(ctx context.Context, actions []*outbox.Action) error {
	if actions == nil {
		actions = []*outbox.Action{}
	}
	data, err := json.Marshal(actions)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", err)
	}
	if err := r.storage.Write(ctx, OutboxKey, data); err != nil {
		return cerr.WrapStorageWriteError("outbox", err)
	}
	return nil
}

func (r *JSONRepository) Append(ctx context.Context, action *outbox.Action) error {
	actions, err := r.All(ctx)
	if err != nil {
		return err
	}
	return r.Replace(ctx, append(actions, action))
}

func (r *JSONRepository) Clear(ctx context.Context) error {
	if err := r.storage.Delete(ctx, OutboxKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return cerr.WrapStorageDeleteError("outbox", err)
	}
	return nil
}
