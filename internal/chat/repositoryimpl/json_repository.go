package repositoryimpl

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/fieldops/fieldsync/internal/chat"
	"github.com/fieldops/fieldsync/pkg/cerr"
	"github.com/fieldops/fieldsync/pkg/storage"
)

// ChatKeyPrefix prefixes the per-task chat keys, kept identical to the legacy
// layout (worker_chat_<taskId>).
const ChatKeyPrefix = "worker_chat_"

// JSONRepository persists each task's messages as a JSON array under its own
// key.
type JSONRepository struct {
	storage storage.Storage
}

func NewJSONRepository(s storage.Storage) *JSONRepository {
	return &JSONRepository{storage: s}
}

func key(taskID string) string {
	return ChatKeyPrefix + taskID
}

func (r *JSONRepository) Messages(ctx context.Context, taskID string) ([]*chat.Message, error) {
	data, err := r.storage.Read(ctx, key(taskID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []*chat.Message{}, nil
		}
		return nil, cerr.WrapStorageReadError("chat", err)
	}
	var msgs []*chat.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		slog.WarnContext(ctx, "discarding unparsable chat log", "task_id", taskID, "error", err)
		return []*chat.Message{}, nil
	}
	if msgs == nil {
		msgs = []*chat.Message{}
	}
	return msgs, nil
}

func (r *JSONRepository) Append(ctx context.Context, taskID string, msg *chat.Message) error {
	msgs, err := r.Messages(ctx, taskID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(append(msgs, msg))
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", err)
	}
	if err := r.storage.Write(ctx, key(taskID), data); err != nil {
		return cerr.WrapStorageWriteError("chat", err)
	}
	return nil
}
