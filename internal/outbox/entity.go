package outbox

import (
	"encoding/json"
	"fmt"
)

// ActionType discriminates the payload shape of an outbox action.
type ActionType string

const (
	TypeStatusUpdate ActionType = "status_update"
	TypeMessage      ActionType = "message"
)

// Payload is the tagged union carried by an Action. Exactly one concrete type
// corresponds to each ActionType; decoding is exhaustive over the known types.
type Payload interface {
	isPayload()
}

// StatusPayload is the payload of a status_update action.
type StatusPayload struct {
	Status string `json:"status"`
}

func (StatusPayload) isPayload() {}

// MessagePayload is the payload of a message action: either a chat record
// (id/role/at set) or a system note (System true), e.g. an assignment note.
// The omitempty tags keep both legacy wire shapes intact.
type MessagePayload struct {
	ID     string `json:"id,omitempty"`
	Role   string `json:"role,omitempty"`
	Text   string `json:"text"`
	At     int64  `json:"at,omitempty"`
	System bool   `json:"system,omitempty"`
}

func (MessagePayload) isPayload() {}

// Action is one pending mutation in the write-ahead log. Entries are never
// deleted individually; they are marked synced, or wholesale-cleared on
// session reset. IDs are time-ordered, so id order is causal order per task.
type Action struct {
	ID       string     `json:"id"`
	TaskID   string     `json:"taskId"`
	Type     ActionType `json:"type"`
	Payload  Payload    `json:"payload"`
	QueuedAt int64      `json:"queuedAt"`
	SyncedAt int64      `json:"syncedAt,omitempty"`
}

// Synced reports whether the action has been confirmed by a sync sweep.
func (a *Action) Synced() bool {
	return a.SyncedAt != 0
}

// actionAlias avoids recursing into Action's own (Un)MarshalJSON.
type actionAlias struct {
	ID       string          `json:"id"`
	TaskID   string          `json:"taskId"`
	Type     ActionType      `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	QueuedAt int64           `json:"queuedAt"`
	SyncedAt int64           `json:"syncedAt,omitempty"`
}

func (a Action) MarshalJSON() ([]byte, error) {
	payload, err := json.Marshal(a.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", a.Type, err)
	}
	return json.Marshal(actionAlias{
		ID:       a.ID,
		TaskID:   a.TaskID,
		Type:     a.Type,
		Payload:  payload,
		QueuedAt: a.QueuedAt,
		SyncedAt: a.SyncedAt,
	})
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var alias actionAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	a.ID = alias.ID
	a.TaskID = alias.TaskID
	a.Type = alias.Type
	a.QueuedAt = alias.QueuedAt
	a.SyncedAt = alias.SyncedAt

	switch alias.Type {
	case TypeStatusUpdate:
		var p StatusPayload
		if err := json.Unmarshal(alias.Payload, &p); err != nil {
			return fmt.Errorf("failed to unmarshal status_update payload: %w", err)
		}
		a.Payload = p
	case TypeMessage:
		var p MessagePayload
		if err := json.Unmarshal(alias.Payload, &p); err != nil {
			return fmt.Errorf("failed to unmarshal message payload: %w", err)
		}
		a.Payload = p
	default:
		return fmt.Errorf("unknown action type %q", alias.Type)
	}
	return nil
}
