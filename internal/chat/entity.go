package chat

// Role identifies the author side of a chat message.
type Role string

const (
	RoleWorker Role = "worker"
	RoleAdmin  Role = "admin"
)

// Message is one chat entry attached to a task, wire-compatible with the
// legacy worker_chat_<taskId> layout.
type Message struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
	Text string `json:"text"`
	At   int64  `json:"at"`
}
