package task

// Priority ranks a task for scheduling. It is immutable after creation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Status is the lifecycle state of a task. Completed is terminal and implies
// removal from the store rather than retention.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusBlocked    Status = "blocked"
)

// Source tags where a task came from. System tasks and user help requests are
// scheduled differently in the worker view.
type Source string

const (
	SourceSystem Source = "system"
	SourceUser   Source = "user"
)

type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Task is the unit of field work. JSON field names and the epoch-millisecond
// timestamps are wire-compatible with the legacy worker_tasks layout.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	SLADueAt    int64    `json:"slaDueAt"`
	Location    Location `json:"location"`
	Status      Status   `json:"status"`
	CreatedAt   int64    `json:"createdAt"`
	UpdatedAt   int64    `json:"updatedAt"`
	Source      Source   `json:"source,omitempty"`
	AssignedTo  string   `json:"assignedTo,omitempty"`
}

// DefaultTasks returns the fixed seed set: three system tasks with staggered
// SLA offsets of 15, 35 and 60 minutes from baseTime.
func DefaultTasks(baseTime int64) []*Task {
	t := baseTime
	return []*Task{
		{
			ID:          "t-1",
			Title:       "Clean Toilet – Sector B",
			Description: "Toilet block near Gate 2, Sector B. Mop, restock supplies, sanitize.",
			Priority:    PriorityHigh,
			SLADueAt:    t + 15*60*1000,
			Location:    Location{Name: "Sector B Gate 2", Lat: 23.1772, Lng: 75.7809},
			Status:      StatusPending,
			CreatedAt:   t,
			UpdatedAt:   t,
			Source:      SourceSystem,
		},
		{
			ID:          "t-2",
			Title:       "Refill Water – Kshipra Bank",
			Description: "Refill and check cleanliness around water point.",
			Priority:    PriorityMedium,
			SLADueAt:    t + 35*60*1000,
			Location:    Location{Name: "Kshipra River Bank", Lat: 23.1821, Lng: 75.7856},
			Status:      StatusPending,
			CreatedAt:   t,
			UpdatedAt:   t,
			Source:      SourceSystem,
		},
		{
			ID:          "t-3",
			Title:       "Empty Bin – Ram Ghat",
			Description: "Overflowing bin near main stairs. Replace liner and clean area.",
			Priority:    PriorityLow,
			SLADueAt:    t + 60*60*1000,
			Location:    Location{Name: "Ram Ghat", Lat: 23.1839, Lng: 75.7844},
			Status:      StatusPending,
			CreatedAt:   t,
			UpdatedAt:   t,
			Source:      SourceSystem,
		},
	}
}
