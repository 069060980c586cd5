package domain

import "time"

// Timer tracks accumulated work time on a task.
type Timer struct {
	IsRunning bool       `json:"isRunning"`
	Elapsed   int64      `json:"elapsed"` // milliseconds
	StartTime *time.Time `json:"startTime,omitempty"`
}

// Subtask is one checklist entry inside a task.
type Subtask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Task represents a user-owned activity item.
type Task struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Priority      int        `json:"priority"`
	Status        string     `json:"status"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	EstimatedTime int        `json:"estimatedTime"` // minutes
	ActualTime    int        `json:"actualTime"`    // minutes
	Timer         Timer      `json:"timer"`
	Order         int        `json:"order"`
	IsFocus       bool       `json:"isFocus"`
	Subtasks      []Subtask  `json:"subtasks,omitempty"`
	ViewMode      string     `json:"viewMode,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"

	ViewModePersonal = "personal"
	ViewModeTeam     = "team"

	PriorityHighest = 1
	PriorityLowest  = 4
	PriorityDefault = 3
)

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == TaskStatusCompleted
}

// Normalize fills defaults for fields older persisted records may lack.
func (t *Task) Normalize() {
	if t == nil {
		return
	}
	if t.Status == "" {
		t.Status = TaskStatusPending
	}
	if t.Priority < PriorityHighest || t.Priority > PriorityLowest {
		t.Priority = PriorityDefault
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
}

// Valid reports whether the record is complete enough to keep.
func (t *Task) Valid() bool {
	return t != nil && t.ID != "" && t.Title != ""
}
