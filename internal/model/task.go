package model

import "time"

type Task struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Assignee    *string    `json:"assignee,omitempty"`
	DueDate     time.Time  `json:"due_date"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	Version     int        `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// HasAssignee reports whether someone is assigned to the task.
func (t Task) HasAssignee() bool {
	return t.Assignee != nil && *t.Assignee != ""
}

// AssignedTo reports whether the task is assigned to the given user id.
func (t Task) AssignedTo(userID string) bool {
	return t.HasAssignee() && *t.Assignee == userID
}
