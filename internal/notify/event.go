// Package notify delivers task completion notifications.
package notify

import (
	"time"

	"github.com/BuzzLyutic/task-workflow/internal/model"
)

const EventTaskCompleted = "task.completed"

// Event is the notification payload published for a completed task.
type Event struct {
	Type         string       `json:"type"`
	TaskID       int64        `json:"task_id"`
	TransitionID string       `json:"transition_id"`
	From         model.Status `json:"from"`
	To           model.Status `json:"to"`
	ActorID      string       `json:"actor_id"`
	Reason       *string      `json:"reason,omitempty"`
	OccurredAt   time.Time    `json:"occurred_at"`
}

func completedEvent(rec model.Transition) Event {
	return Event{
		Type:         EventTaskCompleted,
		TaskID:       rec.TaskID,
		TransitionID: rec.ID,
		From:         rec.From,
		To:           rec.To,
		ActorID:      rec.ActorID,
		Reason:       rec.Reason,
		OccurredAt:   rec.CreatedAt,
	}
}
