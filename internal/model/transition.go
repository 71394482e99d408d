package model

import "time"

// Transition is one accepted status change. Records are append-only.
type Transition struct {
	ID        string    `json:"id"`
	TaskID    int64     `json:"task_id"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	ActorID   string    `json:"actor_id"`
	Reason    *string   `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
