// Package goals implements savings-goal tracking.
package goals

import "time"

// Statuses a goal can be in.
const (
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
)

// Priority levels.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Goal is a savings target. SavedAmount and TargetDate are the canonical
// fields; the legacy store columns that alias them are written together by
// the repository so they can never diverge.
type Goal struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	TargetAmount float64    `json:"target_amount"`
	SavedAmount  float64    `json:"saved_amount"`
	TargetDate   *time.Time `json:"target_date"`
	GoalType     string     `json:"goal_type"`
	Priority     string     `json:"priority_level"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Changes is a partial goal update. Nil fields are left untouched.
type Changes struct {
	Name         *string
	Description  *string
	TargetAmount *float64
	SavedAmount  *float64
	TargetDate   *time.Time
	GoalType     *string
	Priority     *string
	Status       *string
}
