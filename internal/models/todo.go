// Package models defines the persisted entities and request payloads.
package models

import "time"

// Priority levels accepted for a todo.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Todo is a single task owned by exactly one user.
type Todo struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	UserID    int       `gorm:"index;not null" json:"userId"`
	Title     string    `gorm:"size:500;not null" json:"title"`
	Completed bool      `gorm:"not null;default:false" json:"completed"`
	Priority  string    `gorm:"size:10;not null;default:medium" json:"priority"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateTodoRequest struct {
	Title    string `json:"title" binding:"required,max=500"`
	Priority string `json:"priority" binding:"omitempty,oneof=low medium high"`
}

// UpdateTodoRequest carries a partial update; nil fields are left untouched.
type UpdateTodoRequest struct {
	Title     *string `json:"title" binding:"omitempty,min=1,max=500"`
	Completed *bool   `json:"completed"`
	Priority  *string `json:"priority" binding:"omitempty,oneof=low medium high"`
}

// IsEmpty reports whether the update carries no fields at all.
func (r UpdateTodoRequest) IsEmpty() bool {
	return r.Title == nil && r.Completed == nil && r.Priority == nil
}

// TodoStats aggregates a user's list. CompletionRate is serialized as the
// API has always produced it: "0" for an empty list, otherwise a percentage
// with one decimal, e.g. "33.3".
type TodoStats struct {
	Total          int64  `json:"total"`
	Completed      int64  `json:"completed"`
	Active         int64  `json:"active"`
	CompletionRate string `json:"completionRate"`
}
