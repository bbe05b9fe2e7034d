package task

import (
	"errors"
	"time"
)

// ErrNotFound covers both a missing task and a task owned by someone else.
var ErrNotFound = errors.New("task not found")

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsCompleted bool      `json:"isCompleted"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	UserID      string    `json:"userId"`
}

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required,notblank,max=200"`
	Description string `json:"description" binding:"max=1000"`
	Category    string `json:"category" binding:"required,notblank,max=50"`
}

// a full replacement payload; every field is written on update.
type UpdateTaskRequest struct {
	Title       string `json:"title" binding:"required,notblank,max=200"`
	Description string `json:"description" binding:"max=1000"`
	Category    string `json:"category" binding:"required,notblank,max=50"`
	IsCompleted bool   `json:"isCompleted"`
}

type ListTasksFilter struct {
	// Category matches case-insensitively when non-nil.
	Category *string
}
