package task

import (
	"time"

	"github.com/google/uuid"
)

func NewFromCreateRequest(userID string, req CreateTaskRequest, now time.Time) Task {
	now = now.UTC()

	return Task{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		IsCompleted: false,
		CreatedAt:   now,
		UpdatedAt:   now,
		UserID:      userID,
	}
}
