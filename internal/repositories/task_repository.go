package repositories

import (
	"context"

	"taskapp/internal/models"
)

// TaskRepository defines the interface for task data access.
// Every method maps onto exactly one store operation.
type TaskRepository interface {
	// ListByUser returns the user's tasks oldest first. Never nil.
	ListByUser(ctx context.Context, userID string) ([]models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	// Update merges patch into the task and returns the stored result,
	// or ErrNotFound.
	Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error)
	// Delete returns ErrNotFound when nothing was removed.
	Delete(ctx context.Context, id string) error
}
