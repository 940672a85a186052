package repositories

import (
	"context"

	"taskapp/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// GetByUsername returns ErrNotFound when no user has that username.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// Create assigns an ID when empty and returns ErrDuplicate on a taken username.
	Create(ctx context.Context, user *models.User) error
}
