package repositories

import (
	"context"

	"storefront/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create returns ErrDuplicate when the email is taken.
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
