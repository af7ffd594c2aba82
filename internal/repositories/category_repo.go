package repositories

import (
	"context"

	"storefront/internal/models"
)

// CategoryRepository defines the interface for category data access.
type CategoryRepository interface {
	// GetAll returns categories sorted by name.
	GetAll(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id string) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	// Update matches on category.ID.
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) error
}
