package repositories

import (
	"context"
	"time"

	"storefront/internal/models"
)

// ProductChanges lists the descriptive fields of an update. Nil fields keep
// their stored value; ClearDiscount removes the discount price.
type ProductChanges struct {
	Name          *string
	Slug          *string
	Description   *string
	Price         *float64
	DiscountPrice *float64
	ClearDiscount bool
	CategoryID    *string
	IsActive      *bool
	UpdatedAt     time.Time
}

// ProductRepository defines the interface for product data access.
//
// Implementations must apply UpdateDetails, AdjustStock, SoftDelete and
// Restore as a single conditional write so concurrent callers never lose an update.
type ProductRepository interface {
	// ListActive returns the products that are not soft-deleted.
	ListActive(ctx context.Context) ([]models.Product, error)
	// GetActiveBySlug returns ErrNotFound for unknown or soft-deleted slugs.
	GetActiveBySlug(ctx context.Context, slug string) (*models.Product, error)
	// GetByID also returns soft-deleted products.
	GetByID(ctx context.Context, id string) (*models.Product, error)
	// Create returns ErrDuplicate when the slug is taken.
	Create(ctx context.Context, product *models.Product) error
	// UpdateDetails writes the fields set in changes, never sizes or images,
	// and bumps the version. The write only applies while the product is
	// still at version and not soft-deleted; otherwise it fails with ErrStale
	// (or ErrNotFound for an unknown id) and nothing is written.
	UpdateDetails(ctx context.Context, id string, version int, changes ProductChanges) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	Restore(ctx context.Context, id string) error
	// AdjustStock adds delta to the stock of size and returns the sizes after
	// the change. It fails with ErrSizeNotFound or ErrInsufficientStock
	// without writing anything.
	AdjustStock(ctx context.Context, id, size string, delta int) ([]models.ProductSize, error)
	// AddImage appends image and returns the images after the change.
	AddImage(ctx context.Context, id string, image models.ProductImage) ([]models.ProductImage, error)
}
