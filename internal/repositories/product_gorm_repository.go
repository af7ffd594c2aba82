package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
// Sizes and images live in child tables ordered by their position column.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

func notDeleted(db *gorm.DB) *gorm.DB {
	return db.Where("is_deleted = ?", false)
}

func (r *GORMProductRepository) withChildren(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Sizes", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC, id ASC") })
}

// ListActive retrieves all products that are not soft-deleted.
func (r *GORMProductRepository) ListActive(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.withChildren(ctx).Scopes(notDeleted).Order("created_at ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// GetActiveBySlug retrieves a single product that is not soft-deleted by its slug.
func (r *GORMProductRepository) GetActiveBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.withChildren(ctx).Scopes(notDeleted).First(&product, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product by slug %s: %w", slug, err)
	}
	return &product, nil
}

// GetByID retrieves a single product by its ID, deleted or not.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.withChildren(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create inserts the product together with its sizes and images.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	for i := range product.Sizes {
		product.Sizes[i].ProductID = product.ID
		product.Sizes[i].Position = i
	}
	for i := range product.Images {
		product.Images[i].ProductID = product.ID
		product.Images[i].Position = i
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// UpdateDetails updates the supplied descriptive columns with a single
// UPDATE guarded by the version the caller read.
func (r *GORMProductRepository) UpdateDetails(ctx context.Context, id string, version int, changes ProductChanges) error {
	columns := map[string]interface{}{
		"version":    gorm.Expr("version + 1"),
		"updated_at": changes.UpdatedAt,
	}
	if changes.Name != nil {
		columns["name"] = *changes.Name
	}
	if changes.Slug != nil {
		columns["slug"] = *changes.Slug
	}
	if changes.Description != nil {
		columns["description"] = *changes.Description
	}
	if changes.Price != nil {
		columns["price"] = *changes.Price
	}
	if changes.ClearDiscount {
		columns["discount_price"] = nil
	} else if changes.DiscountPrice != nil {
		columns["discount_price"] = *changes.DiscountPrice
	}
	if changes.CategoryID != nil {
		columns["category_id"] = *changes.CategoryID
	}
	if changes.IsActive != nil {
		columns["is_active"] = *changes.IsActive
	}

	db := r.db.WithContext(ctx)
	res := db.Model(&models.Product{}).
		Where("id = ? AND version = ? AND is_deleted = ?", id, version, false).
		Updates(columns)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var count int64
	if err := db.Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up product %s: %w", id, err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrStale
}

// SoftDelete flags the product as deleted and inactive.
func (r *GORMProductRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	return r.setDeleted(ctx, id, map[string]interface{}{
		"is_deleted": true,
		"deleted_at": at,
		"is_active":  false,
		"updated_at": at,
		"version":    gorm.Expr("version + 1"),
	})
}

// Restore reverts SoftDelete.
func (r *GORMProductRepository) Restore(ctx context.Context, id string) error {
	return r.setDeleted(ctx, id, map[string]interface{}{
		"is_deleted": false,
		"deleted_at": nil,
		"is_active":  true,
		"updated_at": time.Now(),
		"version":    gorm.Expr("version + 1"),
	})
}

func (r *GORMProductRepository) setDeleted(ctx context.Context, id string, columns map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(columns)
	if res.Error != nil {
		return fmt.Errorf("failed to update deletion state of product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustStock applies delta with a single conditional UPDATE so that two
// concurrent sales can never both take the last unit.
func (r *GORMProductRepository) AdjustStock(ctx context.Context, id, size string, delta int) ([]models.ProductSize, error) {
	var sizes []models.ProductSize
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ProductSize{}).
			Where("product_id = ? AND size = ? AND stock + ? >= 0", id, size, delta).
			UpdateColumn("stock", gorm.Expr("stock + ?", delta))
		if res.Error != nil {
			return fmt.Errorf("failed to adjust stock: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return classifyStockMiss(tx, id, size)
		}
		if err := tx.Model(&models.Product{}).Where("id = ?", id).UpdateColumn("updated_at", time.Now()).Error; err != nil {
			return fmt.Errorf("failed to touch product %s: %w", id, err)
		}
		return tx.Where("product_id = ?", id).Order("position ASC").Find(&sizes).Error
	})
	if err != nil {
		return nil, err
	}
	return sizes, nil
}

// classifyStockMiss explains why the conditional stock update matched nothing.
func classifyStockMiss(tx *gorm.DB, id, size string) error {
	var count int64
	if err := tx.Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up product %s: %w", id, err)
	}
	if count == 0 {
		return ErrNotFound
	}
	if err := tx.Model(&models.ProductSize{}).Where("product_id = ? AND size = ?", id, size).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up size %s: %w", size, err)
	}
	if count == 0 {
		return ErrSizeNotFound
	}
	return ErrInsufficientStock
}

// AddImage appends an image after the existing ones.
func (r *GORMProductRepository) AddImage(ctx context.Context, id string, image models.ProductImage) ([]models.ProductImage, error) {
	var images []models.ProductImage
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to look up product %s: %w", id, err)
		}
		if count == 0 {
			return ErrNotFound
		}
		if err := tx.Model(&models.ProductImage{}).Where("product_id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count images: %w", err)
		}
		image.ID = 0
		image.ProductID = id
		image.Position = int(count)
		if err := tx.Create(&image).Error; err != nil {
			return fmt.Errorf("failed to add image: %w", err)
		}
		if err := tx.Model(&models.Product{}).Where("id = ?", id).UpdateColumn("updated_at", time.Now()).Error; err != nil {
			return fmt.Errorf("failed to touch product %s: %w", id, err)
		}
		return tx.Where("product_id = ?", id).Order("position ASC, id ASC").Find(&images).Error
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}
