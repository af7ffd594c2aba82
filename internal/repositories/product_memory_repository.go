package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
// Every method runs under one mutex, which makes each write atomic.
type MemoryProductRepository struct {
	products map[string]*models.Product
	mu       sync.RWMutex
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[string]*models.Product),
	}
}

// ListActive returns all products that are not soft-deleted, oldest first.
func (r *MemoryProductRepository) ListActive(_ context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if !p.IsDeleted {
			productList = append(productList, *p.Clone())
		}
	}
	sort.SliceStable(productList, func(i, j int) bool {
		return productList[i].CreatedAt.Before(productList[j].CreatedAt)
	})
	return productList, nil
}

// GetActiveBySlug returns a product that is not soft-deleted by its slug.
func (r *MemoryProductRepository) GetActiveBySlug(_ context.Context, slug string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.Slug == slug && !p.IsDeleted {
			return p.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

// GetByID returns a product by its ID.
func (r *MemoryProductRepository) GetByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return product.Clone(), nil
}

// Create adds a new product.
func (r *MemoryProductRepository) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if _, ok := r.products[product.ID]; ok {
		return ErrDuplicate
	}
	if r.slugTaken(product.Slug, product.ID) {
		return ErrDuplicate
	}
	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = now
	}
	for i := range product.Sizes {
		product.Sizes[i].ProductID = product.ID
		product.Sizes[i].Position = i
	}
	for i := range product.Images {
		product.Images[i].ProductID = product.ID
		product.Images[i].Position = i
	}
	r.products[product.ID] = product.Clone()
	return nil
}

func (r *MemoryProductRepository) slugTaken(slug, exceptID string) bool {
	for id, p := range r.products {
		if id != exceptID && p.Slug == slug {
			return true
		}
	}
	return false
}

// UpdateDetails applies changes when the product is still at version.
func (r *MemoryProductRepository) UpdateDetails(_ context.Context, id string, version int, changes ProductChanges) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.products[id]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != version || stored.IsDeleted {
		return ErrStale
	}
	if changes.Slug != nil && r.slugTaken(*changes.Slug, id) {
		return ErrDuplicate
	}
	if changes.Name != nil {
		stored.Name = *changes.Name
	}
	if changes.Slug != nil {
		stored.Slug = *changes.Slug
	}
	if changes.Description != nil {
		stored.Description = *changes.Description
	}
	if changes.Price != nil {
		stored.Price = *changes.Price
	}
	if changes.ClearDiscount {
		stored.DiscountPrice = nil
	} else if changes.DiscountPrice != nil {
		d := *changes.DiscountPrice
		stored.DiscountPrice = &d
	}
	if changes.CategoryID != nil {
		stored.CategoryID = *changes.CategoryID
	}
	if changes.IsActive != nil {
		stored.IsActive = *changes.IsActive
	}
	stored.UpdatedAt = changes.UpdatedAt
	stored.Version++
	return nil
}

// SoftDelete flags the product as deleted and inactive.
func (r *MemoryProductRepository) SoftDelete(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return ErrNotFound
	}
	t := at
	product.IsDeleted = true
	product.DeletedAt = &t
	product.IsActive = false
	product.UpdatedAt = at
	product.Version++
	return nil
}

// Restore reverts SoftDelete.
func (r *MemoryProductRepository) Restore(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return ErrNotFound
	}
	product.IsDeleted = false
	product.DeletedAt = nil
	product.IsActive = true
	product.UpdatedAt = time.Now()
	product.Version++
	return nil
}

// AdjustStock changes the stock of one size, refusing to go below zero.
func (r *MemoryProductRepository) AdjustStock(_ context.Context, id, size string, delta int) ([]models.ProductSize, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	for i := range product.Sizes {
		if product.Sizes[i].Size != size {
			continue
		}
		if product.Sizes[i].Stock+delta < 0 {
			return nil, ErrInsufficientStock
		}
		product.Sizes[i].Stock += delta
		product.UpdatedAt = time.Now()
		return append([]models.ProductSize(nil), product.Sizes...), nil
	}
	return nil, ErrSizeNotFound
}

// AddImage appends an image to the product.
func (r *MemoryProductRepository) AddImage(_ context.Context, id string, image models.ProductImage) ([]models.ProductImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	image.ProductID = id
	image.Position = len(product.Images)
	if image.CreatedAt.IsZero() {
		image.CreatedAt = time.Now()
	}
	product.Images = append(product.Images, image)
	product.UpdatedAt = time.Now()
	return append([]models.ProductImage(nil), product.Images...), nil
}
