package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/slug"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// SizeInput is one size line of a product request.
type SizeInput struct {
	Size  string `json:"size" validate:"required,max=50"`
	Stock int    `json:"stock" validate:"gte=0"`
}

// ImageInput references an already uploaded image.
type ImageInput struct {
	URL      string `json:"url" validate:"required"`
	PublicID string `json:"publicId"`
}

// ProductInput is the body of a create request.
type ProductInput struct {
	Name          string       `json:"name" validate:"required,max=100"`
	Description   string       `json:"description" validate:"required"`
	Price         *float64     `json:"price" validate:"required,gte=0"`
	DiscountPrice *float64     `json:"discountPrice" validate:"omitempty,gte=0"`
	Category      string       `json:"category" validate:"required"`
	Sizes         []SizeInput  `json:"sizes" validate:"dive"`
	Images        []ImageInput `json:"images" validate:"dive"`
	IsActive      *bool        `json:"isActive"`
}

// ProductUpdate is the body of an update request. Nil fields are left as
// they are; ClearDiscount removes the discount price.
type ProductUpdate struct {
	Name          *string  `json:"name" validate:"omitempty,max=100"`
	Description   *string  `json:"description"`
	Price         *float64 `json:"price" validate:"omitempty,gte=0"`
	DiscountPrice *float64 `json:"discountPrice" validate:"omitempty,gte=0"`
	ClearDiscount bool     `json:"clearDiscount"`
	Category      *string  `json:"category"`
	IsActive      *bool    `json:"isActive"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo       repositories.ProductRepository
	categories repositories.CategoryRepository
	events     EventPublisher
	validate   *validator.Validate
	now        func() time.Time
}

// NewProductService creates a new ProductService. events may be nil.
func NewProductService(repo repositories.ProductRepository, categories repositories.CategoryRepository, events EventPublisher) *ProductService {
	return &ProductService{
		repo:       repo,
		categories: categories,
		events:     events,
		validate:   newValidator(),
		now:        time.Now,
	}
}

// ListActive returns every product that has not been soft-deleted.
func (s *ProductService) ListActive(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list products")
	}
	s.populateCategories(ctx, products)
	return products, nil
}

// GetActiveBySlug returns the product with slug unless it has been soft-deleted.
func (s *ProductService) GetActiveBySlug(ctx context.Context, productSlug string) (*models.Product, error) {
	if !slug.Valid(productSlug) {
		return nil, apperr.NotFound("Product not found")
	}
	product, err := s.repo.GetActiveBySlug(ctx, productSlug)
	if err != nil {
		return nil, productError(err, "failed to get product %s", productSlug)
	}
	s.populateCategory(ctx, product)
	return product, nil
}

// GetByID returns a product including soft-deleted ones.
func (s *ProductService) GetByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, productError(err, "failed to get product %s", id)
	}
	s.populateCategory(ctx, product)
	return product, nil
}

// Create validates input and stores a new active product owned by creatorID.
func (s *ProductService) Create(ctx context.Context, input ProductInput, creatorID string) (*models.Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.Category = strings.TrimSpace(input.Category)
	for i := range input.Sizes {
		input.Sizes[i].Size = strings.TrimSpace(input.Sizes[i].Size)
	}
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}
	if err := checkDiscount(*input.Price, input.DiscountPrice); err != nil {
		return nil, err
	}
	if err := checkSizes(input.Sizes); err != nil {
		return nil, err
	}
	productSlug, err := deriveSlug(input.Name)
	if err != nil {
		return nil, err
	}
	category, err := s.requireCategory(ctx, input.Category)
	if err != nil {
		return nil, err
	}

	now := s.now()
	product := &models.Product{
		Name:          input.Name,
		Slug:          productSlug,
		Description:   input.Description,
		Price:         *input.Price,
		DiscountPrice: input.DiscountPrice,
		CategoryID:    category.ID,
		UserID:        creatorID,
		Sizes:         make([]models.ProductSize, 0, len(input.Sizes)),
		Images:        make([]models.ProductImage, 0, len(input.Images)),
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	for _, sz := range input.Sizes {
		product.Sizes = append(product.Sizes, models.ProductSize{Size: sz.Size, Stock: sz.Stock})
	}
	for _, img := range input.Images {
		product.Images = append(product.Images, models.ProductImage{URL: img.URL, PublicID: img.PublicID, CreatedAt: now})
	}

	if err := s.repo.Create(ctx, product); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperr.Conflict("A product with slug '%s' already exists", productSlug)
		}
		return nil, apperr.Internal(err, "failed to create product")
	}
	product.Category = category

	log.Info().Str("product_id", product.ID).Str("slug", product.Slug).Msg("product created")
	publishEvent(s.events, EventProductCreated, map[string]interface{}{
		"productId": product.ID,
		"slug":      product.Slug,
		"user":      creatorID,
	})
	return product, nil
}

// Update applies the non-nil fields of input. Stock and images are not
// touched. The merged product is validated as a whole and only the supplied
// fields are written, guarded by the version that was read; a concurrent
// write in between fails the update with Conflict. Soft-deleted products
// must be restored before they can be updated.
func (s *ProductService) Update(ctx context.Context, id string, input ProductUpdate) (*models.Product, error) {
	input.Name = trimmed(input.Name)
	input.Description = trimmed(input.Description)
	input.Category = trimmed(input.Category)
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, productError(err, "failed to get product %s", id)
	}
	if product.IsDeleted {
		return nil, apperr.Validation("Product has been deleted and must be restored before it can be updated")
	}

	changes := repositories.ProductChanges{UpdatedAt: s.now()}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperr.Validation("name is required")
		}
		if *input.Name != product.Name {
			productSlug, err := deriveSlug(*input.Name)
			if err != nil {
				return nil, err
			}
			changes.Name = input.Name
			changes.Slug = &productSlug
		}
	}
	if input.Description != nil {
		if *input.Description == "" {
			return nil, apperr.Validation("description is required")
		}
		changes.Description = input.Description
	}
	price := product.Price
	if input.Price != nil {
		price = *input.Price
		changes.Price = input.Price
	}
	discount := product.DiscountPrice
	if input.ClearDiscount {
		discount = nil
		changes.ClearDiscount = true
	} else if input.DiscountPrice != nil {
		discount = input.DiscountPrice
		changes.DiscountPrice = input.DiscountPrice
	}
	if err := checkDiscount(price, discount); err != nil {
		return nil, err
	}
	if input.Category != nil && *input.Category != product.CategoryID {
		category, err := s.requireCategory(ctx, *input.Category)
		if err != nil {
			return nil, err
		}
		changes.CategoryID = &category.ID
	}
	changes.IsActive = input.IsActive

	if err := s.repo.UpdateDetails(ctx, id, product.Version, changes); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, apperr.Conflict("A product with slug '%s' already exists", *changes.Slug)
		case errors.Is(err, repositories.ErrStale):
			return nil, apperr.Conflict("Product was modified by another request, please retry")
		}
		return nil, productError(err, "failed to update product %s", id)
	}
	return s.GetByID(ctx, id)
}

// SoftDelete hides the product from the catalogue while keeping its record.
func (s *ProductService) SoftDelete(ctx context.Context, id string) (*models.Product, error) {
	if err := s.repo.SoftDelete(ctx, id, s.now()); err != nil {
		return nil, productError(err, "failed to delete product %s", id)
	}
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, productError(err, "failed to get product %s", id)
	}
	log.Info().Str("product_id", id).Msg("product soft-deleted")
	publishEvent(s.events, EventProductDeleted, map[string]interface{}{"productId": id})
	return product, nil
}

// Restore reverses SoftDelete.
func (s *ProductService) Restore(ctx context.Context, id string) (*models.Product, error) {
	if err := s.repo.Restore(ctx, id); err != nil {
		return nil, productError(err, "failed to restore product %s", id)
	}
	return s.GetByID(ctx, id)
}

// UpdateStock adds delta to the stock of one size. The stock never drops
// below zero; a failed change leaves it untouched.
func (s *ProductService) UpdateStock(ctx context.Context, id, size string, delta int) ([]models.ProductSize, error) {
	size = strings.TrimSpace(size)
	if size == "" {
		return nil, apperr.Validation("size is required")
	}
	sizes, err := s.repo.AdjustStock(ctx, id, size, delta)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrSizeNotFound):
			return nil, apperr.SizeNotFound("Size '%s' not found for this product", size)
		case errors.Is(err, repositories.ErrInsufficientStock):
			return nil, apperr.InsufficientStock("Insufficient stock for size '%s'", size)
		}
		return nil, productError(err, "failed to update stock of product %s", id)
	}
	log.Debug().Str("product_id", id).Str("size", size).Int("delta", delta).Msg("stock updated")
	return sizes, nil
}

// AddImage appends an image reference to the product.
func (s *ProductService) AddImage(ctx context.Context, id, url, publicID string) ([]models.ProductImage, error) {
	if strings.TrimSpace(url) == "" {
		return nil, apperr.Validation("url is required")
	}
	images, err := s.repo.AddImage(ctx, id, models.ProductImage{URL: url, PublicID: publicID, CreatedAt: s.now()})
	if err != nil {
		return nil, productError(err, "failed to add image to product %s", id)
	}
	return images, nil
}

func (s *ProductService) requireCategory(ctx context.Context, id string) (*models.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.Validation("Category '%s' does not exist", id)
		}
		return nil, apperr.Internal(err, "failed to look up category %s", id)
	}
	return category, nil
}

func (s *ProductService) populateCategory(ctx context.Context, product *models.Product) {
	category, err := s.categories.GetByID(ctx, product.CategoryID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			log.Warn().Err(err).Str("category_id", product.CategoryID).Msg("failed to populate category")
		}
		return
	}
	product.Category = category
}

func (s *ProductService) populateCategories(ctx context.Context, products []models.Product) {
	if len(products) == 0 {
		return
	}
	categories, err := s.categories.GetAll(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to populate categories")
		return
	}
	byID := make(map[string]*models.Category, len(categories))
	for i := range categories {
		byID[categories[i].ID] = &categories[i]
	}
	for i := range products {
		products[i].Category = byID[products[i].CategoryID]
	}
}

func deriveSlug(name string) (string, error) {
	s := slug.Make(name)
	if s == "" {
		return "", apperr.Validation("name must contain at least one letter or digit")
	}
	return s, nil
}

// trimmed returns a trimmed copy of an optional string.
func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

func checkDiscount(price float64, discount *float64) error {
	if discount != nil && *discount >= price {
		return apperr.Validation("Discount price must be less than the regular price")
	}
	return nil
}

func checkSizes(sizes []SizeInput) error {
	seen := make(map[string]struct{}, len(sizes))
	for _, sz := range sizes {
		if _, dup := seen[sz.Size]; dup {
			return apperr.Validation("Size '%s' is listed more than once", sz.Size)
		}
		seen[sz.Size] = struct{}{}
	}
	return nil
}

// productError maps repository errors onto API error kinds.
func productError(err error, format string, args ...interface{}) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NotFound("Product not found")
	}
	return apperr.Internal(err, format, args...)
}
