package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type CategoryUpdate struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// CategoryService manages product categories.
type CategoryService struct {
	repo     repositories.CategoryRepository
	validate *validator.Validate
	now      func() time.Time
}

func NewCategoryService(repo repositories.CategoryRepository) *CategoryService {
	return &CategoryService{
		repo:     repo,
		validate: newValidator(),
		now:      time.Now,
	}
}

// List returns all categories sorted by name.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list categories")
	}
	return categories, nil
}

func (s *CategoryService) Create(ctx context.Context, input CategoryInput) (*models.Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}
	categorySlug, err := deriveSlug(input.Name)
	if err != nil {
		return nil, err
	}

	now := s.now()
	category := &models.Category{
		Name:        input.Name,
		Slug:        categorySlug,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, categoryError(err, categorySlug)
	}
	log.Info().Str("category_id", category.ID).Str("slug", category.Slug).Msg("category created")
	return category, nil
}

// Update finds the category by slug; renaming it regenerates the slug.
func (s *CategoryService) Update(ctx context.Context, categorySlug string, input CategoryUpdate) (*models.Category, error) {
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}
	category, err := s.repo.GetBySlug(ctx, categorySlug)
	if err != nil {
		return nil, categoryError(err, categorySlug)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperr.Validation("name is required")
		}
		newSlug, err := deriveSlug(name)
		if err != nil {
			return nil, err
		}
		category.Name = name
		category.Slug = newSlug
	}
	if input.Description != nil {
		category.Description = strings.TrimSpace(*input.Description)
	}
	category.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, category); err != nil {
		return nil, categoryError(err, category.Slug)
	}
	return category, nil
}

func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return categoryError(err, id)
	}
	log.Info().Str("category_id", id).Msg("category deleted")
	return nil
}

func categoryError(err error, ref string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return apperr.NotFound("Category not found")
	case errors.Is(err, repositories.ErrDuplicate):
		return apperr.Conflict("A category with slug '%s' already exists", ref)
	}
	return apperr.Internal(err, "category %s", ref)
}
