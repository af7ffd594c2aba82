package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
)

// MemoryCategoryRepository is an in-memory implementation of CategoryRepository.
type MemoryCategoryRepository struct {
	categories map[string]models.Category
	mu         sync.RWMutex
}

func NewMemoryCategoryRepository() *MemoryCategoryRepository {
	return &MemoryCategoryRepository{
		categories: make(map[string]models.Category),
	}
}

func (r *MemoryCategoryRepository) GetAll(_ context.Context) ([]models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.Category, 0, len(r.categories))
	for _, c := range r.categories {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (r *MemoryCategoryRepository) GetByID(_ context.Context, id string) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (r *MemoryCategoryRepository) GetBySlug(_ context.Context, slug string) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.categories {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryCategoryRepository) slugTaken(slug, exceptID string) bool {
	for id, c := range r.categories {
		if id != exceptID && c.Slug == slug {
			return true
		}
	}
	return false
}

func (r *MemoryCategoryRepository) Create(_ context.Context, category *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	if _, ok := r.categories[category.ID]; ok || r.slugTaken(category.Slug, category.ID) {
		return ErrDuplicate
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now()
		category.UpdatedAt = category.CreatedAt
	}
	r.categories[category.ID] = *category
	return nil
}

func (r *MemoryCategoryRepository) Update(_ context.Context, category *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.categories[category.ID]
	if !ok {
		return ErrNotFound
	}
	if r.slugTaken(category.Slug, category.ID) {
		return ErrDuplicate
	}
	stored.Name = category.Name
	stored.Slug = category.Slug
	stored.Description = category.Description
	stored.UpdatedAt = category.UpdatedAt
	r.categories[category.ID] = stored
	return nil
}

func (r *MemoryCategoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[id]; !ok {
		return ErrNotFound
	}
	delete(r.categories, id)
	return nil
}
