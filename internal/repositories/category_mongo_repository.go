package repositories

import (
	"context"
	"fmt"

	"storefront/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCategoryRepository is a MongoDB implementation of CategoryRepository.
type MongoCategoryRepository struct {
	collection *mongo.Collection
}

// NewMongoCategoryRepository creates a repository over the categories collection of db.
func NewMongoCategoryRepository(db *mongo.Database) *MongoCategoryRepository {
	return &MongoCategoryRepository{collection: db.Collection("categories")}
}

// EnsureIndexes creates the unique slug index.
func (r *MongoCategoryRepository) EnsureIndexes(ctx context.Context) error {
	return ensureIndexes(ctx, r.collection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
}

// GetAll returns every category sorted by name.
func (r *MongoCategoryRepository) GetAll(ctx context.Context) ([]models.Category, error) {
	categories := make([]models.Category, 0)
	if err := findAll(ctx, r.collection, bson.M{}, bson.D{{Key: "name", Value: 1}}, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// GetByID returns a category by its ID.
func (r *MongoCategoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// GetBySlug returns a category by its slug.
func (r *MongoCategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := findOne(ctx, r.collection, bson.M{"slug": slug}, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// Create inserts a category; a taken slug yields ErrDuplicate.
func (r *MongoCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	return insertOne(ctx, r.collection, category)
}

// Update rewrites the name, slug and description of a category.
func (r *MongoCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	return updateByID(ctx, r.collection, category.ID, bson.M{"$set": bson.M{
		"name":        category.Name,
		"slug":        category.Slug,
		"description": category.Description,
		"updatedAt":   category.UpdatedAt,
	}})
}

// Delete removes a category by its ID.
func (r *MongoCategoryRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, mongoWriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete category %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
