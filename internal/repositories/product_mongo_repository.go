package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoProductRepository stores products as documents with embedded sizes
// and images.
type MongoProductRepository struct {
	collection *mongo.Collection
}

// NewMongoProductRepository creates a repository over the products collection of db.
func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{
		collection: db.Collection("products"),
	}
}

// EnsureIndexes creates the unique slug index the repository relies on.
func (r *MongoProductRepository) EnsureIndexes(ctx context.Context) error {
	return ensureIndexes(ctx, r.collection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "isDeleted", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	})
}

// ListActive returns the products that are not soft-deleted, oldest first.
func (r *MongoProductRepository) ListActive(ctx context.Context) ([]models.Product, error) {
	products := make([]models.Product, 0)
	err := findAll(ctx, r.collection, bson.M{"isDeleted": false}, bson.D{{Key: "createdAt", Value: 1}}, &products)
	if err != nil {
		return nil, err
	}
	return products, nil
}

// GetActiveBySlug returns a product that is not soft-deleted by its slug.
func (r *MongoProductRepository) GetActiveBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := findOne(ctx, r.collection, bson.M{"slug": slug, "isDeleted": false}, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// GetByID returns a product by its ID, deleted or not.
func (r *MongoProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Create inserts the product document; a taken slug yields ErrDuplicate.
func (r *MongoProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	// $push needs an array, never null.
	if product.Sizes == nil {
		product.Sizes = []models.ProductSize{}
	}
	if product.Images == nil {
		product.Images = []models.ProductImage{}
	}
	return insertOne(ctx, r.collection, product)
}

// UpdateDetails sets the supplied fields when the document is still at
// version and not soft-deleted.
func (r *MongoProductRepository) UpdateDetails(ctx context.Context, id string, version int, changes ProductChanges) error {
	set := bson.M{"updatedAt": changes.UpdatedAt}
	if changes.Name != nil {
		set["name"] = *changes.Name
	}
	if changes.Slug != nil {
		set["slug"] = *changes.Slug
	}
	if changes.Description != nil {
		set["description"] = *changes.Description
	}
	if changes.Price != nil {
		set["price"] = *changes.Price
	}
	if changes.ClearDiscount {
		set["discountPrice"] = nil
	} else if changes.DiscountPrice != nil {
		set["discountPrice"] = *changes.DiscountPrice
	}
	if changes.CategoryID != nil {
		set["category"] = *changes.CategoryID
	}
	if changes.IsActive != nil {
		set["isActive"] = *changes.IsActive
	}

	filter := bson.M{"_id": id, "version": version, "isDeleted": false}
	matched, err := updateOne(ctx, r.collection, filter, bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	})
	if err != nil {
		return err
	}
	if matched > 0 {
		return nil
	}
	found, err := exists(ctx, r.collection, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return ErrStale
}

// SoftDelete flags the product as deleted and inactive.
func (r *MongoProductRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	return updateByID(ctx, r.collection, id, bson.M{"$set": bson.M{
		"isDeleted": true,
		"deletedAt": at,
		"isActive":  false,
		"updatedAt": at,
	}, "$inc": bson.M{"version": 1}})
}

// Restore reverts SoftDelete.
func (r *MongoProductRepository) Restore(ctx context.Context, id string) error {
	return updateByID(ctx, r.collection, id, bson.M{
		"$set":   bson.M{"isDeleted": false, "isActive": true, "updatedAt": time.Now()},
		"$unset": bson.M{"deletedAt": ""},
		"$inc":   bson.M{"version": 1},
	})
}

// AdjustStock matches the size element only when the result stays
// non-negative and increments it in the same operation.
func (r *MongoProductRepository) AdjustStock(ctx context.Context, id, size string, delta int) ([]models.ProductSize, error) {
	writeCtx, cancel := context.WithTimeout(ctx, mongoWriteTimeout)
	defer cancel()

	filter := bson.M{
		"_id": id,
		"sizes": bson.M{"$elemMatch": bson.M{
			"size":  size,
			"stock": bson.M{"$gte": -delta},
		}},
	}
	update := bson.M{
		"$inc": bson.M{"sizes.$.stock": delta},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	var product models.Product
	err := r.collection.FindOneAndUpdate(writeCtx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&product)
	if err == nil {
		return product.Sizes, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to adjust stock of product %s: %w", id, err)
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, ok := current.SizeStock(size); !ok {
		return nil, ErrSizeNotFound
	}
	return nil, ErrInsufficientStock
}

// AddImage pushes image onto the embedded images array.
func (r *MongoProductRepository) AddImage(ctx context.Context, id string, image models.ProductImage) ([]models.ProductImage, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoWriteTimeout)
	defer cancel()

	var product models.Product
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"images": image},
		"$set":  bson.M{"updatedAt": time.Now()},
	}, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to add image to product %s: %w", id, err)
	}
	return product.Images, nil
}
