package repositories

import (
	"context"

	"storefront/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserRepository is a MongoDB implementation of UserRepository.
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a repository over the users collection of db.
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users")}
}

// EnsureIndexes creates the unique email index.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	return ensureIndexes(ctx, r.collection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
}

// Create inserts a user; a taken email yields ErrDuplicate.
func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return insertOne(ctx, r.collection, user)
}

// GetByEmail returns a user by their email.
func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := findOne(ctx, r.collection, bson.M{"email": email}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID returns a user by their ID.
func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
