package repositories

import (
	"context"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoOrderRepository is a MongoDB implementation of OrderRepository.
type MongoOrderRepository struct {
	collection *mongo.Collection
}

// NewMongoOrderRepository creates a repository over the orders collection of db.
func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{collection: db.Collection("orders")}
}

// EnsureIndexes creates the lookup indexes on user and creation time.
func (r *MongoOrderRepository) EnsureIndexes(ctx context.Context) error {
	return ensureIndexes(ctx, r.collection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
}

// GetAll returns every order, newest first.
func (r *MongoOrderRepository) GetAll(ctx context.Context) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	if err := findAll(ctx, r.collection, bson.M{}, bson.D{{Key: "createdAt", Value: -1}}, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetByID returns an order by its ID.
func (r *MongoOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Create inserts an order document with its embedded items.
func (r *MongoOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	return insertOne(ctx, r.collection, order)
}

// UpdateStatus sets the status and its timestamp in one update.
func (r *MongoOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus, at time.Time) error {
	set := bson.M{"status": status, "updatedAt": at}
	switch status {
	case models.OrderDelivered:
		set["deliveredAt"] = at
	case models.OrderCancelled:
		set["cancelledAt"] = at
	case models.OrderRefunded:
		set["refundedAt"] = at
	}
	return updateByID(ctx, r.collection, id, bson.M{"$set": set})
}
