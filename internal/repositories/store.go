package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Store bundles the repositories of one storage backend.
type Store struct {
	Products   ProductRepository
	Categories CategoryRepository
	Orders     OrderRepository
	Users      UserRepository
}

// NewGORMStore returns repositories backed by a SQL database.
func NewGORMStore(db *gorm.DB) *Store {
	return &Store{
		Products:   NewGORMProductRepository(db),
		Categories: NewGORMCategoryRepository(db),
		Orders:     NewGORMOrderRepository(db),
		Users:      NewGORMUserRepository(db),
	}
}

// NewMemoryStore returns repositories that keep everything in process memory.
func NewMemoryStore() *Store {
	return &Store{
		Products:   NewMemoryProductRepository(),
		Categories: NewMemoryCategoryRepository(),
		Orders:     NewMemoryOrderRepository(),
		Users:      NewMemoryUserRepository(),
	}
}

// NewMongoStore returns repositories backed by MongoDB after creating the
// indexes they depend on.
func NewMongoStore(ctx context.Context, db *mongo.Database) (*Store, error) {
	products := NewMongoProductRepository(db)
	categories := NewMongoCategoryRepository(db)
	orders := NewMongoOrderRepository(db)
	users := NewMongoUserRepository(db)

	for _, idx := range []interface{ EnsureIndexes(context.Context) error }{products, categories, orders, users} {
		if err := idx.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
	}
	return &Store{
		Products:   products,
		Categories: categories,
		Orders:     orders,
		Users:      users,
	}, nil
}
