package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoWriteTimeout = 5 * time.Second
	mongoReadTimeout  = 3 * time.Second
	mongoQueryTimeout = 10 * time.Second
)

// findOne decodes the first document matching filter into out.
func findOne(ctx context.Context, coll *mongo.Collection, filter bson.M, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, mongoReadTimeout)
	defer cancel()

	if err := coll.FindOne(ctx, filter).Decode(out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}
	return nil
}

// findAll decodes every document matching filter into out, a pointer to a slice.
func findAll(ctx context.Context, coll *mongo.Collection, filter bson.M, sort bson.D, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, mongoQueryTimeout)
	defer cancel()

	cursor, err := coll.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
	}
	return nil
}

func insertOne(ctx context.Context, coll *mongo.Collection, doc interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, mongoWriteTimeout)
	defer cancel()

	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert into %s: %w", coll.Name(), err)
	}
	return nil
}

// updateByID applies update to the document with the given _id.
func updateByID(ctx context.Context, coll *mongo.Collection, id string, update bson.M) error {
	matched, err := updateOne(ctx, coll, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if matched == 0 {
		return ErrNotFound
	}
	return nil
}

// updateOne applies update to the first document matching filter and
// reports how many documents matched.
func updateOne(ctx context.Context, coll *mongo.Collection, filter, update bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoWriteTimeout)
	defer cancel()

	result, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("failed to update %s: %w", coll.Name(), err)
	}
	return result.MatchedCount, nil
}

// exists reports whether a document with the given _id is stored.
func exists(ctx context.Context, coll *mongo.Collection, id string) (bool, error) {
	var doc bson.M
	err := findOne(ctx, coll, bson.M{"_id": id}, &doc)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func ensureIndexes(ctx context.Context, coll *mongo.Collection, indexes []mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(ctx, mongoQueryTimeout)
	defer cancel()

	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes on %s: %w", coll.Name(), err)
	}
	return nil
}
