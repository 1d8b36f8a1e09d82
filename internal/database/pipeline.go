package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// LookupOne joins a single referenced document from another collection into field `as`.
// Dangling references decode as nil.
func LookupOne(from, localField, as string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{"from": from, "localField": localField, "foreignField": "_id", "as": as}}},
		{{Key: "$unwind", Value: bson.M{"path": "$" + as, "preserveNullAndEmptyArrays": true}}},
	}
}

// LookupMany joins an array of references into field `as`.
func LookupMany(from, localField, as string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{"from": from, "localField": localField, "foreignField": "_id", "as": as}}},
	}
}

// FindPage runs match, sort, skip and limit followed by the given join stages,
// and returns the page together with the unpaged total.
func FindPage[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, sort bson.D, skip, limit int64, joins ...mongo.Pipeline) ([]T, int64, error) {
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: sort}},
		{{Key: "$skip", Value: skip}},
		{{Key: "$limit", Value: limit}},
	}
	for _, j := range joins {
		pipeline = append(pipeline, j...)
	}

	items, err := Aggregate[T](ctx, coll, pipeline)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// FindOneJoined fetches a single document by filter with join stages applied.
// It returns mongo.ErrNoDocuments when nothing matches.
func FindOneJoined[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, joins ...mongo.Pipeline) (*T, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$limit", Value: 1}},
	}
	for _, j := range joins {
		pipeline = append(pipeline, j...)
	}

	items, err := Aggregate[T](ctx, coll, pipeline)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, mongo.ErrNoDocuments
	}
	return &items[0], nil
}

func Aggregate[T any](ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline) ([]T, error) {
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]T, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}
