package cron_feature

import (
	"context"

	"charity-admin/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "cron_runs"

type CronRepository interface {
	CreateRun(ctx context.Context, run *JobRun) error
	UpdateRun(ctx context.Context, run *JobRun) error
	ListRuns(ctx context.Context, job string, limit int64) ([]JobRun, error)
	EnsureIndexes(ctx context.Context) error
}

type CronRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewCronRepository(mongodb *database.MongodbDB) CronRepository {
	return &CronRepositoryImpl{
		Collection: mongodb.DB.Collection(CollectionName),
	}
}

func (r *CronRepositoryImpl) CreateRun(ctx context.Context, run *JobRun) error {
	if run.ID.IsZero() {
		run.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, run)
	return err
}

func (r *CronRepositoryImpl) UpdateRun(ctx context.Context, run *JobRun) error {
	_, err := r.Collection.UpdateByID(ctx, run.ID, bson.M{"$set": bson.M{
		"status":    run.Status,
		"processed": run.Processed,
		"affected":  run.Affected,
		"error":     run.Error,
		"endTime":   run.EndTime,
	}})
	return err
}

// ListRuns returns the latest runs first, optionally for a single job.
func (r *CronRepositoryImpl) ListRuns(ctx context.Context, job string, limit int64) ([]JobRun, error) {
	filter := bson.M{}
	if job != "" {
		filter["job"] = job
	}
	opts := options.Find().SetSort(bson.D{{Key: "startTime", Value: -1}}).SetLimit(limit)
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	runs := make([]JobRun, 0)
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *CronRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "job", Value: 1}, {Key: "startTime", Value: -1}},
	})
	return err
}
