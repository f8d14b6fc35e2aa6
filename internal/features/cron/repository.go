package cron_feature

import (
	"context"

	"go-travel/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type JobRunRepository interface {
	Create(ctx context.Context, run *JobRun) error
	Recent(ctx context.Context, job string, limit int) ([]JobRun, error)
}

type JobRunRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewJobRunRepository(mongodb *database.MongodbDB) JobRunRepository {
	return &JobRunRepositoryImpl{
		Collection: mongodb.DB.Collection("cron_job_logs"),
	}
}

func (r *JobRunRepositoryImpl) Create(ctx context.Context, run *JobRun) error {
	if run.ID.IsZero() {
		run.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, run)
	return err
}

func (r *JobRunRepositoryImpl) Recent(ctx context.Context, job string, limit int) ([]JobRun, error) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().SetSort(bson.M{"started_at": -1}).SetLimit(int64(limit))

	cursor, err := r.Collection.Find(ctx, bson.M{"job": job}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	runs := []JobRun{}
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}
