package settings

import (
	"context"
	"time"

	"go-travel/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SettingsRepository interface {
	// Load returns the raw JSON document, or nil when none was ever saved.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, doc []byte, actorID string) error
}

type SettingsRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewSettingsRepository(mongodb *database.MongodbDB) SettingsRepository {
	return &SettingsRepositoryImpl{
		Collection: mongodb.DB.Collection("settings"),
	}
}

func (r *SettingsRepositoryImpl) Load(ctx context.Context) ([]byte, error) {
	var stored struct {
		Data bson.Raw `bson:"data"`
	}
	err := r.Collection.FindOne(ctx, bson.M{"_id": documentKey}).Decode(&stored)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	if len(stored.Data) == 0 {
		return []byte("{}"), nil
	}
	return bson.MarshalExtJSON(stored.Data, false, false)
}

// Save upserts the single document under its fixed key; the last write wins.
func (r *SettingsRepositoryImpl) Save(ctx context.Context, doc []byte, actorID string) error {
	var data bson.D
	if err := bson.UnmarshalExtJSON(doc, false, &data); err != nil {
		return err
	}

	update := bson.M{
		"$set": bson.M{
			"data":       data,
			"updated_at": time.Now(),
			"updated_by": actorID,
		},
	}
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": documentKey}, update, options.Update().SetUpsert(true))
	return err
}
