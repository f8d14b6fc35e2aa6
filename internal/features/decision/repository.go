package decision

import (
	"context"
	"fmt"

	"go-travel/internal/common/errs"
	"go-travel/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DecisionRepository interface {
	Append(ctx context.Context, entry Entry) error
	ListFor(ctx context.Context, applicationID string) ([]Entry, error)
	Last(ctx context.Context, applicationID string) (*Entry, error)
	EnsureIndexes(ctx context.Context) error
}

type DecisionRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewDecisionRepository(mongodb *database.MongodbDB) DecisionRepository {
	return &DecisionRepositoryImpl{
		Collection: mongodb.DB.Collection("decision_entries"),
	}
}

// ErrSeqTaken means another decision claimed the same slot first.
var ErrSeqTaken = fmt.Errorf("decision sequence already taken: %w", errs.ErrInvalidTransition)

// seqIndex allows one entry per (application, seq) slot.
var seqIndex = mongo.IndexModel{
	Keys:    bson.D{{Key: "application_id", Value: 1}, {Key: "seq", Value: 1}},
	Options: options.Index().SetUnique(true),
}

func (r *DecisionRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, seqIndex)
	return err
}

// Append inserts without any dedup check; repeated action+actor pairs are distinct entries.
func (r *DecisionRepositoryImpl) Append(ctx context.Context, entry Entry) error {
	_, err := r.Collection.InsertOne(ctx, entry)
	if mongo.IsDuplicateKeyError(err) {
		return ErrSeqTaken
	}
	return err
}

func (r *DecisionRepositoryImpl) ListFor(ctx context.Context, applicationID string) ([]Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}, {Key: "timestamp", Value: 1}})
	cursor, err := r.Collection.Find(ctx, bson.M{"application_id": applicationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []Entry{}
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *DecisionRepositoryImpl) Last(ctx context.Context, applicationID string) (*Entry, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}})
	var entry Entry
	err := r.Collection.FindOne(ctx, bson.M{"application_id": applicationID}, opts).Decode(&entry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}
