package email

import (
	"context"
	"time"

	"go-travel/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type EmailRepository interface {
	Create(ctx context.Context, email *Email) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status EmailStatus, messageID string, errorMsg string) error
	List(ctx context.Context, filters map[string]interface{}, limit, offset int64) ([]Email, error)
}

type EmailRepositoryImpl struct {
	col *mongo.Collection
}

func NewEmailRepository(db *database.MongodbDB) EmailRepository {
	return &EmailRepositoryImpl{
		col: db.DB.Collection("emails"),
	}
}

func (r *EmailRepositoryImpl) Create(ctx context.Context, email *Email) error {
	if email.ID.IsZero() {
		email.ID = primitive.NewObjectID()
	}
	email.CreatedAt = time.Now()
	_, err := r.col.InsertOne(ctx, email)
	return err
}

func (r *EmailRepositoryImpl) UpdateStatus(
	ctx context.Context,
	id primitive.ObjectID,
	status EmailStatus,
	messageID string,
	errorMsg string,
) error {
	set := bson.M{
		"status":       status,
		"errorMessage": errorMsg,
	}
	if messageID != "" {
		set["messageId"] = messageID
	}
	if status == EmailSent {
		set["sentAt"] = time.Now()
	}
	_, err := r.col.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

func (r *EmailRepositoryImpl) List(ctx context.Context, filters map[string]interface{}, limit, offset int64) ([]Email, error) {
	filter := bson.M{}
	for k, v := range filters {
		filter[k] = v
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	emails := []Email{}
	if err := cursor.All(ctx, &emails); err != nil {
		return nil, err
	}
	return emails, nil
}
