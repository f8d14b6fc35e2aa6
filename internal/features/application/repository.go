package application

import (
	"context"
	"fmt"
	"time"

	"go-travel/internal/common/errs"
	"go-travel/internal/common/models"
	"go-travel/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ApplicationRepository interface {
	Create(ctx context.Context, app *Application) error
	FindByID(ctx context.Context, id string) (*Application, error)
	FindByStatus(ctx context.Context, statuses []models.ApplicationStatus) ([]Application, error)
	FindByRequester(ctx context.Context, requesterID string) ([]Application, error)
	FindArchived(ctx context.Context) ([]Application, error)
	UpdateDraft(ctx context.Context, id string, draft Draft) error
	ApplyStatus(ctx context.Context, id string, expected models.ApplicationStatus, change StatusChange) error
	EnsureIndexes(ctx context.Context) error
}

type ApplicationRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewApplicationRepository(mongodb *database.MongodbDB) ApplicationRepository {
	return &ApplicationRepositoryImpl{
		Collection: mongodb.DB.Collection("applications"),
	}
}

func (r *ApplicationRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "requester_id", Value: 1}}},
		{Keys: bson.D{{Key: "archived_at", Value: -1}}},
		{
			Keys:    bson.D{{Key: "application_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{"application_number": bson.M{"$type": "string"}}),
		},
	})
	return err
}

func (r *ApplicationRepositoryImpl) Create(ctx context.Context, app *Application) error {
	if app.ID.IsZero() {
		app.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, app)
	return err
}

func (r *ApplicationRepositoryImpl) FindByID(ctx context.Context, id string) (*Application, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.ErrNotFound
	}

	var app Application
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&app)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &app, nil
}

func (r *ApplicationRepositoryImpl) FindByStatus(ctx context.Context, statuses []models.ApplicationStatus) ([]Application, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: 1}, {Key: "created_at", Value: 1}})
	return r.find(ctx, bson.M{"status": bson.M{"$in": statuses}}, opts)
}

func (r *ApplicationRepositoryImpl) FindByRequester(ctx context.Context, requesterID string) ([]Application, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	return r.find(ctx, bson.M{"requester_id": requesterID}, opts)
}

func (r *ApplicationRepositoryImpl) FindArchived(ctx context.Context) ([]Application, error) {
	opts := options.Find().SetSort(bson.M{"archived_at": -1})
	return r.find(ctx, bson.M{"status": models.StatusArchived}, opts)
}

func (r *ApplicationRepositoryImpl) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]Application, error) {
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	apps := []Application{}
	if err = cursor.All(ctx, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// UpdateDraft only matches applications still in DRAFT.
func (r *ApplicationRepositoryImpl) UpdateDraft(ctx context.Context, id string, draft Draft) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errs.ErrNotFound
	}

	update := bson.M{
		"$set": bson.M{
			"purpose":        draft.Purpose,
			"destination":    draft.Destination,
			"departure_date": draft.DepartureDate,
			"return_date":    draft.ReturnDate,
			"travellers":     draft.Travellers,
			"expenses":       draft.Expenses,
			"updated_at":     time.Now(),
		},
	}
	res, err := r.Collection.UpdateOne(ctx, bson.M{"_id": oid, "status": models.StatusDraft}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return r.missOrConflict(ctx, oid, models.StatusDraft)
	}
	return nil
}

// ApplyStatus writes a transition only while the stored status still equals
// expected, so two racing transitions cannot both commit.
func (r *ApplicationRepositoryImpl) ApplyStatus(ctx context.Context, id string, expected models.ApplicationStatus, change StatusChange) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errs.ErrNotFound
	}

	set := bson.M{
		"status":     change.Status,
		"updated_at": time.Now(),
	}
	if change.ApplicationNumber != nil {
		set["application_number"] = *change.ApplicationNumber
	}
	if change.CurrentReviewerID != nil {
		set["current_reviewer_id"] = *change.CurrentReviewerID
	}
	if change.MinisterEmail != nil {
		set["minister_email"] = *change.MinisterEmail
	}
	if change.SubmittedAt != nil {
		set["submitted_at"] = *change.SubmittedAt
	}
	if change.DecidedAt != nil {
		set["decided_at"] = *change.DecidedAt
	}
	if change.ArchivedAt != nil {
		set["archived_at"] = *change.ArchivedAt
	}

	res, err := r.Collection.UpdateOne(ctx, bson.M{"_id": oid, "status": expected}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return r.missOrConflict(ctx, oid, expected)
	}
	return nil
}

func (r *ApplicationRepositoryImpl) missOrConflict(ctx context.Context, oid primitive.ObjectID, expected models.ApplicationStatus) error {
	n, err := r.Collection.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return fmt.Errorf("application is no longer %s: %w", expected, errs.ErrInvalidTransition)
}
