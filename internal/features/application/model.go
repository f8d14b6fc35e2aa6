package application

import (
	"time"

	"go-travel/internal/common/models"
	"go-travel/internal/features/decision"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Traveller struct {
	Name     string `json:"name" bson:"name" validate:"required"`
	Position string `json:"position" bson:"position"`
}

type Expense struct {
	Type        string  `json:"type" bson:"type" validate:"required"`
	Amount      float64 `json:"amount" bson:"amount" validate:"gte=0"`
	Currency    string  `json:"currency" bson:"currency" validate:"required,len=3"`
	Description string  `json:"description,omitempty" bson:"description,omitempty"`
}

// Draft holds the requester-supplied fields. They are frozen once the
// application leaves DRAFT.
type Draft struct {
	Purpose       string      `json:"purpose" bson:"purpose" validate:"required"`
	Destination   string      `json:"destination" bson:"destination" validate:"required"`
	DepartureDate time.Time   `json:"departure_date" bson:"departure_date" validate:"required"`
	ReturnDate    time.Time   `json:"return_date" bson:"return_date" validate:"required,gtefield=DepartureDate"`
	Travellers    []Traveller `json:"travellers" bson:"travellers" validate:"required,min=1,dive"`
	Expenses      []Expense   `json:"expenses" bson:"expenses" validate:"dive"`
}

type Application struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ApplicationNumber string             `json:"application_number,omitempty" bson:"application_number,omitempty"`

	RequesterID    string `json:"requester_id" bson:"requester_id"`
	RequesterName  string `json:"requester_name" bson:"requester_name"`
	RequesterEmail string `json:"requester_email" bson:"requester_email"`

	Draft `bson:",inline"`

	Status            models.ApplicationStatus `json:"status" bson:"status"`
	CurrentReviewerID string                   `json:"current_reviewer_id,omitempty" bson:"current_reviewer_id,omitempty"`
	MinisterEmail     string                   `json:"minister_email,omitempty" bson:"minister_email,omitempty"`
	SubmittedAt       *time.Time               `json:"submitted_at,omitempty" bson:"submitted_at,omitempty"`
	DecidedAt         *time.Time               `json:"decided_at,omitempty" bson:"decided_at,omitempty"`
	ArchivedAt        *time.Time               `json:"archived_at,omitempty" bson:"archived_at,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`

	// ApprovalLog is hydrated from the decision log, never stored here.
	ApprovalLog []decision.Entry `json:"approval_log" bson:"-"`
}

// TotalsByCurrency sums expenses per currency code.
func (a *Application) TotalsByCurrency() map[string]float64 {
	totals := map[string]float64{}
	for _, e := range a.Expenses {
		totals[e.Currency] += e.Amount
	}
	return totals
}

// StatusChange is the set of workflow-owned fields written by one transition.
// Nil pointers leave the stored value untouched; set timestamps are never cleared.
type StatusChange struct {
	Status            models.ApplicationStatus
	ApplicationNumber *string
	CurrentReviewerID *string
	MinisterEmail     *string
	SubmittedAt       *time.Time
	DecidedAt         *time.Time
	ArchivedAt        *time.Time
}

// Apply mirrors the repository write onto an in-memory copy.
func (c StatusChange) Apply(app *Application) {
	app.Status = c.Status
	if c.ApplicationNumber != nil {
		app.ApplicationNumber = *c.ApplicationNumber
	}
	if c.CurrentReviewerID != nil {
		app.CurrentReviewerID = *c.CurrentReviewerID
	}
	if c.MinisterEmail != nil {
		app.MinisterEmail = *c.MinisterEmail
	}
	if c.SubmittedAt != nil {
		app.SubmittedAt = c.SubmittedAt
	}
	if c.DecidedAt != nil {
		app.DecidedAt = c.DecidedAt
	}
	if c.ArchivedAt != nil {
		app.ArchivedAt = c.ArchivedAt
	}
}
