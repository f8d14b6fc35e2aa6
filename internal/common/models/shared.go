package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ContextKey string

const (
	ActorKey     ContextKey = "actor"
	RequestIDKey ContextKey = "request_id"
)

// Actor is the identity supplied by the auth layer for one request.
type Actor struct {
	ID        string   `json:"id" bson:"id"`
	FirstName string   `json:"first_name" bson:"first_name"`
	LastName  string   `json:"last_name" bson:"last_name"`
	Email     string   `json:"email" bson:"email"`
	Roles     []string `json:"roles" bson:"roles"`
}

func (a Actor) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

type AuditAction string

const (
	AuditActionSettings    AuditAction = "SETTINGS"
	AuditActionApplication AuditAction = "APPLICATION"
)

type Change struct {
	Old interface{} `bson:"old" json:"old"`
	New interface{} `bson:"new" json:"new"`
}

type AuditLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Action    AuditAction        `bson:"action" json:"action"`
	Module    string             `bson:"module" json:"module"`
	RecordID  string             `bson:"record_id" json:"record_id"`
	ActorID   string             `bson:"actor_id" json:"actor_id"`
	Changes   map[string]Change  `bson:"changes,omitempty" json:"changes,omitempty"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

// Log is a mirrored zap entry stored by the async log sink.
type Log struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AppID        string             `bson:"app_id" json:"app_id"`
	Level        int                `bson:"level" json:"level"`
	Message      string             `bson:"message" json:"message"`
	Caller       string             `bson:"caller,omitempty" json:"caller,omitempty"`
	Fields       map[string]any     `bson:"fields,omitempty" json:"fields,omitempty"`
	CreatedOnUtc time.Time          `bson:"created_on_utc" json:"created_on_utc"`
}
