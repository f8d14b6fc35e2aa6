package email

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmailStatus string

const (
	EmailQueued EmailStatus = "queued"
	EmailSent   EmailStatus = "sent"
	EmailFailed EmailStatus = "failed"
)

// Email is one delivery attempt as kept in the delivery log.
type Email struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	From      string             `bson:"from" json:"from"`
	To        []string           `bson:"to" json:"to"`
	ReplyTo   string             `bson:"replyTo,omitempty" json:"replyTo,omitempty"`
	Subject   string             `bson:"subject" json:"subject"`
	HtmlBody  string             `bson:"htmlBody,omitempty" json:"htmlBody,omitempty"`
	Status    EmailStatus        `bson:"status" json:"status"`
	Event     string             `bson:"event,omitempty" json:"event,omitempty"`
	EntityID  string             `bson:"entityId,omitempty" json:"entityId,omitempty"`
	MessageID string             `bson:"messageId,omitempty" json:"messageId,omitempty"`
	Transport TransportMode      `bson:"transport,omitempty" json:"transport,omitempty"`
	ErrorMsg  string             `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	SentAt    *time.Time         `bson:"sentAt,omitempty" json:"sentAt,omitempty"`
}

// Message is what callers hand to a Sender.
type Message struct {
	To      []string
	Subject string
	HTML    string
	ReplyTo string

	// Event and EntityID only label the delivery log entry.
	Event    string
	EntityID string
}

type Receipt struct {
	MessageID string
	Accepted  []string
	Transport TransportMode
}
