package decision

import (
	"time"
)

type Action string

const (
	ActionApproved           Action = "APPROVED"
	ActionRejected           Action = "REJECTED"
	ActionRequestInfo        Action = "REQUEST_INFO"
	ActionReferredToMinister Action = "REFERRED_TO_MINISTER"
)

func (a Action) Valid() bool {
	switch a {
	case ActionApproved, ActionRejected, ActionRequestInfo, ActionReferredToMinister:
		return true
	}
	return false
}

// Entry is one immutable record of an action taken on an application.
// Actor fields are a snapshot taken at decision time.
type Entry struct {
	ID            string    `bson:"_id" json:"id"`
	ApplicationID string    `bson:"application_id" json:"application_id"`
	Seq           int       `bson:"seq" json:"seq"`
	Action        Action    `bson:"action" json:"action"`
	ActorID       string    `bson:"actor_id" json:"actor_id"`
	ActorName     string    `bson:"actor_name" json:"actor_name"`
	ActorEmail    string    `bson:"actor_email" json:"actor_email"`
	Note          string    `bson:"note,omitempty" json:"note,omitempty"`
	Timestamp     time.Time `bson:"timestamp" json:"timestamp"`
}
