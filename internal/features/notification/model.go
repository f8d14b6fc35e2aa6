package notification

import (
	"go-travel/internal/common/models"
	"go-travel/internal/features/application"
)

// EventKind names an outcome that may be announced by email. The values
// match the flag and template keys in the settings document.
type EventKind string

const (
	EventSubmitted        EventKind = "applicationSubmitted"
	EventApproved         EventKind = "applicationApproved"
	EventRejected         EventKind = "applicationRejected"
	EventInfoRequested    EventKind = "infoRequested"
	EventMinisterReferral EventKind = "ministerReferral"
)

// Event is emitted once a workflow change has committed.
type Event struct {
	Kind        EventKind
	Application application.Application
	Actor       models.Actor
	Note        string
}
