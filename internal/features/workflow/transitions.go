package workflow

import (
	"go-travel/internal/common/models"
	"go-travel/internal/features/decision"
	"go-travel/internal/features/notification"
)

// Transition is one legal decision. Effects are data so the same table
// drives Decide and the log replay.
type Transition struct {
	From   models.ApplicationStatus
	Action decision.Action
	To     models.ApplicationStatus

	SetsDecidedAt    bool
	SetsArchivedAt   bool
	CapturesMinister bool

	// Event is announced after commit; empty means nothing is sent.
	Event notification.EventKind
}

var transitions = []Transition{
	{
		From: models.StatusInReview, Action: decision.ActionApproved, To: models.StatusArchived,
		SetsDecidedAt: true, SetsArchivedAt: true, Event: notification.EventApproved,
	},
	{
		From: models.StatusInReview, Action: decision.ActionRejected, To: models.StatusRejected,
		SetsDecidedAt: true, Event: notification.EventRejected,
	},
	{
		From: models.StatusInReview, Action: decision.ActionRequestInfo, To: models.StatusInReview,
		Event: notification.EventInfoRequested,
	},
	{
		From: models.StatusInReview, Action: decision.ActionReferredToMinister, To: models.StatusReferredToMinister,
		CapturesMinister: true, Event: notification.EventMinisterReferral,
	},
	{
		From: models.StatusReferredToMinister, Action: decision.ActionApproved, To: models.StatusMinisterApproved,
		SetsDecidedAt: true,
	},
	{
		From: models.StatusReferredToMinister, Action: decision.ActionRejected, To: models.StatusMinisterRejected,
		SetsDecidedAt: true, Event: notification.EventRejected,
	},
	{
		From: models.StatusMinisterApproved, Action: decision.ActionApproved, To: models.StatusArchived,
		SetsArchivedAt: true, Event: notification.EventApproved,
	},
}

type transitionKey struct {
	from   models.ApplicationStatus
	action decision.Action
}

var transitionIndex = func() map[transitionKey]Transition {
	idx := make(map[transitionKey]Transition, len(transitions))
	for _, t := range transitions {
		idx[transitionKey{t.From, t.Action}] = t
	}
	return idx
}()

func Lookup(from models.ApplicationStatus, action decision.Action) (Transition, bool) {
	t, ok := transitionIndex[transitionKey{from, action}]
	return t, ok
}

// Transitions returns a copy of the table.
func Transitions() []Transition {
	return append([]Transition(nil), transitions...)
}
