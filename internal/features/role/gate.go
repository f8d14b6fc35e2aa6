package role

import (
	"slices"

	"go-travel/internal/common/models"
)

// Allows reports whether roleSet and required intersect.
func Allows(roleSet []Role, required []Role) bool {
	for _, r := range roleSet {
		if slices.Contains(required, r) {
			return true
		}
	}
	return false
}

func RequiredFor(q Queue) []Role {
	return queueRoles[q]
}

func CanView(roleSet []Role, q Queue) bool {
	return Allows(roleSet, queueRoles[q])
}

// StatusesFor returns the statuses listed by a queue.
func StatusesFor(q Queue) []models.ApplicationStatus {
	return slices.Clone(queueStatuses[q])
}

// CanActOn reports whether an actor may issue a workflow action on an
// application in status s, i.e. whether s sits in a queue the actor can open.
func CanActOn(roleSet []Role, s models.ApplicationStatus) bool {
	q, ok := decisionQueues[s]
	if !ok {
		return false
	}
	return CanView(roleSet, q)
}

func ActorRoles(a models.Actor) []Role {
	return Parse(a.Roles)
}

// CanSee reports whether any queue the actor can open lists status s.
func CanSee(roleSet []Role, s models.ApplicationStatus) bool {
	for q, statuses := range queueStatuses {
		if CanView(roleSet, q) && slices.Contains(statuses, s) {
			return true
		}
	}
	return false
}
