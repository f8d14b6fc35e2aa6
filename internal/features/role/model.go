package role

import (
	"strings"

	"go-travel/internal/common/models"
)

type Role string

const (
	User     Role = "USER"
	Reviewer Role = "REVIEWER"
	Minister Role = "MINISTER"
	Admin    Role = "ADMIN"
)

var all = []Role{User, Reviewer, Minister, Admin}

// Queue is a role-gated view over applications.
type Queue string

const (
	QueueReviewer Queue = "reviewer"
	QueueMinister Queue = "minister"
	QueueAdmin    Queue = "admin"
)

// queueRoles lists the roles that may open each queue. ADMIN is granted
// explicitly per queue, there is no rank inheritance.
var queueRoles = map[Queue][]Role{
	QueueReviewer: {Reviewer, Admin},
	QueueMinister: {Minister, Admin},
	QueueAdmin:    {Admin},
}

var queueStatuses = map[Queue][]models.ApplicationStatus{
	QueueReviewer: {models.StatusSubmitted, models.StatusInReview, models.StatusMinisterApproved},
	QueueMinister: {models.StatusReferredToMinister},
	QueueAdmin:    models.AllStatuses,
}

// decisionQueues is the queue through which a decision on a given status is reachable.
var decisionQueues = map[models.ApplicationStatus]Queue{
	models.StatusSubmitted:          QueueReviewer,
	models.StatusInReview:           QueueReviewer,
	models.StatusMinisterApproved:   QueueReviewer,
	models.StatusReferredToMinister: QueueMinister,
}

// Parse normalises role names and drops anything outside the closed set.
func Parse(names []string) []Role {
	roles := make([]Role, 0, len(names))
	for _, n := range names {
		r := Role(strings.ToUpper(strings.TrimSpace(n)))
		for _, known := range all {
			if r == known {
				roles = append(roles, r)
				break
			}
		}
	}
	return roles
}
