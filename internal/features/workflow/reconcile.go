package workflow

import (
	"time"

	"go-travel/internal/common/models"
	"go-travel/internal/features/application"
	"go-travel/internal/features/decision"
)

// Milestones are the application fields derivable from the decision log.
type Milestones struct {
	Status        models.ApplicationStatus
	DecidedAt     *time.Time
	ArchivedAt    *time.Time
	MinisterEmail string
}

// Replay walks the log through the transition table starting from
// IN_REVIEW, the only status decisions begin from. Entries that were not
// legal at their position, such as the loser of a race, are skipped.
func Replay(entries []decision.Entry) Milestones {
	m := Milestones{Status: models.StatusInReview}
	for _, e := range entries {
		t, ok := Lookup(m.Status, e.Action)
		if !ok {
			continue
		}
		ts := e.Timestamp
		if t.SetsDecidedAt {
			m.DecidedAt = &ts
		}
		if t.SetsArchivedAt {
			m.ArchivedAt = &ts
		}
		if t.CapturesMinister {
			m.MinisterEmail = e.Note
		}
		m.Status = t.To
	}
	return m
}

type LogReconciler struct{}

func NewReconciler() application.Reconciler {
	return &LogReconciler{}
}

// Reconcile overwrites cached timestamps and the minister address with the
// values the log implies. Values the log does not determine are left alone.
func (LogReconciler) Reconcile(app *application.Application) bool {
	if len(app.ApprovalLog) == 0 {
		return false
	}

	m := Replay(app.ApprovalLog)
	changed := false
	if m.DecidedAt != nil && !sameInstant(app.DecidedAt, m.DecidedAt) {
		app.DecidedAt = m.DecidedAt
		changed = true
	}
	if m.ArchivedAt != nil && !sameInstant(app.ArchivedAt, m.ArchivedAt) {
		app.ArchivedAt = m.ArchivedAt
		changed = true
	}
	if m.MinisterEmail != "" && app.MinisterEmail != m.MinisterEmail {
		app.MinisterEmail = m.MinisterEmail
		changed = true
	}
	return changed
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
