package decision

import (
	"context"
	"errors"
	"time"

	"go-travel/internal/common/errs"
	"go-travel/internal/common/models"

	"github.com/google/uuid"
)

// DecisionLog is the append-only audit trail of workflow actions.
type DecisionLog interface {
	Record(ctx context.Context, applicationID string, action Action, actor models.Actor, note string, now time.Time) (Entry, error)
	ListFor(ctx context.Context, applicationID string) ([]Entry, error)
}

type DecisionLogImpl struct {
	Repo DecisionRepository
}

func NewDecisionLog(repo DecisionRepository) DecisionLog {
	return &DecisionLogImpl{Repo: repo}
}

// Record builds the next entry for the application and appends it.
func (l *DecisionLogImpl) Record(ctx context.Context, applicationID string, action Action, actor models.Actor, note string, now time.Time) (Entry, error) {
	prev, err := l.Repo.Last(ctx, applicationID)
	if err != nil {
		return Entry{}, errs.Persistence(err, "read last decision")
	}

	entry := NewEntry(prev, applicationID, action, actor, note, now)
	if err := l.Repo.Append(ctx, entry); err != nil {
		if errors.Is(err, ErrSeqTaken) {
			return Entry{}, err
		}
		return Entry{}, errs.Persistence(err, "append decision")
	}
	return entry, nil
}

func (l *DecisionLogImpl) ListFor(ctx context.Context, applicationID string) ([]Entry, error) {
	entries, err := l.Repo.ListFor(ctx, applicationID)
	if err != nil {
		return nil, errs.Persistence(err, "list decisions")
	}
	return entries, nil
}

// NewEntry snapshots the actor and places the entry after prev. The
// timestamp is truncated to the store's millisecond precision and never
// earlier than prev's.
func NewEntry(prev *Entry, applicationID string, action Action, actor models.Actor, note string, now time.Time) Entry {
	ts := now.UTC().Truncate(time.Millisecond)
	seq := 1
	if prev != nil {
		seq = prev.Seq + 1
		if ts.Before(prev.Timestamp) {
			ts = prev.Timestamp
		}
	}

	return Entry{
		ID:            uuid.NewString(),
		ApplicationID: applicationID,
		Seq:           seq,
		Action:        action,
		ActorID:       actor.ID,
		ActorName:     actor.FullName(),
		ActorEmail:    actor.Email,
		Note:          note,
		Timestamp:     ts,
	}
}
