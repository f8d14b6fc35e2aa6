package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-travel/internal/common/errs"
	"go-travel/internal/common/models"
	"go-travel/internal/features/application"
	"go-travel/internal/features/decision"
	"go-travel/internal/features/notification"
	"go-travel/internal/features/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	requester = models.Actor{ID: "u-1", FirstName: "Ana", LastName: "Tabe", Email: "ana@gov.example", Roles: []string{"USER"}}
	reviewerA = models.Actor{ID: "r-a", FirstName: "Lina", LastName: "Harris", Email: "lina@gov.example", Roles: []string{"REVIEWER"}}
	reviewerB = models.Actor{ID: "r-b", FirstName: "Tom", LastName: "Deiye", Email: "tom@gov.example", Roles: []string{"REVIEWER"}}
	minister  = models.Actor{ID: "m-1", FirstName: "Hon", LastName: "Minister", Email: "minister@example.nr", Roles: []string{"MINISTER"}}
	admin     = models.Actor{ID: "a-1", FirstName: "Ada", LastName: "Admin", Roles: []string{"ADMIN"}}
)

type fixture struct {
	svc        *WorkflowServiceImpl
	apps       *MockApplicationRepo
	decisions  *MockDecisionRepo
	tx         *MockTransactor
	seq        *MockSequencer
	dispatcher *MockDispatcher
}

func newFixture(apps ...*application.Application) *fixture {
	f := &fixture{
		apps:       newMockRepo(apps...),
		decisions:  &MockDecisionRepo{},
		seq:        &MockSequencer{},
		dispatcher: &MockDispatcher{},
	}
	f.tx = &MockTransactor{Decisions: f.decisions}
	f.svc = &WorkflowServiceImpl{
		Repo:            f.apps,
		DecisionLog:     decision.NewDecisionLog(f.decisions),
		Transactor:      f.tx,
		Sequencer:       f.seq,
		SettingsService: &MockSettingsService{Doc: settings.Defaults()},
		Dispatcher:      f.dispatcher,
		Logger:          zap.NewNop(),
		Now:             time.Now,
	}
	return f
}

func inStatus(s models.ApplicationStatus) *application.Application {
	return &application.Application{
		RequesterID:    requester.ID,
		RequesterName:  requester.FullName(),
		RequesterEmail: requester.Email,
		Status:         s,
	}
}

func TestTransitionTableIsClosed(t *testing.T) {
	documented := map[models.ApplicationStatus]bool{
		models.StatusSubmitted:          true,
		models.StatusInReview:           true,
		models.StatusRejected:           true,
		models.StatusArchived:           true,
		models.StatusReferredToMinister: true,
		models.StatusMinisterApproved:   true,
		models.StatusMinisterRejected:   true,
	}

	// Opening is the one edge that is not a decision.
	next := map[models.ApplicationStatus][]models.ApplicationStatus{
		models.StatusSubmitted: {models.StatusInReview},
	}
	for _, tr := range Transitions() {
		next[tr.From] = append(next[tr.From], tr.To)

		assert.NotEqual(t, models.StatusSubmitted, tr.To)
		assert.NotEqual(t, models.StatusDraft, tr.To)
		assert.False(t, tr.From.IsTerminal(), "%s is terminal", tr.From)
	}

	seen := map[models.ApplicationStatus]bool{models.StatusSubmitted: true}
	queue := []models.ApplicationStatus{models.StatusSubmitted}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, to := range next[s] {
			if !seen[to] {
				seen[to] = true
				queue = append(queue, to)
			}
		}
	}

	assert.Equal(t, documented, seen)
}

func TestDecideOnTerminalStatusFails(t *testing.T) {
	actions := []decision.Action{decision.ActionApproved, decision.ActionRejected, decision.ActionRequestInfo, decision.ActionReferredToMinister}
	terminal := []models.ApplicationStatus{models.StatusArchived, models.StatusRejected, models.StatusMinisterRejected}

	for _, s := range terminal {
		for _, action := range actions {
			t.Run(string(s)+"/"+string(action), func(t *testing.T) {
				app := inStatus(s)
				f := newFixture(app)

				_, err := f.svc.Decide(context.Background(), app.ID.Hex(), action, admin, "minister@example.nr")
				require.Error(t, err)
				assert.Equal(t, errs.KindInvalidTransition, errs.KindOf(err))

				var te *errs.TransitionError
				require.ErrorAs(t, err, &te)
				assert.Equal(t, string(s), te.From)

				assert.Empty(t, f.decisions.Entries)
				assert.Equal(t, s, f.apps.get(app.ID.Hex()).Status)
				assert.Empty(t, f.dispatcher.events())
			})
		}
	}
}

func TestDecideOnSubmittedRequiresOpening(t *testing.T) {
	app := inStatus(models.StatusSubmitted)
	f := newFixture(app)

	_, err := f.svc.Decide(context.Background(), app.ID.Hex(), decision.ActionApproved, reviewerA, "")
	assert.Equal(t, errs.KindInvalidTransition, errs.KindOf(err))
	assert.Empty(t, f.decisions.Entries)
}

func TestReferralWithoutTargetFailsBeforeLoad(t *testing.T) {
	for _, note := range []string{"", "   ", "not-an-email", "Minister <m@example.nr>"} {
		t.Run(note, func(t *testing.T) {
			app := inStatus(models.StatusInReview)
			f := newFixture(app)

			_, err := f.svc.Decide(context.Background(), app.ID.Hex(), decision.ActionReferredToMinister, reviewerA, note)
			require.Error(t, err)
			assert.Equal(t, errs.KindMissingReferralTarget, errs.KindOf(err))
			assert.Zero(t, f.apps.FindCalls)
			assert.Zero(t, f.tx.Calls)
			assert.Empty(t, f.decisions.Entries)
		})
	}
}

func TestUnknownActionFailsBeforeLoad(t *testing.T) {
	app := inStatus(models.StatusInReview)
	f := newFixture(app)

	_, err := f.svc.Decide(context.Background(), app.ID.Hex(), decision.Action("ESCALATE"), admin, "")
	assert.Equal(t, errs.KindInvalidTransition, errs.KindOf(err))
	assert.Zero(t, f.apps.FindCalls)
}

func TestDecideOnMissingApplication(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Decide(context.Background(), "65f000000000000000000000", decision.ActionApproved, reviewerA, "")
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestEveryDecisionAppendsOneEntryInOrder(t *testing.T) {
	app := inStatus(models.StatusInReview)
	f := newFixture(app)

	// A clock running backwards must not produce a decreasing log.
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := &clock{}
	for i := 0; i < 10; i++ {
		c.times = append(c.times, base.Add(-time.Duration(i)*time.Minute))
	}
	f.svc.Now = c.Now

	ctx := context.Background()
	id := app.ID.Hex()
	actions := []decision.Action{decision.ActionRequestInfo, decision.ActionRequestInfo, decision.ActionRequestInfo, decision.ActionApproved}
	for i, action := range actions {
		got, err := f.svc.Decide(ctx, id, action, reviewerA, "")
		require.NoError(t, err)
		require.Len(t, got.ApprovalLog, i+1)
		assert.Len(t, f.decisions.Entries, i+1)
	}

	entries := f.decisions.Entries
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].Timestamp.Before(entries[i-1].Timestamp))
		assert.Equal(t, entries[i-1].Seq+1, entries[i].Seq)
	}
}

func TestOpenForReviewFirstReviewerKeepsOwnership(t *testing.T) {
	app := inStatus(models.StatusSubmitted)
	f := newFixture(app)
	ctx := context.Background()
	id := app.ID.Hex()

	opened, err := f.svc.OpenForReview(ctx, id, reviewerA)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInReview, opened.Status)
	assert.Equal(t, "r-a", opened.CurrentReviewerID)

	again, err := f.svc.OpenForReview(ctx, id, reviewerB)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInReview, again.Status)
	assert.Equal(t, "r-a", again.CurrentReviewerID)

	stored := f.apps.get(id)
	assert.Equal(t, "r-a", stored.CurrentReviewerID)
	assert.Empty(t, f.decisions.Entries, "opening is not a decision")
}

func TestOpenForReviewLosingRaceReturnsWinner(t *testing.T) {
	app := inStatus(models.StatusSubmitted)
	f := newFixture(app)
	f.apps.BeforeApply = func(a *application.Application) {
		a.Status = models.StatusInReview
		a.CurrentReviewerID = "r-b"
	}

	got, err := f.svc.OpenForReview(context.Background(), app.ID.Hex(), reviewerA)
	require.NoError(t, err)
	assert.Equal(t, "r-b", got.CurrentReviewerID)
}

func TestOpenForReviewRequiresReviewerQueue(t *testing.T) {
	app := inStatus(models.StatusSubmitted)
	f := newFixture(app)

	for _, actor := range []models.Actor{requester, minister} {
		_, err := f.svc.OpenForReview(context.Background(), app.ID.Hex(), actor)
		assert.Equal(t, errs.KindUnauthorized, errs.KindOf(err))
	}
	assert.Equal(t, models.StatusSubmitted, f.apps.get(app.ID.Hex()).Status)

	draft := inStatus(models.StatusDraft)
	f = newFixture(draft)
	_, err := f.svc.OpenForReview(context.Background(), draft.ID.Hex(), reviewerA)
	assert.Equal(t, errs.KindUnauthorized, errs.KindOf(err))
}

func TestApproveArchivesAtOneInstant(t *testing.T) {
	app := inStatus(models.StatusInReview)
	app.CurrentReviewerID = reviewerA.ID
	f := newFixture(app)

	got, err := f.svc.Decide(context.Background(), app.ID.Hex(), decision.ActionApproved, reviewerA, "")
	require.NoError(t, err)

	assert.Equal(t, models.StatusArchived, got.Status)
	require.NotNil(t, got.DecidedAt)
	require.NotNil(t, got.ArchivedAt)
	assert.True(t, got.DecidedAt.Equal(*got.ArchivedAt))

	require.Len(t, f.decisions.Entries, 1)
	entry := f.decisions.Entries[0]
	assert.Equal(t, decision.ActionApproved, entry.Action)
	assert.Equal(t, "Lina Harris", entry.ActorName)
	assert.True(t, entry.Timestamp.Equal(*got.DecidedAt))

	stored := f.apps.get(app.ID.Hex())
	assert.Equal(t, models.StatusArchived, stored.Status)
	assert.True(t, stored.ArchivedAt.Equal(*got.ArchivedAt))

	events := f.dispatcher.events()
	require.Len(t, events, 1)
	assert.Equal(t, notification.EventApproved, events[0].Kind)
	assert.Equal(t, models.StatusArchived, events[0].Application.Status)
}

func TestRequestInfoKeepsReviewer(t *testing.T) {
	app := inStatus(models.StatusInReview)
	app.CurrentReviewerID = reviewerA.ID
	f := newFixture(app)

	got, err := f.svc.Decide(context.Background(), app.ID.Hex(), decision.ActionRequestInfo, reviewerA, "Attach the conference invitation")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInReview, got.Status)
	assert.Equal(t, "r-a", got.CurrentReviewerID)
	assert.Nil(t, got.DecidedAt)

	events := f.dispatcher.events()
	require.Len(t, events, 1)
	assert.Equal(t, notification.EventInfoRequested, events[0].Kind)
	assert.Equal(t, "Attach the conference invitation", events[0].Note)
}

func TestReferralNotifiesMinisterEvenWhenNotificationsDisabled(t *testing.T) {
	app := inStatus(models.StatusInReview)
	f := newFixture(app)

	doc := settings.Defaults()
	doc.Notifications.Enabled = false
	sender := &MockSender{}
	f.svc.Dispatcher = &notification.DispatcherImpl{
		SettingsService: &MockSettingsService{Doc: doc},
		Sender:          sender,
		Logger:          zap.NewNop(),
	}

	got, err := f.svc.Decide(context.Background(), app.ID.Hex(), decision.ActionReferredToMinister, reviewerA, " minister@example.nr ")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReferredToMinister, got.Status)
	assert.Equal(t, "minister@example.nr", got.MinisterEmail)
	assert.Nil(t, got.DecidedAt)

	require.Len(t, sender.Sent, 1)
	assert.Equal(t, []string{"minister@example.nr"}, sender.Sent[0].To)
	assert.Equal(t, string(notification.EventMinisterReferral), sender.Sent[0].Event)

	require.Len(t, f.decisions.Entries, 1)
	assert.Equal(t, "minister@example.nr", f.decisions.Entries[0].Note)
}

func TestMinisterPath(t *testing.T) {
	app := inStatus(models.StatusInReview)
	f := newFixture(app)
	ctx := context.Background()
	id := app.ID.Hex()

	_, err := f.svc.Decide(ctx, id, decision.ActionReferredToMinister, reviewerA, "minister@example.nr")
	require.NoError(t, err)

	_, err = f.svc.Decide(ctx, id, decision.ActionApproved, reviewerA, "")
	assert.Equal(t, errs.KindUnauthorized, errs.KindOf(err), "reviewers cannot decide for the minister")
	assert.Len(t, f.decisions.Entries, 1)

	approved, err := f.svc.Decide(ctx, id, decision.ActionApproved, minister, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusMinisterApproved, approved.Status)
	require.NotNil(t, approved.DecidedAt)
	assert.Nil(t, approved.ArchivedAt)

	_, err = f.svc.Decide(ctx, id, decision.ActionApproved, minister, "")
	assert.Equal(t, errs.KindUnauthorized, errs.KindOf(err), "archiving goes back through the reviewer queue")

	archived, err := f.svc.Decide(ctx, id, decision.ActionApproved, reviewerA, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusArchived, archived.Status)
	assert.True(t, archived.DecidedAt.Equal(*approved.DecidedAt), "decidedAt is never moved")
	require.NotNil(t, archived.ArchivedAt)

	m := Replay(f.decisions.Entries)
	assert.Equal(t, models.StatusArchived, m.Status)
	assert.True(t, m.DecidedAt.Equal(*archived.DecidedAt))
	assert.True(t, m.ArchivedAt.Equal(*archived.ArchivedAt))
	assert.Equal(t, "minister@example.nr", m.MinisterEmail)

	kinds := []notification.EventKind{}
	for _, ev := range f.dispatcher.events() {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []notification.EventKind{notification.EventMinisterReferral, notification.EventApproved}, kinds)
}

func TestMinisterRejectionIsTerminal(t *testing.T) {
	app := inStatus(models.StatusReferredToMinister)
	f := newFixture(app)

	got, err := f.svc.Decide(context.Background(), app.ID.Hex(), decision.ActionRejected, minister, "Not a priority")
	require.NoError(t, err)
	assert.Equal(t, models.StatusMinisterRejected, got.Status)
	assert.True(t, got.Status.IsTerminal())

	_, err = f.svc.Decide(context.Background(), app.ID.Hex(), decision.ActionApproved, minister, "")
	assert.Equal(t, errs.KindInvalidTransition, errs.KindOf(err))
}

func TestDecisionNeedsMatchingQueue(t *testing.T) {
	app := inStatus(models.StatusInReview)
	f := newFixture(app)

	for _, actor := range []models.Actor{requester, minister, {ID: "x", Roles: nil}} {
		_, err := f.svc.Decide(context.Background(), app.ID.Hex(), decision.ActionApproved, actor, "")
		assert.Equal(t, errs.KindUnauthorized, errs.KindOf(err))
	}
	assert.Empty(t, f.decisions.Entries)

	got, err := f.svc.Decide(context.Background(), app.ID.Hex(), decision.ActionRejected, admin, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.Status)
}

func TestAppendFailureWritesNothing(t *testing.T) {
	app := inStatus(models.StatusInReview)
	f := newFixture(app)
	f.decisions.AppendErr = errors.New("write concern timeout")

	_, err := f.svc.Decide(context.Background(), app.ID.Hex(), decision.ActionApproved, reviewerA, "")
	require.Error(t, err)
	assert.Equal(t, errs.KindPersistence, errs.KindOf(err))

	stored := f.apps.get(app.ID.Hex())
	assert.Equal(t, models.StatusInReview, stored.Status)
	assert.Nil(t, stored.DecidedAt)
	assert.Empty(t, f.dispatcher.events())
}

func TestConcurrentDecisionLosesCleanly(t *testing.T) {
	app := inStatus(models.StatusInReview)
	f := newFixture(app)
	f.apps.BeforeApply = func(a *application.Application) {
		a.Status = models.StatusRejected
	}

	_, err := f.svc.Decide(context.Background(), app.ID.Hex(), decision.ActionApproved, reviewerA, "")
	require.Error(t, err)
	assert.Equal(t, errs.KindInvalidTransition, errs.KindOf(err))

	assert.Empty(t, f.decisions.Entries, "loser's entry is rolled back with the transaction")
	assert.Equal(t, models.StatusRejected, f.apps.get(app.ID.Hex()).Status)
	assert.Empty(t, f.dispatcher.events())
}

func TestStatusWriteFailureRollsBackEntry(t *testing.T) {
	app := inStatus(models.StatusInReview)
	f := newFixture(app)
	f.apps.ApplyErr = errors.New("connection reset by peer")

	_, err := f.svc.Decide(context.Background(), app.ID.Hex(), decision.ActionRejected, reviewerA, "")
	assert.Equal(t, errs.KindPersistence, errs.KindOf(err))
	assert.Empty(t, f.decisions.Entries)
}

func TestNotificationFailureDoesNotAffectDecision(t *testing.T) {
	app := inStatus(models.StatusInReview)
	f := newFixture(app)
	sender := &MockSender{Err: errors.New("dial tcp 10.0.0.5:587: i/o timeout")}
	f.svc.Dispatcher = &notification.DispatcherImpl{
		SettingsService: &MockSettingsService{Doc: settings.Defaults()},
		Sender:          sender,
		Logger:          zap.NewNop(),
	}

	got, err := f.svc.Decide(context.Background(), app.ID.Hex(), decision.ActionApproved, reviewerA, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusArchived, got.Status)
	assert.Len(t, sender.Sent, 1)
}

type dispatchFunc func(ctx context.Context, ev notification.Event) string

func (f dispatchFunc) Dispatch(ctx context.Context, ev notification.Event) string { return f(ctx, ev) }

func TestAsyncDispatchOutlivesRequest(t *testing.T) {
	app := inStatus(models.StatusInReview)
	f := newFixture(app)

	release := make(chan struct{})
	done := make(chan error, 1)
	f.svc.Async = true
	f.svc.NotifyTimeout = 5 * time.Second
	f.svc.Dispatcher = dispatchFunc(func(ctx context.Context, ev notification.Event) string {
		<-release
		done <- ctx.Err()
		return notification.OutcomeSent
	})

	reqCtx, cancel := context.WithCancel(context.Background())
	got, err := f.svc.Decide(reqCtx, app.ID.Hex(), decision.ActionApproved, reviewerA, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusArchived, got.Status)

	cancel()
	close(release)

	select {
	case ctxErr := <-done:
		assert.NoError(t, ctxErr, "dispatch must not inherit request cancellation")
	case <-time.After(2 * time.Second):
		t.Fatal("notification was never dispatched")
	}
}

func TestSubmitAssignsApplicationNumber(t *testing.T) {
	first := inStatus(models.StatusDraft)
	second := inStatus(models.StatusDraft)
	f := newFixture(first, second)
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	f.svc.Now = func() time.Time { return now }
	ctx := context.Background()

	a, err := f.svc.Submit(ctx, first.ID.Hex(), requester)
	require.NoError(t, err)
	b, err := f.svc.Submit(ctx, second.ID.Hex(), requester)
	require.NoError(t, err)

	assert.Equal(t, "TR-2026-000001", a.ApplicationNumber)
	assert.Equal(t, "TR-2026-000002", b.ApplicationNumber)
	assert.Equal(t, models.StatusSubmitted, a.Status)
	require.NotNil(t, a.SubmittedAt)
	assert.True(t, a.SubmittedAt.Equal(now))
	assert.Equal(t, "TR-2026-000001", f.apps.get(first.ID.Hex()).ApplicationNumber)

	events := f.dispatcher.events()
	require.Len(t, events, 2)
	assert.Equal(t, notification.EventSubmitted, events[0].Kind)
}

func TestSubmitUsesConfiguredPrefix(t *testing.T) {
	app := inStatus(models.StatusDraft)
	f := newFixture(app)
	doc := settings.Defaults()
	doc.Application.NumberPrefix = "MFA"
	f.svc.SettingsService = &MockSettingsService{Doc: doc}
	f.svc.Now = func() time.Time { return time.Date(2027, 1, 5, 0, 0, 0, 0, time.UTC) }

	got, err := f.svc.Submit(context.Background(), app.ID.Hex(), requester)
	require.NoError(t, err)
	assert.Equal(t, "MFA-2027-000001", got.ApplicationNumber)
}

func TestSubmitRules(t *testing.T) {
	ctx := context.Background()

	t.Run("only the requester", func(t *testing.T) {
		app := inStatus(models.StatusDraft)
		f := newFixture(app)
		_, err := f.svc.Submit(ctx, app.ID.Hex(), admin)
		assert.Equal(t, errs.KindUnauthorized, errs.KindOf(err))
	})

	t.Run("only drafts", func(t *testing.T) {
		app := inStatus(models.StatusSubmitted)
		f := newFixture(app)
		_, err := f.svc.Submit(ctx, app.ID.Hex(), requester)
		assert.Equal(t, errs.KindInvalidTransition, errs.KindOf(err))
		assert.Empty(t, f.seq.Values)
	})

	t.Run("counter failure", func(t *testing.T) {
		app := inStatus(models.StatusDraft)
		f := newFixture(app)
		f.seq.Err = errors.New("not primary")
		_, err := f.svc.Submit(ctx, app.ID.Hex(), requester)
		assert.Equal(t, errs.KindPersistence, errs.KindOf(err))
		assert.Equal(t, models.StatusDraft, f.apps.get(app.ID.Hex()).Status)
	})

	t.Run("missing", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Submit(ctx, "65f000000000000000000000", requester)
		assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
	})
}
