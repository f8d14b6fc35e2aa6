package workflow

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go-travel/internal/common/errs"
	"go-travel/internal/common/models"
	"go-travel/internal/config"
	"go-travel/internal/database"
	"go-travel/internal/features/application"
	"go-travel/internal/features/decision"
	"go-travel/internal/features/notification"
	"go-travel/internal/features/role"
	"go-travel/internal/features/settings"
	"go-travel/internal/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const defaultNumberPrefix = "TR"

var decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "travel",
	Subsystem: "workflow",
	Name:      "decisions_total",
	Help:      "Decisions by action and result kind.",
}, []string{"action", "result"})

type WorkflowService interface {
	Decide(ctx context.Context, applicationID string, action decision.Action, actor models.Actor, note string) (*application.Application, error)
	OpenForReview(ctx context.Context, applicationID string, actor models.Actor) (*application.Application, error)
	Submit(ctx context.Context, applicationID string, actor models.Actor) (*application.Application, error)
}

type WorkflowServiceImpl struct {
	Repo            application.ApplicationRepository
	DecisionLog     decision.DecisionLog
	Transactor      database.Transactor
	Sequencer       database.Sequencer
	SettingsService settings.SettingsService
	Dispatcher      notification.Dispatcher
	Logger          *zap.Logger

	// Async dispatches notifications on their own goroutine, bounded by
	// NotifyTimeout. Tests run synchronously.
	Async         bool
	NotifyTimeout time.Duration
	Now           func() time.Time
}

func NewWorkflowService(
	repo application.ApplicationRepository,
	decisionLog decision.DecisionLog,
	transactor database.Transactor,
	sequencer database.Sequencer,
	settingsService settings.SettingsService,
	dispatcher notification.Dispatcher,
	cfg *config.Config,
	logger *zap.Logger,
) WorkflowService {
	return &WorkflowServiceImpl{
		Repo:            repo,
		DecisionLog:     decisionLog,
		Transactor:      transactor,
		Sequencer:       sequencer,
		SettingsService: settingsService,
		Dispatcher:      dispatcher,
		Logger:          logger.Named("workflow"),
		Async:           cfg.NotifyAsync,
		NotifyTimeout:   2 * cfg.SMTPTimeout,
		Now:             time.Now,
	}
}

// Decide applies one reviewer or minister decision. The log entry and the
// status write commit together; the notification follows the commit and
// cannot change the result.
func (s *WorkflowServiceImpl) Decide(ctx context.Context, applicationID string, action decision.Action, actor models.Actor, note string) (*application.Application, error) {
	app, t, err := s.decide(ctx, applicationID, action, actor, note)
	if err != nil {
		decisionsTotal.WithLabelValues(string(action), string(errs.KindOf(err))).Inc()
		return nil, err
	}
	decisionsTotal.WithLabelValues(string(action), "ok").Inc()

	s.Logger.Info("Decision committed",
		zap.String("application_id", applicationID),
		zap.String("action", string(action)),
		zap.String("from", string(t.From)),
		zap.String("to", string(t.To)),
		zap.String("actor_id", actor.ID),
		logger.RequestField(ctx),
	)

	if t.Event != "" {
		s.emit(ctx, notification.Event{Kind: t.Event, Application: *app, Actor: actor, Note: strings.TrimSpace(note)})
	}
	return app, nil
}

func (s *WorkflowServiceImpl) decide(ctx context.Context, applicationID string, action decision.Action, actor models.Actor, note string) (*application.Application, Transition, error) {
	if !action.Valid() {
		return nil, Transition{}, fmt.Errorf("unknown action %q: %w", action, errs.ErrInvalidTransition)
	}

	note = strings.TrimSpace(note)
	if action == decision.ActionReferredToMinister {
		if err := validReferralTarget(note); err != nil {
			return nil, Transition{}, err
		}
	}

	app, err := s.Repo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, Transition{}, errs.Persistence(err, "find application")
	}

	t, ok := Lookup(app.Status, action)
	if !ok {
		return nil, Transition{}, errs.InvalidTransition(string(app.Status), string(action))
	}
	if !role.CanActOn(role.ActorRoles(actor), app.Status) {
		return nil, Transition{}, fmt.Errorf("roles %v cannot act on %s: %w", actor.Roles, app.Status, errs.ErrUnauthorized)
	}

	var change application.StatusChange
	err = s.Transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		entry, err := s.DecisionLog.Record(txCtx, applicationID, action, actor, note, s.Now())
		if err != nil {
			return err
		}

		change = changeFor(t, entry, note)
		if err := s.Repo.ApplyStatus(txCtx, applicationID, app.Status, change); err != nil {
			if errors.Is(err, errs.ErrInvalidTransition) {
				return errs.InvalidTransition(string(app.Status), string(action))
			}
			return errs.Persistence(err, "apply status")
		}
		return nil
	})
	if err != nil {
		return nil, Transition{}, err
	}

	change.Apply(app)
	app.UpdatedAt = s.Now().UTC()
	s.attachLog(ctx, app)
	return app, t, nil
}

func changeFor(t Transition, entry decision.Entry, note string) application.StatusChange {
	at := entry.Timestamp
	change := application.StatusChange{Status: t.To}
	if t.SetsDecidedAt {
		change.DecidedAt = &at
	}
	if t.SetsArchivedAt {
		change.ArchivedAt = &at
	}
	if t.CapturesMinister {
		change.MinisterEmail = &note
	}
	return change
}

func validReferralTarget(note string) error {
	if note == "" {
		return errs.ErrMissingReferralTarget
	}
	addr, err := mail.ParseAddress(note)
	if err != nil || addr.Address != note {
		return fmt.Errorf("%q is not an email address: %w", note, errs.ErrMissingReferralTarget)
	}
	return nil
}

// OpenForReview claims a SUBMITTED application for the calling reviewer.
// Later calls, by anyone, leave the first reviewer in place.
func (s *WorkflowServiceImpl) OpenForReview(ctx context.Context, applicationID string, actor models.Actor) (*application.Application, error) {
	roles := role.ActorRoles(actor)
	if !role.CanView(roles, role.QueueReviewer) {
		return nil, fmt.Errorf("reviewer queue required: %w", errs.ErrUnauthorized)
	}

	app, err := s.Repo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, errs.Persistence(err, "find application")
	}
	if !role.CanSee(roles, app.Status) {
		return nil, fmt.Errorf("application is outside the caller's queues: %w", errs.ErrUnauthorized)
	}

	if app.Status == models.StatusSubmitted {
		reviewerID := actor.ID
		change := application.StatusChange{Status: models.StatusInReview, CurrentReviewerID: &reviewerID}

		err := s.Repo.ApplyStatus(ctx, applicationID, models.StatusSubmitted, change)
		switch {
		case err == nil:
			change.Apply(app)
			s.Logger.Info("Application opened for review",
				zap.String("application_id", applicationID),
				zap.String("reviewer_id", actor.ID),
				logger.RequestField(ctx),
			)
		case errors.Is(err, errs.ErrInvalidTransition):
			// Someone else claimed it first.
			if app, err = s.Repo.FindByID(ctx, applicationID); err != nil {
				return nil, errs.Persistence(err, "find application")
			}
		default:
			return nil, errs.Persistence(err, "open for review")
		}
	}

	s.attachLog(ctx, app)
	return app, nil
}

// Submit hands a draft to the reviewers and assigns its number.
func (s *WorkflowServiceImpl) Submit(ctx context.Context, applicationID string, actor models.Actor) (*application.Application, error) {
	app, err := s.Repo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, errs.Persistence(err, "find application")
	}
	if app.RequesterID != actor.ID {
		return nil, fmt.Errorf("only the requester may submit: %w", errs.ErrUnauthorized)
	}
	if app.Status != models.StatusDraft {
		return nil, errs.InvalidTransition(string(app.Status), "SUBMIT")
	}

	prefix := defaultNumberPrefix
	if cfg, err := s.SettingsService.Get(ctx); err == nil && cfg.Application.NumberPrefix != "" {
		prefix = cfg.Application.NumberPrefix
	}

	now := s.Now().UTC().Truncate(time.Millisecond)
	seq, err := s.Sequencer.Next(ctx, fmt.Sprintf("application_number:%d", now.Year()))
	if err != nil {
		return nil, errs.Persistence(err, "next application number")
	}
	number := fmt.Sprintf("%s-%d-%06d", prefix, now.Year(), seq)

	change := application.StatusChange{
		Status:            models.StatusSubmitted,
		ApplicationNumber: &number,
		SubmittedAt:       &now,
	}
	if err := s.Repo.ApplyStatus(ctx, applicationID, models.StatusDraft, change); err != nil {
		if errors.Is(err, errs.ErrInvalidTransition) {
			return nil, errs.InvalidTransition(string(models.StatusSubmitted), "SUBMIT")
		}
		return nil, errs.Persistence(err, "submit application")
	}
	change.Apply(app)

	s.Logger.Info("Application submitted",
		zap.String("application_id", applicationID),
		zap.String("application_number", number),
		logger.RequestField(ctx),
	)
	s.emit(ctx, notification.Event{Kind: notification.EventSubmitted, Application: *app, Actor: actor})

	app.ApprovalLog = []decision.Entry{}
	return app, nil
}

// attachLog is best effort; the committed change stands without it.
func (s *WorkflowServiceImpl) attachLog(ctx context.Context, app *application.Application) {
	entries, err := s.DecisionLog.ListFor(ctx, app.ID.Hex())
	if err != nil {
		s.Logger.Warn("Failed to load decision log", zap.String("application_id", app.ID.Hex()), zap.Error(err))
		return
	}
	app.ApprovalLog = entries
}

func (s *WorkflowServiceImpl) emit(ctx context.Context, ev notification.Event) {
	if s.Dispatcher == nil {
		return
	}
	if !s.Async {
		s.Dispatcher.Dispatch(ctx, ev)
		return
	}

	timeout := s.NotifyTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.Logger.Error("Notification dispatch panicked", zap.Any("panic", r), zap.String("event", string(ev.Kind)))
			}
		}()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		s.Dispatcher.Dispatch(ctx, ev)
	}()
}
