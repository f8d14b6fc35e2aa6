package cron_feature

import (
	"context"
	"errors"
	"slices"

	"go-travel/internal/common/errs"
	"go-travel/internal/common/models"
	"go-travel/internal/features/application"
	"go-travel/internal/features/decision"

	"go.uber.org/zap"
)

const ConsistencySweepJob = "consistency_sweep"

// Job is a unit of scheduled maintenance work.
type Job interface {
	Name() string
	Run(ctx context.Context) (JobResult, error)
}

// ConsistencySweep replays the decision log of every application that has
// one and writes back milestone fields that drifted from it. Status itself
// is never rewritten.
type ConsistencySweep struct {
	Repo        application.ApplicationRepository
	DecisionLog decision.DecisionLog
	Reconciler  application.Reconciler
	Logger      *zap.Logger
}

func NewConsistencySweep(repo application.ApplicationRepository, decisionLog decision.DecisionLog, reconciler application.Reconciler, logger *zap.Logger) *ConsistencySweep {
	return &ConsistencySweep{
		Repo:        repo,
		DecisionLog: decisionLog,
		Reconciler:  reconciler,
		Logger:      logger.Named("consistency"),
	}
}

func (s *ConsistencySweep) Name() string { return ConsistencySweepJob }

// decided lists the statuses that can carry log entries.
func decided() []models.ApplicationStatus {
	return slices.DeleteFunc(slices.Clone(models.AllStatuses), func(st models.ApplicationStatus) bool {
		return st == models.StatusDraft || st == models.StatusSubmitted
	})
}

func (s *ConsistencySweep) Run(ctx context.Context) (JobResult, error) {
	var res JobResult

	apps, err := s.Repo.FindByStatus(ctx, decided())
	if err != nil {
		return res, errs.Persistence(err, "list applications")
	}

	for i := range apps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		app := &apps[i]
		res.Scanned++

		entries, err := s.DecisionLog.ListFor(ctx, app.ID.Hex())
		if err != nil {
			res.Failed++
			s.Logger.Warn("Failed to load decision log", zap.String("application_id", app.ID.Hex()), zap.Error(err))
			continue
		}
		app.ApprovalLog = entries

		if !s.Reconciler.Reconcile(app) {
			continue
		}

		change := application.StatusChange{
			Status:     app.Status,
			DecidedAt:  app.DecidedAt,
			ArchivedAt: app.ArchivedAt,
		}
		if app.MinisterEmail != "" {
			change.MinisterEmail = &app.MinisterEmail
		}

		err = s.Repo.ApplyStatus(ctx, app.ID.Hex(), app.Status, change)
		switch {
		case err == nil:
			res.Corrected++
			s.Logger.Info("Corrected application milestones from decision log",
				zap.String("application_id", app.ID.Hex()),
				zap.String("status", string(app.Status)),
			)
		case errors.Is(err, errs.ErrInvalidTransition):
			// Moved on since it was read; the next sweep sees the new state.
		default:
			res.Failed++
			s.Logger.Warn("Failed to write corrected milestones", zap.String("application_id", app.ID.Hex()), zap.Error(err))
		}
	}
	return res, nil
}
