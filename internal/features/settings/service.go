package settings

import (
	"context"
	"encoding/json"

	"go-travel/internal/common/errs"
	common_models "go-travel/internal/common/models"
	"go-travel/internal/features/audit"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const systemActor = "system"

var (
	validate = validator.New()

	settingsHeals = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "travel",
		Subsystem: "settings",
		Name:      "heal_total",
		Help:      "Settings reads that backfilled missing fields, by persistence outcome.",
	}, []string{"outcome"})
)

type SettingsService interface {
	Get(ctx context.Context) (*Document, error)
	Update(ctx context.Context, partial json.RawMessage, actorID string) (*Document, error)
}

type SettingsServiceImpl struct {
	Repo         SettingsRepository
	AuditService audit.AuditService
	Logger       *zap.Logger
}

func NewSettingsService(repo SettingsRepository, auditService audit.AuditService, logger *zap.Logger) SettingsService {
	return &SettingsServiceImpl{
		Repo:         repo,
		AuditService: auditService,
		Logger:       logger.Named("settings"),
	}
}

// Get always returns a structurally complete document. Persisting defaults
// or healed fields is best effort and never fails the read.
func (s *SettingsServiceImpl) Get(ctx context.Context) (*Document, error) {
	raw, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := Decode(raw)
	if err != nil {
		s.Logger.Error("Stored settings do not decode, serving defaults", zap.Error(err))
		doc = Defaults()
	}
	return &doc, nil
}

func (s *SettingsServiceImpl) load(ctx context.Context) ([]byte, error) {
	stored, err := s.Repo.Load(ctx)
	if err != nil {
		return nil, errs.Persistence(err, "load settings")
	}

	if stored == nil {
		defaults := defaultJSON()
		if err := s.Repo.Save(ctx, defaults, systemActor); err != nil {
			s.Logger.Warn("Failed to persist default settings", zap.Error(err))
		}
		return defaults, nil
	}

	healed, changed, err := Heal(stored)
	if err != nil {
		s.Logger.Error("Stored settings are not valid JSON, serving defaults", zap.Error(err))
		return defaultJSON(), nil
	}
	if !changed {
		return stored, nil
	}

	if err := s.Repo.Save(ctx, healed, systemActor); err != nil {
		settingsHeals.WithLabelValues("persist_failed").Inc()
		s.Logger.Warn("Failed to persist healed settings", zap.Error(err))
	} else {
		settingsHeals.WithLabelValues("persisted").Inc()
		s.Logger.Info("Healed settings document")
	}
	return healed, nil
}

func (s *SettingsServiceImpl) Update(ctx context.Context, partial json.RawMessage, actorID string) (*Document, error) {
	current, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	before, err := Decode(current)
	if err != nil {
		before = Defaults()
	}

	merged, err := Merge(current, partial)
	if err != nil {
		return nil, errs.Validation(err)
	}
	after, err := Decode(merged)
	if err != nil {
		return nil, errs.Validation(err)
	}
	if err := validate.Struct(after); err != nil {
		return nil, errs.Validation(err)
	}

	if err := s.Repo.Save(ctx, merged, actorID); err != nil {
		return nil, errs.Persistence(err, "save settings")
	}

	if patch, err := Diff(before.Redacted(), after.Redacted()); err == nil && len(patch) > 0 {
		err := s.AuditService.LogChange(ctx, common_models.AuditActionSettings, "settings", documentKey, actorID, map[string]common_models.Change{
			"document": {Old: nil, New: patch},
		})
		if err != nil {
			s.Logger.Warn("Failed to audit settings change", zap.String("actor_id", actorID), zap.Error(err))
		}
	}

	return &after, nil
}
