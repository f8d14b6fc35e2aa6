package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"go-travel/internal/common/models"
	"go-travel/internal/config"
	"go-travel/internal/database"
	"go-travel/internal/features/application"
	"go-travel/internal/features/audit"
	"go-travel/internal/features/decision"
	"go-travel/internal/features/notification"
	"go-travel/internal/features/settings"
	"go-travel/internal/features/workflow"
	"go-travel/internal/logger"
	"go-travel/pkg/utils"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const dataPath = "cmd/seed/data/applications.json"

// Development identities. Tokens for them are printed at the end of a run.
var actors = map[string]models.Actor{
	"requester": {ID: "dev-requester", FirstName: "Ana", LastName: "Tabe", Email: "ana.tabe@gov.example", Roles: []string{"USER"}},
	"reviewer":  {ID: "dev-reviewer", FirstName: "Lina", LastName: "Harris", Email: "lina.harris@gov.example", Roles: []string{"REVIEWER"}},
	"minister":  {ID: "dev-minister", FirstName: "Hon", LastName: "Minister", Email: "minister@gov.example", Roles: []string{"MINISTER"}},
	"admin":     {ID: "dev-admin", FirstName: "Ada", LastName: "Admin", Email: "admin@gov.example", Roles: []string{"ADMIN"}},
}

type seedApplication struct {
	Requester string            `json:"requester"`
	Steps     []string          `json:"steps"`
	Note      string            `json:"note"`
	Draft     application.Draft `json:"draft"`
}

// logDispatcher keeps seeding from sending mail.
type logDispatcher struct {
	logger *zap.Logger
}

func (d logDispatcher) Dispatch(ctx context.Context, ev notification.Event) string {
	d.logger.Info("Notification suppressed during seed", zap.String("event", string(ev.Kind)))
	return notification.OutcomeSkipped
}

// Seed creates the demo applications and walks each through its steps.
func Seed(
	lc fx.Lifecycle,
	cfg *config.Config,
	appRepo application.ApplicationRepository,
	decisionRepo decision.DecisionRepository,
	settingsService settings.SettingsService,
	appService application.ApplicationService,
	workflowService workflow.WorkflowService,
	logger *zap.Logger,
	shutdowner fx.Shutdowner,
) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				defer func() {
					if err := shutdowner.Shutdown(); err != nil {
						logger.Error("Failed to shutdown", zap.Error(err))
					}
				}()

				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				defer cancel()

				if err := run(ctx, cfg, appRepo, decisionRepo, settingsService, appService, workflowService, logger); err != nil {
					logger.Error("Seeding failed", zap.Error(err))
				}
			}()
			return nil
		},
	})
}

func run(
	ctx context.Context,
	cfg *config.Config,
	appRepo application.ApplicationRepository,
	decisionRepo decision.DecisionRepository,
	settingsService settings.SettingsService,
	appService application.ApplicationService,
	workflowService workflow.WorkflowService,
	logger *zap.Logger,
) error {
	logger.Info("Starting database seeding", zap.String("data", dataPath))

	if err := appRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("application indexes: %w", err)
	}
	if err := decisionRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("decision indexes: %w", err)
	}
	if _, err := settingsService.Get(ctx); err != nil {
		return fmt.Errorf("settings: %w", err)
	}

	b, err := os.ReadFile(dataPath)
	if err != nil {
		return err
	}
	var seeds []seedApplication
	if err := json.Unmarshal(b, &seeds); err != nil {
		return fmt.Errorf("parse %s: %w", dataPath, err)
	}

	reviewer, minister := actors["reviewer"], actors["minister"]
	for _, s := range seeds {
		requester, ok := actors[s.Requester]
		if !ok {
			return fmt.Errorf("unknown requester %q", s.Requester)
		}

		app, err := appService.CreateDraft(ctx, requester, s.Draft)
		if err != nil {
			return fmt.Errorf("create %q: %w", s.Draft.Purpose, err)
		}
		id := app.ID.Hex()

		for _, step := range s.Steps {
			switch step {
			case "SUBMIT":
				app, err = workflowService.Submit(ctx, id, requester)
			case "OPEN":
				app, err = workflowService.OpenForReview(ctx, id, reviewer)
			default:
				actor := reviewer
				if app.Status == models.StatusReferredToMinister {
					actor = minister
				}
				app, err = workflowService.Decide(ctx, id, decision.Action(step), actor, s.Note)
			}
			if err != nil {
				return fmt.Errorf("%s on %q: %w", step, s.Draft.Purpose, err)
			}
		}

		logger.Info("Seeded application",
			zap.String("id", id),
			zap.String("number", app.ApplicationNumber),
			zap.String("status", string(app.Status)),
		)
	}

	utils.SetSecret(cfg.JWTSecret)
	for name, a := range actors {
		token, err := utils.IssueToken(utils.UserClaims{
			UserID:    a.ID,
			FirstName: a.FirstName,
			LastName:  a.LastName,
			Email:     a.Email,
			Roles:     a.Roles,
		}, 30*24*time.Hour)
		if err != nil {
			return err
		}
		fmt.Printf("%-10s %s\n", name, token)
	}

	logger.Info("Seeding complete", zap.Int("applications", len(seeds)))
	return nil
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			database.NewDatabase,
			database.NewTransactor,
			database.NewSequencer,

			audit.NewAuditRepository,
			settings.NewSettingsRepository,
			application.NewApplicationRepository,
			decision.NewDecisionRepository,

			audit.NewAuditService,
			settings.NewSettingsService,
			decision.NewDecisionLog,
			workflow.NewReconciler,
			application.NewApplicationService,
			func(logger *zap.Logger) notification.Dispatcher { return logDispatcher{logger: logger} },
			workflow.NewWorkflowService,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(Seed),
	)

	if err := app.Err(); err != nil {
		log.Fatalf("seed: %v", err)
	}
	app.Run()
}
