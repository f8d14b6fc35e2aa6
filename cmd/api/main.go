package main

import (
	"context"
	"fmt"
	"log"
	"time"

	common_api "go-travel/internal/common/api"
	"go-travel/internal/config"
	"go-travel/internal/database"
	"go-travel/internal/features/application"
	"go-travel/internal/features/audit"
	cron_feature "go-travel/internal/features/cron"
	"go-travel/internal/features/decision"
	"go-travel/internal/features/email"
	"go-travel/internal/features/notification"
	"go-travel/internal/features/settings"
	"go-travel/internal/features/system"
	"go-travel/internal/features/workflow"
	"go-travel/internal/logger"
	"go-travel/internal/middleware"
	"go-travel/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	return app
}

// AsRoute tags the constructor so Fx adds it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes calls Setup() on every member of the "routes" group.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	log.Printf("Registering %d routes...\n", len(routes))
	for i, route := range routes {
		log.Printf("Setting up route %d: %T\n", i+1, route)
		route.Setup(app)
	}
	log.Println("All routes registered successfully")
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer starts Fiber in a goroutine and shuts it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	utils.SetSecret(cfg.JWTSecret)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeIndexes creates the unique indexes the workflow relies on:
// one number per application and one sequence slot per log entry.
func InitializeIndexes(lc fx.Lifecycle, appRepo application.ApplicationRepository, decisionRepo decision.DecisionRepository, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := appRepo.EnsureIndexes(ctx); err != nil {
				logger.Error("Failed to ensure application indexes", zap.Error(err))
				return err
			}
			if err := decisionRepo.EnsureIndexes(ctx); err != nil {
				logger.Error("Failed to ensure decision indexes", zap.Error(err))
				return err
			}
			return nil
		},
	})
}

// HealSettings loads the settings document once at startup so a missing or
// partial document is repaired before the first request.
func HealSettings(lc fx.Lifecycle, settingsService settings.SettingsService, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if _, err := settingsService.Get(ctx); err != nil {
				logger.Warn("Settings not available at startup", zap.Error(err))
			}
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			NewFiberServer,

			database.NewDatabase,
			database.NewTransactor,
			database.NewSequencer,
			func(db *database.MongodbDB) system.Pinger { return db },

			// Repositories
			audit.NewAuditRepository,
			settings.NewSettingsRepository,
			application.NewApplicationRepository,
			decision.NewDecisionRepository,
			email.NewEmailRepository,
			cron_feature.NewJobRunRepository,

			// Services
			audit.NewAuditService,
			settings.NewSettingsService,
			decision.NewDecisionLog,
			workflow.NewReconciler,
			application.NewApplicationService,
			email.NewSMTPSender,
			notification.NewDispatcher,
			workflow.NewWorkflowService,
			cron_feature.NewConsistencySweep,
			cron_feature.NewCronService,

			// Controllers
			audit.NewAuditController,
			settings.NewSettingsController,
			application.NewApplicationController,
			workflow.NewWorkflowController,
			email.NewEmailController,
			notification.NewNotificationController,
			system.NewSystemController,
			cron_feature.NewCronController,

			// Routes
			AsRoute(system.NewSystemApi),
			AsRoute(audit.NewAuditApi),
			AsRoute(settings.NewSettingsApi),
			AsRoute(application.NewApplicationApi),
			AsRoute(workflow.NewWorkflowApi),
			AsRoute(email.NewEmailApi),
			AsRoute(notification.NewNotificationApi),
			AsRoute(cron_feature.NewCronApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			RegisterAllRoutesWithAnnotation,
			InitializeIndexes,
			HealSettings,
			StartServer,
			func(lc fx.Lifecycle, cronService cron_feature.CronService) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return cronService.InitializeScheduler(ctx)
					},
					OnStop: func(ctx context.Context) error {
						return cronService.StopScheduler()
					},
				})
			},
		),
	)

	app.Run()
}
