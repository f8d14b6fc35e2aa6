package application

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go-travel/internal/common/errs"
	"go-travel/internal/common/models"
	"go-travel/internal/features/decision"
	"go-travel/internal/features/settings"
	"go-travel/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var validate = validator.New()

// Reconciler realigns the derived timestamp cache of an application with
// its decision log.
type Reconciler interface {
	Reconcile(app *Application) bool
}

type ApplicationService interface {
	CreateDraft(ctx context.Context, actor models.Actor, draft Draft) (*Application, error)
	UpdateDraft(ctx context.Context, id string, actor models.Actor, draft Draft) (*Application, error)
	Get(ctx context.Context, id string) (*Application, error)
	History(ctx context.Context, id string) ([]decision.Entry, error)
	ListQueue(ctx context.Context, statuses []models.ApplicationStatus) ([]Application, error)
	ListArchived(ctx context.Context) ([]Application, error)
	ListMine(ctx context.Context, requesterID string) ([]Application, error)
	ExportArchived(ctx context.Context) ([]byte, string, error)
}

type ApplicationServiceImpl struct {
	Repo            ApplicationRepository
	DecisionLog     decision.DecisionLog
	SettingsService settings.SettingsService
	Reconciler      Reconciler
	Logger          *zap.Logger
}

func NewApplicationService(
	repo ApplicationRepository,
	decisionLog decision.DecisionLog,
	settingsService settings.SettingsService,
	reconciler Reconciler,
	logger *zap.Logger,
) ApplicationService {
	return &ApplicationServiceImpl{
		Repo:            repo,
		DecisionLog:     decisionLog,
		SettingsService: settingsService,
		Reconciler:      reconciler,
		Logger:          logger.Named("application"),
	}
}

func (s *ApplicationServiceImpl) CreateDraft(ctx context.Context, actor models.Actor, draft Draft) (*Application, error) {
	if err := s.validateDraft(ctx, draft); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	app := &Application{
		RequesterID:    actor.ID,
		RequesterName:  actor.FullName(),
		RequesterEmail: actor.Email,
		Draft:          draft,
		Status:         models.StatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
		ApprovalLog:    []decision.Entry{},
	}
	if err := s.Repo.Create(ctx, app); err != nil {
		return nil, errs.Persistence(err, "create application")
	}
	return app, nil
}

// UpdateDraft replaces the requester fields. Only the requester may edit,
// and only while the application is still a draft.
func (s *ApplicationServiceImpl) UpdateDraft(ctx context.Context, id string, actor models.Actor, draft Draft) (*Application, error) {
	app, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, errs.Persistence(err, "find application")
	}
	if app.RequesterID != actor.ID {
		return nil, fmt.Errorf("only the requester may edit an application: %w", errs.ErrUnauthorized)
	}
	if app.Status != models.StatusDraft {
		return nil, errs.InvalidTransition(string(app.Status), "EDIT")
	}
	if err := s.validateDraft(ctx, draft); err != nil {
		return nil, err
	}

	if err := s.Repo.UpdateDraft(ctx, id, draft); err != nil {
		return nil, errs.Persistence(err, "update draft")
	}
	app.Draft = draft
	app.UpdatedAt = time.Now().UTC()
	return app, nil
}

func (s *ApplicationServiceImpl) validateDraft(ctx context.Context, draft Draft) error {
	if err := validate.Struct(draft); err != nil {
		return errs.Validation(err)
	}

	cfg, err := s.SettingsService.Get(ctx)
	if err != nil {
		return err
	}
	for _, e := range draft.Expenses {
		if len(cfg.Application.ExpenseTypes) > 0 && !slices.Contains(cfg.Application.ExpenseTypes, e.Type) {
			return errs.Validation(fmt.Errorf("unknown expense type %q", e.Type))
		}
		if len(cfg.Application.Currencies) > 0 && !slices.Contains(cfg.Application.Currencies, e.Currency) {
			return errs.Validation(fmt.Errorf("unsupported currency %q", e.Currency))
		}
	}
	return nil
}

// Get loads the application with its decision log attached.
func (s *ApplicationServiceImpl) Get(ctx context.Context, id string) (*Application, error) {
	app, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, errs.Persistence(err, "find application")
	}
	if err := s.Hydrate(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// Hydrate attaches the decision log and lets it correct the cached
// timestamps if they drifted.
func (s *ApplicationServiceImpl) Hydrate(ctx context.Context, app *Application) error {
	entries, err := s.DecisionLog.ListFor(ctx, app.ID.Hex())
	if err != nil {
		return err
	}
	app.ApprovalLog = entries

	if s.Reconciler != nil && s.Reconciler.Reconcile(app) {
		s.Logger.Warn("Application fields diverged from decision log",
			zap.String("application_id", app.ID.Hex()),
			zap.String("status", string(app.Status)),
		)
	}
	return nil
}

func (s *ApplicationServiceImpl) History(ctx context.Context, id string) ([]decision.Entry, error) {
	if _, err := s.Repo.FindByID(ctx, id); err != nil {
		return nil, errs.Persistence(err, "find application")
	}
	return s.DecisionLog.ListFor(ctx, id)
}

func (s *ApplicationServiceImpl) ListQueue(ctx context.Context, statuses []models.ApplicationStatus) ([]Application, error) {
	apps, err := s.Repo.FindByStatus(ctx, statuses)
	return apps, errs.Persistence(err, "list queue")
}

// ListArchived returns archived applications, most recently archived first.
func (s *ApplicationServiceImpl) ListArchived(ctx context.Context) ([]Application, error) {
	apps, err := s.Repo.FindArchived(ctx)
	return apps, errs.Persistence(err, "list archived")
}

func (s *ApplicationServiceImpl) ListMine(ctx context.Context, requesterID string) ([]Application, error) {
	apps, err := s.Repo.FindByRequester(ctx, requesterID)
	return apps, errs.Persistence(err, "list requester applications")
}

var exportColumns = []string{
	"Application Number", "Requester", "Email", "Purpose", "Destination",
	"Departure", "Return", "Travellers", "Totals", "Decided At", "Archived At",
}

// ExportArchived renders the archived list as an XLSX workbook.
func (s *ApplicationServiceImpl) ExportArchived(ctx context.Context) ([]byte, string, error) {
	apps, err := s.ListArchived(ctx)
	if err != nil {
		return nil, "", err
	}

	siteName := settings.Defaults().System.SiteName
	if cfg, err := s.SettingsService.Get(ctx); err == nil && cfg.System.SiteName != "" {
		siteName = cfg.System.SiteName
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Archived"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, app := range apps {
		for colIdx, val := range exportRow(app) {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, val)
		}
	}

	for i := range exportColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 18)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("%s-archived-%s.xlsx", utils.Slug(siteName, "travel"), time.Now().UTC().Format("20060102"))
	return buffer.Bytes(), filename, nil
}

func exportRow(app Application) []any {
	travellers := make([]string, 0, len(app.Travellers))
	for _, t := range app.Travellers {
		travellers = append(travellers, t.Name)
	}

	totals := app.TotalsByCurrency()
	currencies := make([]string, 0, len(totals))
	for c := range totals {
		currencies = append(currencies, c)
	}
	slices.Sort(currencies)
	parts := make([]string, 0, len(currencies))
	for _, c := range currencies {
		parts = append(parts, fmt.Sprintf("%s %.2f", c, totals[c]))
	}

	return []any{
		app.ApplicationNumber,
		app.RequesterName,
		app.RequesterEmail,
		app.Purpose,
		app.Destination,
		app.DepartureDate.Format("2006-01-02"),
		app.ReturnDate.Format("2006-01-02"),
		strings.Join(travellers, ", "),
		strings.Join(parts, ", "),
		formatTime(app.DecidedAt),
		formatTime(app.ArchivedAt),
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}
