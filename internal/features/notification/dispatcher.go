package notification

import (
	"context"
	"strings"

	"go-travel/internal/features/email"
	"go-travel/internal/features/settings"
	"go-travel/internal/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const (
	OutcomeSent          = "sent"
	OutcomeFailed        = "failed"
	OutcomeSkipped       = "skipped"
	OutcomeNoRecipient   = "no_recipient"
	OutcomeSettingsError = "settings_error"
)

var notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "travel",
	Name:      "notifications_total",
	Help:      "Notification dispatch attempts by event and outcome.",
}, []string{"event", "outcome"})

// Dispatcher announces committed workflow events. It never reports
// failure to the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event) string
}

type DispatcherImpl struct {
	SettingsService settings.SettingsService
	Sender          email.Sender
	Logger          *zap.Logger
}

func NewDispatcher(settingsService settings.SettingsService, sender email.Sender, logger *zap.Logger) Dispatcher {
	return &DispatcherImpl{
		SettingsService: settingsService,
		Sender:          sender,
		Logger:          logger.Named("notification"),
	}
}

// Dispatch returns the outcome label it recorded.
func (d *DispatcherImpl) Dispatch(ctx context.Context, ev Event) string {
	outcome := d.dispatch(ctx, ev)
	notificationsTotal.WithLabelValues(string(ev.Kind), outcome).Inc()
	return outcome
}

func (d *DispatcherImpl) dispatch(ctx context.Context, ev Event) string {
	log := d.Logger.With(
		zap.String("event", string(ev.Kind)),
		zap.String("application_id", ev.Application.ID.Hex()),
		logger.RequestField(ctx),
	)

	cfg, err := d.SettingsService.Get(ctx)
	if err != nil {
		log.Error("Failed to load settings for notification", zap.Error(err))
		return OutcomeSettingsError
	}

	if !ShouldSend(cfg.Notifications, ev.Kind) {
		log.Debug("Notification disabled by settings")
		return OutcomeSkipped
	}

	to := Recipients(ev, cfg)
	if len(to) == 0 {
		log.Warn("Notification has no recipient")
		return OutcomeNoRecipient
	}

	tmpl := TemplateFor(cfg.Templates, ev.Kind)
	vars := Variables(ev)
	msg := email.Message{
		To:       to,
		Subject:  Render(tmpl.Subject, vars, false),
		HTML:     Render(tmpl.Body, vars, true),
		Event:    string(ev.Kind),
		EntityID: ev.Application.ID.Hex(),
	}

	receipt, err := d.Sender.Send(ctx, msg)
	if err != nil {
		log.Error("Failed to send notification", zap.Strings("to", to), zap.Error(err))
		return OutcomeFailed
	}

	log.Info("Notification sent", zap.Strings("to", receipt.Accepted), zap.String("message_id", receipt.MessageID))
	return OutcomeSent
}

// ShouldSend applies the settings flags. Minister referrals are always sent.
func ShouldSend(n settings.NotificationSettings, kind EventKind) bool {
	switch kind {
	case EventMinisterReferral:
		return true
	case EventSubmitted:
		return n.Enabled && n.ApplicationSubmitted
	case EventApproved:
		return n.Enabled && n.ApplicationApproved
	case EventRejected:
		return n.Enabled && n.ApplicationRejected
	case EventInfoRequested:
		return n.Enabled
	}
	return false
}

func TemplateFor(t settings.TemplateSet, kind EventKind) settings.Template {
	switch kind {
	case EventSubmitted:
		return t.ApplicationSubmitted
	case EventApproved:
		return t.ApplicationApproved
	case EventRejected:
		return t.ApplicationRejected
	case EventInfoRequested:
		return t.InfoRequested
	case EventMinisterReferral:
		return t.MinisterReferral
	}
	return settings.Template{}
}

// Recipients: referrals go to the address captured in the note, new
// submissions to the reviewer list, everything else to the requester.
func Recipients(ev Event, cfg *settings.Document) []string {
	switch ev.Kind {
	case EventMinisterReferral:
		addr := strings.TrimSpace(ev.Note)
		if addr == "" {
			addr = ev.Application.MinisterEmail
		}
		return nonEmpty([]string{addr})
	case EventSubmitted:
		return nonEmpty(cfg.Workflow.ReviewerEmails)
	default:
		return nonEmpty([]string{ev.Application.RequesterEmail})
	}
}

func nonEmpty(addrs []string) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// Variables exposes application, reviewer, note and reason to templates.
func Variables(ev Event) map[string]any {
	app := ev.Application
	reason := ""
	if ev.Kind == EventRejected {
		reason = ev.Note
	}

	return map[string]any{
		"application": map[string]any{
			"id":                app.ID.Hex(),
			"applicationNumber": app.ApplicationNumber,
			"requesterName":     app.RequesterName,
			"requesterEmail":    app.RequesterEmail,
			"purpose":           app.Purpose,
			"destination":       app.Destination,
			"departureDate":     app.DepartureDate,
			"returnDate":        app.ReturnDate,
			"status":            string(app.Status),
			"ministerEmail":     app.MinisterEmail,
			"travellerCount":    len(app.Travellers),
		},
		"reviewer": map[string]any{
			"id":        ev.Actor.ID,
			"name":      ev.Actor.FullName(),
			"firstName": ev.Actor.FirstName,
			"lastName":  ev.Actor.LastName,
			"email":     ev.Actor.Email,
		},
		"note":   ev.Note,
		"reason": reason,
	}
}
