package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go-travel/internal/common/errs"
	"go-travel/internal/common/models"
	"go-travel/internal/features/application"
	"go-travel/internal/features/decision"
	"go-travel/internal/features/email"
	"go-travel/internal/features/notification"
	"go-travel/internal/features/settings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MockApplicationRepo struct {
	mu        sync.Mutex
	Apps      map[string]*application.Application
	FindCalls int
	// BeforeApply runs inside ApplyStatus before the status check.
	BeforeApply func(app *application.Application)
	ApplyErr    error
}

func newMockRepo(apps ...*application.Application) *MockApplicationRepo {
	m := &MockApplicationRepo{Apps: map[string]*application.Application{}}
	for _, a := range apps {
		if a.ID.IsZero() {
			a.ID = primitive.NewObjectID()
		}
		m.Apps[a.ID.Hex()] = a
	}
	return m
}

func (m *MockApplicationRepo) get(id string) application.Application {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.Apps[id]
}

func (m *MockApplicationRepo) Create(ctx context.Context, app *application.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *app
	m.Apps[app.ID.Hex()] = &cp
	return nil
}

func (m *MockApplicationRepo) FindByID(ctx context.Context, id string) (*application.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindCalls++
	app, ok := m.Apps[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *app
	return &cp, nil
}

func (m *MockApplicationRepo) FindByStatus(ctx context.Context, statuses []models.ApplicationStatus) ([]application.Application, error) {
	return nil, nil
}

func (m *MockApplicationRepo) FindByRequester(ctx context.Context, requesterID string) ([]application.Application, error) {
	return nil, nil
}

func (m *MockApplicationRepo) FindArchived(ctx context.Context) ([]application.Application, error) {
	return nil, nil
}

func (m *MockApplicationRepo) UpdateDraft(ctx context.Context, id string, draft application.Draft) error {
	return nil
}

func (m *MockApplicationRepo) ApplyStatus(ctx context.Context, id string, expected models.ApplicationStatus, change application.StatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ApplyErr != nil {
		return m.ApplyErr
	}
	app, ok := m.Apps[id]
	if !ok {
		return errs.ErrNotFound
	}
	if m.BeforeApply != nil {
		m.BeforeApply(app)
	}
	if app.Status != expected {
		return errs.ErrInvalidTransition
	}
	change.Apply(app)
	return nil
}

func (m *MockApplicationRepo) EnsureIndexes(ctx context.Context) error { return nil }

type MockDecisionRepo struct {
	mu        sync.Mutex
	Entries   []decision.Entry
	AppendErr error
}

func (m *MockDecisionRepo) Append(ctx context.Context, entry decision.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.Entries = append(m.Entries, entry)
	return nil
}

func (m *MockDecisionRepo) ListFor(ctx context.Context, applicationID string) ([]decision.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []decision.Entry{}
	for _, e := range m.Entries {
		if e.ApplicationID == applicationID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockDecisionRepo) Last(ctx context.Context, applicationID string) (*decision.Entry, error) {
	entries, _ := m.ListFor(ctx, applicationID)
	if len(entries) == 0 {
		return nil, nil
	}
	last := entries[len(entries)-1]
	return &last, nil
}

func (m *MockDecisionRepo) EnsureIndexes(ctx context.Context) error { return nil }

// MockTransactor discards decision entries appended by a failed fn. The
// status write is the last step of fn, so applications need no rollback.
type MockTransactor struct {
	Decisions *MockDecisionRepo
	Calls     int
}

func (m *MockTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	m.Decisions.mu.Lock()
	entries := len(m.Decisions.Entries)
	m.Decisions.mu.Unlock()

	err := fn(ctx)
	if err != nil {
		m.Decisions.mu.Lock()
		m.Decisions.Entries = m.Decisions.Entries[:entries]
		m.Decisions.mu.Unlock()
	}
	return err
}

type MockSequencer struct {
	mu     sync.Mutex
	Values map[string]int64
	Err    error
}

func (m *MockSequencer) Next(ctx context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	if m.Values == nil {
		m.Values = map[string]int64{}
	}
	m.Values[name]++
	return m.Values[name], nil
}

type MockSettingsService struct {
	Doc settings.Document
}

func (m *MockSettingsService) Get(ctx context.Context) (*settings.Document, error) {
	doc := m.Doc
	return &doc, nil
}

func (m *MockSettingsService) Update(ctx context.Context, partial json.RawMessage, actorID string) (*settings.Document, error) {
	return nil, errors.New("not used")
}

type MockDispatcher struct {
	mu     sync.Mutex
	Events []notification.Event
	// Release, when set, blocks Dispatch until it is closed.
	Release chan struct{}
	Done    chan struct{}
}

func (m *MockDispatcher) Dispatch(ctx context.Context, ev notification.Event) string {
	if m.Release != nil {
		<-m.Release
	}
	m.mu.Lock()
	m.Events = append(m.Events, ev)
	m.mu.Unlock()
	if m.Done != nil {
		m.Done <- struct{}{}
	}
	return notification.OutcomeSent
}

func (m *MockDispatcher) events() []notification.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notification.Event(nil), m.Events...)
}

type MockSender struct {
	mu   sync.Mutex
	Sent []email.Message
	Err  error
}

func (m *MockSender) Send(ctx context.Context, msg email.Message) (email.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)
	if m.Err != nil {
		return email.Receipt{}, m.Err
	}
	return email.Receipt{MessageID: "<1@test>", Accepted: msg.To}, nil
}

// clock hands out the queued instants in order and repeats the last one.
type clock struct {
	mu    sync.Mutex
	times []time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.times[0]
	if len(c.times) > 1 {
		c.times = c.times[1:]
	}
	return t
}
