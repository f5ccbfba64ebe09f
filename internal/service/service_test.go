package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"hrbackend/internal/config"
	"hrbackend/internal/database"
	"hrbackend/internal/i18n"
	"hrbackend/internal/model"
	"hrbackend/internal/repository"
	"hrbackend/internal/storage"
	"hrbackend/internal/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const mockAny = mock.Anything

// mockNotifier records deliveries.
type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Deliver(ctx context.Context, recipientWorkerID, requestID uuid.UUID, message string) error {
	args := m.Called(ctx, recipientWorkerID, requestID, message)
	return args.Error(0)
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	events []string
	err    error
}

func (p *recordingPublisher) Publish(eventType string, payload interface{}) error {
	p.events = append(p.events, eventType)
	return p.err
}

type fixture struct {
	db            *gorm.DB
	tx            repository.TransactionManager
	requests      repository.RequestRepository
	workers       repository.WorkerRepository
	users         repository.UserRepository
	audit         repository.AuditRepository
	notifications repository.NotificationRepository
	store         storage.Store
	tr            *i18n.Translator
	notifier      *mockNotifier
	now           time.Time

	requestSvc  RequestService
	approvalSvc ApprovalService

	secretary *model.User
	hr        *model.User
	admin     *model.User
}

// newFixture wires the request and approval services against a fresh sqlite file.
// now pins "today" for eligibility checks and decision timestamps.
func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	db, err := database.NewConnection(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "hr.db"),
	}, zap.NewNop())
	require.NoError(t, err)

	store, err := storage.NewLocalStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	tr, err := i18n.New("en")
	require.NoError(t, err)

	f := &fixture{
		db:            db,
		tx:            repository.NewTransactionManager(db),
		requests:      repository.NewRequestRepository(db),
		workers:       repository.NewWorkerRepository(db),
		users:         repository.NewUserRepository(db),
		audit:         repository.NewAuditRepository(db),
		notifications: repository.NewNotificationRepository(db),
		store:         store,
		tr:            tr,
		notifier:      &mockNotifier{},
		now:           now,
	}
	clock := func() time.Time { return f.now }

	engine := workflow.NewEngine(workflow.NewMessageComposer(tr), workflow.WithClock(clock))
	checker := workflow.NewChecker(workflow.DefaultAdvanceCutoffDay, time.UTC)
	f.requestSvc = NewRequestService(f.tx, f.requests, f.workers, f.audit, store, checker, clock, zap.NewNop())
	f.approvalSvc = NewApprovalService(f.tx, f.requests, f.workers, f.users, f.audit, engine, f.notifier, zap.NewNop())

	f.secretary = f.user(t, "Nadia", workflow.RoleSecretary)
	f.hr = f.user(t, "Sonia", workflow.RoleHR)
	f.admin = f.user(t, "Karim", workflow.RoleAdmin)
	return f
}

func (f *fixture) user(t *testing.T, name string, role workflow.Role) *model.User {
	t.Helper()
	u := &model.User{Name: name, Email: uuid.NewString() + "@example.com", Password: "x", Role: role}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) worker(t *testing.T, name string, total, used int) *model.Worker {
	t.Helper()
	w := &model.Worker{
		Name:           name,
		CIN:            uuid.NewString()[:8],
		Status:         model.WorkerStatusActive,
		TotalLeaveDays: total,
		UsedLeaveDays:  used,
	}
	require.NoError(t, f.workers.Create(context.Background(), w))
	return w
}

func (f *fixture) auditActions(t *testing.T) []string {
	t.Helper()
	logs, _, err := f.audit.List(context.Background(), repository.AuditFilter{Page: 1, Limit: 100})
	require.NoError(t, err)
	actions := make([]string, 0, len(logs))
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	return actions
}
