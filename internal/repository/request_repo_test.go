package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"hrbackend/internal/config"
	"hrbackend/internal/database"
	"hrbackend/internal/model"
	"hrbackend/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewConnection(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "hr.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	return db
}

func seedWorker(t *testing.T, repo WorkerRepository, name string, total, used int) *model.Worker {
	t.Helper()
	w := &model.Worker{Name: name, CIN: uuid.NewString()[:8], TotalLeaveDays: total, UsedLeaveDays: used}
	require.NoError(t, repo.Create(context.Background(), w))
	return w
}

func seedRequest(t *testing.T, repo RequestRepository, kind workflow.Kind, workers ...model.Worker) *model.Request {
	t.Helper()
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 4)
	req := &model.Request{
		Kind:        kind,
		Status:      workflow.InitialStatus(kind),
		RequestDate: time.Now(),
		Workers:     workers,
		StartDate:   &start,
		EndDate:     &end,
		LeaveType:   model.LeaveTypeAnnual,
	}
	require.NoError(t, repo.Create(context.Background(), req))
	return req
}

func TestRequestCreateAndFind(t *testing.T) {
	db := newTestDB(t)
	workers := NewWorkerRepository(db)
	requests := NewRequestRepository(db)
	ctx := context.Background()

	a := seedWorker(t, workers, "Ali", 30, 0)
	b := seedWorker(t, workers, "Leila", 30, 0)
	created := seedRequest(t, requests, workflow.KindMission, *a, *b)

	got, err := requests.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPendingHR, got.Status)
	assert.Len(t, got.Workers, 2)
	require.NotNil(t, got.StartDate)
	assert.Equal(t, "2025-06-01", got.StartDate.Format("2006-01-02"))

	_, err = requests.FindByID(ctx, uuid.New())
	assert.True(t, IsNotFound(err))
}

func TestRequestTransitionIsCompareAndSwap(t *testing.T) {
	db := newTestDB(t)
	workers := NewWorkerRepository(db)
	requests := NewRequestRepository(db)
	ctx := context.Background()

	w := seedWorker(t, workers, "Ali", 30, 0)
	req := seedRequest(t, requests, workflow.KindLeave, *w)
	actor := uuid.New()

	err := requests.Transition(ctx, req.ID, workflow.StatusPendingHR, workflow.StatusPendingAdmin,
		&model.Decision{Role: workflow.RoleHR, Approved: true, ActorID: actor})
	require.NoError(t, err)

	// A second writer that read PENDING_HR before the first commit loses.
	err = requests.Transition(ctx, req.ID, workflow.StatusPendingHR, workflow.StatusRejectedHR,
		&model.Decision{Role: workflow.RoleHR, Approved: false, ActorID: actor})
	require.ErrorIs(t, err, ErrStatusConflict)

	got, err := requests.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPendingAdmin, got.Status)
	require.Len(t, got.Decisions, 1)
	assert.True(t, got.Decisions[0].Approved)
}

func TestRunInTxRollsBackDecision(t *testing.T) {
	db := newTestDB(t)
	workers := NewWorkerRepository(db)
	requests := NewRequestRepository(db)
	tx := NewTransactionManager(db)
	ctx := context.Background()

	w := seedWorker(t, workers, "Ali", 5, 4)
	req := seedRequest(t, requests, workflow.KindLeave, *w)

	err := tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := requests.Transition(txCtx, req.ID, workflow.StatusPendingHR, workflow.StatusPendingAdmin,
			&model.Decision{Role: workflow.RoleHR, Approved: true, ActorID: uuid.New()}); err != nil {
			return err
		}
		return workers.DebitLeave(txCtx, w.ID, 2)
	})
	require.ErrorIs(t, err, ErrBalanceExceeded)

	got, err := requests.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPendingHR, got.Status)
	assert.Empty(t, got.Decisions)
}

func TestFindPendingForWorker(t *testing.T) {
	db := newTestDB(t)
	workers := NewWorkerRepository(db)
	requests := NewRequestRepository(db)
	ctx := context.Background()

	w := seedWorker(t, workers, "Ali", 30, 0)
	other := seedWorker(t, workers, "Leila", 30, 0)

	pending, err := requests.FindPendingForWorker(ctx, w.ID, workflow.KindLeave)
	require.NoError(t, err)
	assert.Nil(t, pending)

	req := seedRequest(t, requests, workflow.KindLeave, *w)

	pending, err = requests.FindPendingForWorker(ctx, w.ID, workflow.KindLeave)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, req.ID, pending.ID)

	pending, err = requests.FindPendingForWorker(ctx, w.ID, workflow.KindMission)
	require.NoError(t, err)
	assert.Nil(t, pending)

	pending, err = requests.FindPendingForWorker(ctx, other.ID, workflow.KindLeave)
	require.NoError(t, err)
	assert.Nil(t, pending)

	require.NoError(t, requests.Transition(ctx, req.ID, workflow.StatusPendingHR, workflow.StatusRejectedHR,
		&model.Decision{Role: workflow.RoleHR, ActorID: uuid.New()}))
	pending, err = requests.FindPendingForWorker(ctx, w.ID, workflow.KindLeave)
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestListFilters(t *testing.T) {
	db := newTestDB(t)
	workers := NewWorkerRepository(db)
	requests := NewRequestRepository(db)
	ctx := context.Background()

	a := seedWorker(t, workers, "Ali", 30, 0)
	b := seedWorker(t, workers, "Leila", 30, 0)
	seedRequest(t, requests, workflow.KindLeave, *a)
	seedRequest(t, requests, workflow.KindLeave, *b)
	seedRequest(t, requests, workflow.KindMission, *a, *b)

	all, total, err := requests.List(ctx, RequestFilter{Kind: workflow.KindLeave})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)

	mine, total, err := requests.List(ctx, RequestFilter{WorkerID: &a.ID, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, mine, 2)

	page, total, err := requests.List(ctx, RequestFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, page, 1)
}

func TestDeleteOnlyWhileInStatus(t *testing.T) {
	db := newTestDB(t)
	workers := NewWorkerRepository(db)
	requests := NewRequestRepository(db)
	ctx := context.Background()

	w := seedWorker(t, workers, "Ali", 30, 0)
	req := seedRequest(t, requests, workflow.KindLeave, *w)

	err := requests.Delete(ctx, req.ID, workflow.StatusPendingAdmin)
	require.ErrorIs(t, err, ErrStatusConflict)

	require.NoError(t, requests.Delete(ctx, req.ID, workflow.StatusPendingHR))
	_, err = requests.FindByID(ctx, req.ID)
	assert.True(t, IsNotFound(err))
}

func TestSetGrantedAmount(t *testing.T) {
	db := newTestDB(t)
	workers := NewWorkerRepository(db)
	requests := NewRequestRepository(db)
	ctx := context.Background()

	w := seedWorker(t, workers, "Ali", 30, 0)
	req := &model.Request{
		Kind:            workflow.KindAdvance,
		Status:          workflow.StatusPendingAdmin,
		RequestDate:     time.Now(),
		Workers:         []model.Worker{*w},
		RequestedAmount: decimal.NewFromInt(500),
	}
	require.NoError(t, requests.Create(ctx, req))
	require.NoError(t, requests.SetGrantedAmount(ctx, req.ID, decimal.RequireFromString("350.50")))

	got, err := requests.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, got.GrantedAmount.Equal(decimal.RequireFromString("350.50")), got.GrantedAmount.String())
	assert.True(t, got.RequestedAmount.Equal(decimal.NewFromInt(500)))
}

func TestDebitLeave(t *testing.T) {
	db := newTestDB(t)
	workers := NewWorkerRepository(db)
	ctx := context.Background()

	w := seedWorker(t, workers, "Ali", 30, 25)

	require.NoError(t, workers.DebitLeave(ctx, w.ID, 5))
	err := workers.DebitLeave(ctx, w.ID, 1)
	assert.True(t, errors.Is(err, ErrBalanceExceeded))

	got, err := workers.FindByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, got.UsedLeaveDays)
	assert.Equal(t, 0, got.RemainingLeaveDays())
}

func TestWorkerUpdateKeepsLeaveDebits(t *testing.T) {
	db := newTestDB(t)
	workers := NewWorkerRepository(db)
	ctx := context.Background()

	w := seedWorker(t, workers, "Ali", 30, 10)
	stale, err := workers.FindByID(ctx, w.ID)
	require.NoError(t, err)

	require.NoError(t, workers.DebitLeave(ctx, w.ID, 5))
	require.NoError(t, workers.Update(ctx, w.ID, map[string]interface{}{
		"position":        "Driver",
		"used_leave_days": stale.UsedLeaveDays,
	}))

	got, err := workers.FindByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, got.UsedLeaveDays)
	assert.Equal(t, "Driver", got.Position)

	// The allowance cannot drop below what the debit already used.
	err = workers.Update(ctx, w.ID, map[string]interface{}{"total_leave_days": 12})
	require.ErrorIs(t, err, ErrBalanceExceeded)
	require.NoError(t, workers.Update(ctx, w.ID, map[string]interface{}{"total_leave_days": 15}))

	got, err = workers.FindByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, got.TotalLeaveDays)
	assert.Equal(t, 0, got.RemainingLeaveDays())

	err = workers.Update(ctx, uuid.New(), map[string]interface{}{"position": "Driver"})
	assert.True(t, IsNotFound(err))
}
