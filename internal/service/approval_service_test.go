package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"hrbackend/internal/model"
	"hrbackend/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func contains(sub string) interface{} {
	return mock.MatchedBy(func(msg string) bool { return strings.Contains(msg, sub) })
}

func createLeave(t *testing.T, f *fixture, w *model.Worker, start, end string) uuid.UUID {
	t.Helper()
	res, err := f.requestSvc.CreateLeave(context.Background(), f.secretary.ID, CreateLeaveRequest{
		WorkerID:  w.ID.String(),
		LeaveType: model.LeaveTypeAnnual,
		StartDate: start,
		EndDate:   end,
	}, nil)
	require.NoError(t, err)
	return uuid.MustParse(res.ID)
}

func TestLeaveHappyPathDebitsBalance(t *testing.T) {
	f := newFixture(t, june10)
	ctx := context.Background()
	w := f.worker(t, "Ali", 30, 10)
	id := createLeave(t, f, w, "2025-06-20", "2025-06-24")

	f.notifier.On("Deliver", mockAny, w.ID, id, contains("validated by HR (Sonia)")).Return(nil).Once()
	res, err := f.approvalSvc.Decide(ctx, workflow.KindLeave, id, f.hr.ID, DecisionInput{Approved: true})
	require.NoError(t, err)
	assert.Equal(t, string(workflow.StatusPendingAdmin), res.Status)

	// Not debited before the final decision.
	got, err := f.workers.FindByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.UsedLeaveDays)

	f.notifier.On("Deliver", mockAny, w.ID, id, contains("finally approved")).Return(nil).Once()
	res, err = f.approvalSvc.Decide(ctx, workflow.KindLeave, id, f.admin.ID, DecisionInput{Approved: true, Comment: " enjoy "})
	require.NoError(t, err)
	assert.Equal(t, string(workflow.StatusAccepted), res.Status)

	require.Len(t, res.Decisions, 2)
	assert.Equal(t, string(workflow.RoleHR), res.Decisions[0].Role)
	assert.Equal(t, "Sonia", res.Decisions[0].ActorName)
	assert.Equal(t, string(workflow.RoleAdmin), res.Decisions[1].Role)
	assert.Equal(t, "enjoy", res.Decisions[1].Comment)

	got, err = f.workers.FindByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, got.UsedLeaveDays)

	f.notifier.AssertExpectations(t)
	assert.ElementsMatch(t, []string{
		model.ActionCreateRequest,
		model.ActionDecideRequest,
		model.ActionDecideRequest,
		model.ActionDebitLeave,
	}, f.auditActions(t))
}

func TestMissionRejectionNotifiesEveryWorker(t *testing.T) {
	f := newFixture(t, june10)
	ctx := context.Background()
	workers := []*model.Worker{f.worker(t, "Ali", 30, 0), f.worker(t, "Leila", 30, 0), f.worker(t, "Omar", 30, 0)}
	ids := make([]string, 0, len(workers))
	for _, w := range workers {
		ids = append(ids, w.ID.String())
	}

	created, err := f.requestSvc.CreateMission(ctx, f.secretary.ID, CreateMissionRequest{
		WorkerIDs:   ids,
		Destination: "Sfax",
		StartDate:   "2025-06-12",
		EndDate:     "2025-06-14",
	})
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	for _, w := range workers {
		f.notifier.On("Deliver", mockAny, w.ID, id, contains("mission order for "+w.Name+" to Sfax was rejected by HR (Sonia)")).Return(nil).Once()
	}
	res, err := f.approvalSvc.Decide(ctx, workflow.KindMission, id, f.hr.ID, DecisionInput{Approved: false, Comment: "budget"})
	require.NoError(t, err)
	assert.Equal(t, string(workflow.StatusRejectedHR), res.Status)
	f.notifier.AssertExpectations(t)
	f.notifier.AssertNumberOfCalls(t, "Deliver", 3)

	// Rejection is terminal.
	_, err = f.approvalSvc.Decide(ctx, workflow.KindMission, id, f.admin.ID, DecisionInput{Approved: true})
	assert.ErrorIs(t, err, workflow.ErrIllegalTransition)
	f.notifier.AssertNumberOfCalls(t, "Deliver", 3)

	// Every worker may file a new mission once the old one is decided.
	pending, err := f.requestSvc.HasPending(ctx, workflow.KindMission, workers[0].ID)
	require.NoError(t, err)
	assert.False(t, pending)
}

func TestDecisionRoleGating(t *testing.T) {
	f := newFixture(t, june10)
	ctx := context.Background()
	f.notifier.On("Deliver", mockAny, mockAny, mockAny, mockAny).Return(nil)
	w := f.worker(t, "Ali", 30, 0)
	id := createLeave(t, f, w, "2025-06-20", "2025-06-21")

	_, err := f.approvalSvc.Decide(ctx, workflow.KindLeave, id, f.secretary.ID, DecisionInput{Approved: true})
	assert.ErrorIs(t, err, workflow.ErrIllegalTransition)

	// The director cannot skip the HR stage.
	_, err = f.approvalSvc.Decide(ctx, workflow.KindLeave, id, f.admin.ID, DecisionInput{Approved: true})
	assert.ErrorIs(t, err, workflow.ErrIllegalTransition)

	_, err = f.approvalSvc.Decide(ctx, workflow.KindLeave, id, f.hr.ID, DecisionInput{Approved: true})
	require.NoError(t, err)

	_, err = f.approvalSvc.Decide(ctx, workflow.KindLeave, id, f.hr.ID, DecisionInput{Approved: true})
	assert.ErrorIs(t, err, workflow.ErrIllegalTransition)

	stored, err := f.requests.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPendingAdmin, stored.Status)
	assert.Len(t, stored.Decisions, 1)

	_, err = f.approvalSvc.Decide(ctx, workflow.KindMission, id, f.admin.ID, DecisionInput{Approved: true})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.approvalSvc.Decide(ctx, workflow.KindLeave, id, uuid.New(), DecisionInput{Approved: true})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNotificationFailureKeepsTransition(t *testing.T) {
	f := newFixture(t, june10)
	ctx := context.Background()
	w := f.worker(t, "Ali", 30, 0)
	id := createLeave(t, f, w, "2025-06-20", "2025-06-21")

	f.notifier.On("Deliver", mockAny, mockAny, mockAny, mockAny).Return(errors.New("push gateway down"))

	res, err := f.approvalSvc.Decide(ctx, workflow.KindLeave, id, f.hr.ID, DecisionInput{Approved: false})
	require.NoError(t, err)
	assert.Equal(t, string(workflow.StatusRejectedHR), res.Status)

	stored, err := f.requests.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusRejectedHR, stored.Status)
}

func TestAcceptanceRollsBackWhenBalanceIsGone(t *testing.T) {
	f := newFixture(t, june10)
	ctx := context.Background()
	f.notifier.On("Deliver", mockAny, mockAny, mockAny, mockAny).Return(nil)
	w := f.worker(t, "Ali", 5, 0)
	id := createLeave(t, f, w, "2025-06-20", "2025-06-24")

	_, err := f.approvalSvc.Decide(ctx, workflow.KindLeave, id, f.hr.ID, DecisionInput{Approved: true})
	require.NoError(t, err)

	// Another leave was charged in the meantime.
	require.NoError(t, f.workers.DebitLeave(ctx, w.ID, 2))

	_, err = f.approvalSvc.Decide(ctx, workflow.KindLeave, id, f.admin.ID, DecisionInput{Approved: true})
	assert.ErrorIs(t, err, workflow.ErrInsufficientBalance)

	stored, err := f.requests.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPendingAdmin, stored.Status)
	assert.Len(t, stored.Decisions, 1)
}

func TestAdvanceGrantedAmount(t *testing.T) {
	f := newFixture(t, june10)
	ctx := context.Background()
	w := f.worker(t, "Ali", 30, 0)

	created, err := f.requestSvc.CreateAdvance(ctx, f.secretary.ID, CreateAdvanceRequest{WorkerID: w.ID.String(), Amount: decimal.NewFromInt(500)})
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	// HR has no stage on advances.
	_, err = f.approvalSvc.Decide(ctx, workflow.KindAdvance, id, f.hr.ID, DecisionInput{Approved: true})
	assert.ErrorIs(t, err, workflow.ErrIllegalTransition)

	tooMuch := decimal.NewFromInt(600)
	_, err = f.approvalSvc.Decide(ctx, workflow.KindAdvance, id, f.admin.ID, DecisionInput{Approved: true, GrantedAmount: &tooMuch})
	assert.ErrorIs(t, err, ErrInvalidInput)

	granted := decimal.RequireFromString("300")
	f.notifier.On("Deliver", mockAny, w.ID, id, contains("300.00")).Return(nil).Once()
	res, err := f.approvalSvc.Decide(ctx, workflow.KindAdvance, id, f.admin.ID, DecisionInput{Approved: true, GrantedAmount: &granted})
	require.NoError(t, err)
	assert.Equal(t, string(workflow.StatusAccepted), res.Status)
	require.NotNil(t, res.GrantedAmount)
	assert.Equal(t, "300.00", res.GrantedAmount.StringFixed(2))
	assert.Equal(t, "500.00", res.RequestedAmount.StringFixed(2))
	f.notifier.AssertExpectations(t)
}

func TestAdvanceRejectionGrantsNothing(t *testing.T) {
	f := newFixture(t, june10)
	ctx := context.Background()
	f.notifier.On("Deliver", mockAny, mockAny, mockAny, mockAny).Return(nil)
	w := f.worker(t, "Ali", 30, 0)

	created, err := f.requestSvc.CreateAdvance(ctx, f.secretary.ID, CreateAdvanceRequest{WorkerID: w.ID.String(), Amount: decimal.NewFromInt(250)})
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	res, err := f.approvalSvc.Decide(ctx, workflow.KindAdvance, id, f.admin.ID, DecisionInput{Approved: false, Comment: "too early"})
	require.NoError(t, err)
	assert.Equal(t, string(workflow.StatusRejectedAdmin), res.Status)
	assert.True(t, res.GrantedAmount.IsZero())
}

func TestDeleteWorkerBlockedWhilePending(t *testing.T) {
	f := newFixture(t, june10)
	ctx := context.Background()
	svc := newWorkerService(f)
	w := f.worker(t, "Ali", 30, 10)
	id := createLeave(t, f, w, "2025-06-20", "2025-06-24")

	err := svc.DeleteWorker(ctx, f.admin.ID, w.ID)
	assert.ErrorIs(t, err, ErrConflict)

	f.notifier.On("Deliver", mockAny, w.ID, id, mockAny).Return(nil).Twice()
	_, err = f.approvalSvc.Decide(ctx, workflow.KindLeave, id, f.hr.ID, DecisionInput{Approved: true})
	require.NoError(t, err)
	res, err := f.approvalSvc.Decide(ctx, workflow.KindLeave, id, f.admin.ID, DecisionInput{Approved: true})
	require.NoError(t, err)
	assert.Equal(t, string(workflow.StatusAccepted), res.Status)
	assert.Len(t, res.Workers, 1)
	f.notifier.AssertExpectations(t)

	got, err := f.workers.FindByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, got.UsedLeaveDays)

	// Nothing is pending any more.
	require.NoError(t, svc.DeleteWorker(ctx, f.admin.ID, w.ID))

	stored, err := f.requests.FindByID(ctx, id)
	require.NoError(t, err)
	require.Len(t, stored.Workers, 1)
	assert.Equal(t, "Ali", stored.Workers[0].Name)
}

func TestDecisionRefusedWithoutLiveWorker(t *testing.T) {
	f := newFixture(t, june10)
	ctx := context.Background()

	deleted := f.worker(t, "Ali", 30, 10)
	leaveID := createLeave(t, f, deleted, "2025-06-20", "2025-06-24")
	require.NoError(t, f.workers.Delete(ctx, deleted.ID))

	_, err := f.approvalSvc.Decide(ctx, workflow.KindLeave, leaveID, f.hr.ID, DecisionInput{Approved: true})
	assert.ErrorIs(t, err, workflow.ErrIllegalTransition)

	missing := f.worker(t, "Leila", 30, 0)
	created, err := f.requestSvc.CreateAdvance(ctx, f.secretary.ID, CreateAdvanceRequest{WorkerID: missing.ID.String(), Amount: decimal.NewFromInt(200)})
	require.NoError(t, err)
	advanceID := uuid.MustParse(created.ID)
	require.NoError(t, f.db.Exec("DELETE FROM request_workers WHERE request_id = ?", advanceID).Error)

	_, err = f.approvalSvc.Decide(ctx, workflow.KindAdvance, advanceID, f.admin.ID, DecisionInput{Approved: true})
	assert.ErrorIs(t, err, workflow.ErrIllegalTransition)

	for _, id := range []uuid.UUID{leaveID, advanceID} {
		stored, err := f.requests.FindByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, stored.Status.IsPending(), stored.Status)
		assert.Empty(t, stored.Decisions)
	}
	f.notifier.AssertNotCalled(t, "Deliver", mockAny, mockAny, mockAny, mockAny)
}
