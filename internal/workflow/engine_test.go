package workflow_test

import (
	"context"
	"testing"
	"time"

	"hrbackend/internal/i18n"
	"hrbackend/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func newEngine(t *testing.T, opts ...workflow.Option) *workflow.Engine {
	t.Helper()
	tr, err := i18n.New("en")
	require.NoError(t, err)
	opts = append([]workflow.Option{workflow.WithClock(func() time.Time { return fixedNow })}, opts...)
	return workflow.NewEngine(workflow.NewMessageComposer(tr), opts...)
}

func leaveRequest(t *testing.T, subject workflow.Subject) *workflow.Request {
	return &workflow.Request{
		ID:       uuid.New(),
		Kind:     workflow.KindLeave,
		Status:   workflow.StatusPendingHR,
		Subjects: []workflow.Subject{subject},
		Details: workflow.Details{
			StartDate: date(t, "2025-06-01"),
			EndDate:   date(t, "2025-06-05"),
		},
	}
}

func TestApplyDecisionLeaveHappyPath(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t)
	worker := workflow.Subject{WorkerID: uuid.New(), Name: "Amina Ben Salah"}
	req := leaveRequest(t, worker)

	hr := workflow.Actor{ID: uuid.New(), Role: workflow.RoleHR, Name: "Sonia"}
	out, err := engine.ApplyDecision(ctx, req, hr, true, "")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPendingAdmin, out.NewStatus)
	assert.False(t, out.IsFinal)
	require.Len(t, out.Notifications, 1)
	assert.Equal(t, worker.WorkerID, out.Notifications[0].RecipientWorkerID)
	assert.Contains(t, out.Notifications[0].Message, "validated by HR (Sonia)")
	assert.Contains(t, out.Notifications[0].Message, "Awaiting Director")
	assert.Contains(t, out.Notifications[0].Message, "2025-06-01")
	assert.Equal(t, fixedNow, out.Decision.Timestamp)

	admin := workflow.Actor{ID: uuid.New(), Role: workflow.RoleAdmin, Name: "Karim"}
	out, err = engine.ApplyDecision(ctx, req, admin, true, "enjoy")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusAccepted, out.NewStatus)
	assert.True(t, out.IsFinal)
	assert.Contains(t, out.Notifications[0].Message, "finally approved")
	assert.Equal(t, "enjoy", out.Decision.Comment)

	assert.Equal(t, workflow.StatusAccepted, req.Status)
	require.Len(t, req.Decisions, 2)
	assert.Equal(t, workflow.RoleHR, req.Decisions[0].Role)
	assert.Equal(t, workflow.RoleAdmin, req.Decisions[1].Role)
}

func TestApplyDecisionMissionMultiWorkerRejection(t *testing.T) {
	engine := newEngine(t)
	subjects := []workflow.Subject{
		{WorkerID: uuid.New(), Name: "Ali"},
		{WorkerID: uuid.New(), Name: "Leila"},
	}
	req := &workflow.Request{
		ID:       uuid.New(),
		Kind:     workflow.KindMission,
		Status:   workflow.StatusPendingHR,
		Subjects: subjects,
		Details: workflow.Details{
			StartDate:   date(t, "2025-06-03"),
			EndDate:     date(t, "2025-06-04"),
			Destination: "Sfax",
		},
	}

	out, err := engine.ApplyDecision(context.Background(), req, workflow.Actor{ID: uuid.New(), Role: workflow.RoleHR, Name: "Sonia"}, false, "budget")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusRejectedHR, out.NewStatus)
	assert.True(t, out.IsFinal)
	require.Len(t, out.Notifications, 2)
	for i, n := range out.Notifications {
		assert.Equal(t, subjects[i].WorkerID, n.RecipientWorkerID)
		assert.Contains(t, n.Message, "rejected by HR")
		assert.Contains(t, n.Message, subjects[i].Name)
		assert.Contains(t, n.Message, "Sfax")
	}
}

func TestApplyDecisionAdvanceSingleStage(t *testing.T) {
	engine := newEngine(t)
	req := &workflow.Request{
		ID:       uuid.New(),
		Kind:     workflow.KindAdvance,
		Status:   workflow.InitialStatus(workflow.KindAdvance),
		Subjects: []workflow.Subject{{WorkerID: uuid.New(), Name: "Ali"}},
		Details:  workflow.Details{Amount: decimal.NewFromInt(400)},
	}

	_, err := engine.ApplyDecision(context.Background(), req, workflow.Actor{Role: workflow.RoleHR}, true, "")
	require.ErrorIs(t, err, workflow.ErrIllegalTransition)

	out, err := engine.ApplyDecision(context.Background(), req, workflow.Actor{Role: workflow.RoleAdmin, Name: "Karim"}, true, "")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusAccepted, out.NewStatus)
	assert.True(t, out.IsFinal)
	assert.Contains(t, out.Notifications[0].Message, "400.00")
}

func TestApplyDecisionRoleGating(t *testing.T) {
	tests := []struct {
		name   string
		role   workflow.Role
		status workflow.Status
	}{
		{"secretary at HR stage", workflow.RoleSecretary, workflow.StatusPendingHR},
		{"admin at HR stage", workflow.RoleAdmin, workflow.StatusPendingHR},
		{"HR at admin stage", workflow.RoleHR, workflow.StatusPendingAdmin},
		{"secretary at admin stage", workflow.RoleSecretary, workflow.StatusPendingAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := leaveRequest(t, workflow.Subject{WorkerID: uuid.New(), Name: "Ali"})
			req.Status = tt.status

			out, err := newEngine(t).ApplyDecision(context.Background(), req, workflow.Actor{Role: tt.role}, true, "")
			require.ErrorIs(t, err, workflow.ErrIllegalTransition)
			assert.Contains(t, err.Error(), "not authorized")
			assert.Empty(t, out.Notifications)
			assert.Equal(t, tt.status, req.Status)
			assert.Empty(t, req.Decisions)
		})
	}
}

func TestApplyDecisionTerminalIsIdempotent(t *testing.T) {
	engine := newEngine(t)
	for _, status := range []workflow.Status{workflow.StatusAccepted, workflow.StatusRejectedHR, workflow.StatusRejectedAdmin} {
		req := leaveRequest(t, workflow.Subject{WorkerID: uuid.New(), Name: "Ali"})
		req.Status = status

		for i := 0; i < 2; i++ {
			for _, role := range workflow.AllRoles {
				out, err := engine.ApplyDecision(context.Background(), req, workflow.Actor{Role: role}, i == 0, "")
				require.ErrorIs(t, err, workflow.ErrIllegalTransition)
				assert.Contains(t, err.Error(), "already decided")
				assert.Empty(t, out.Notifications)
			}
		}
		assert.Equal(t, status, req.Status)
		assert.Empty(t, req.Decisions)
	}
}

func TestApplyDecisionFinalComment(t *testing.T) {
	engine := newEngine(t, workflow.WithFinalCommentRequired(true))
	req := leaveRequest(t, workflow.Subject{WorkerID: uuid.New(), Name: "Ali"})

	// Intermediate approvals never need a comment.
	_, err := engine.ApplyDecision(context.Background(), req, workflow.Actor{Role: workflow.RoleHR}, true, "")
	require.NoError(t, err)

	_, err = engine.ApplyDecision(context.Background(), req, workflow.Actor{Role: workflow.RoleAdmin}, false, "   ")
	require.ErrorIs(t, err, workflow.ErrCommentRequired)
	assert.Equal(t, workflow.StatusPendingAdmin, req.Status)

	out, err := engine.ApplyDecision(context.Background(), req, workflow.Actor{Role: workflow.RoleAdmin}, false, " no cover ")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusRejectedAdmin, out.NewStatus)
	assert.Equal(t, "no cover", out.Decision.Comment)
}

func TestApplyDecisionRequiresSubjects(t *testing.T) {
	hr := workflow.Actor{ID: uuid.New(), Role: workflow.RoleHR, Name: "Sonia"}

	orphan := leaveRequest(t, workflow.Subject{})
	orphan.Subjects = nil
	_, err := newEngine(t).ApplyDecision(context.Background(), orphan, hr, true, "")
	require.ErrorIs(t, err, workflow.ErrIllegalTransition)
	assert.Equal(t, workflow.StatusPendingHR, orphan.Status)
	assert.Empty(t, orphan.Decisions)

	twice := leaveRequest(t, workflow.Subject{WorkerID: uuid.New(), Name: "Ali"})
	twice.Subjects = append(twice.Subjects, workflow.Subject{WorkerID: uuid.New(), Name: "Leila"})
	_, err = newEngine(t).ApplyDecision(context.Background(), twice, hr, true, "")
	require.ErrorIs(t, err, workflow.ErrIllegalTransition)
}
