package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"hrbackend/internal/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDeliverPersistsAndPublishes(t *testing.T) {
	f := newFixture(t, june10)
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewNotificationService(f.notifications, pub, func() time.Time { return f.now }, zap.NewNop())
	w := f.worker(t, "Ali", 30, 0)
	requestID := uuid.New()

	require.NoError(t, svc.Deliver(ctx, w.ID, requestID, "hello"))
	assert.Equal(t, []string{EventNotification}, pub.events)

	list, total, err := svc.List(ctx, false, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "hello", list[0].Message)
	assert.Equal(t, "Ali", list[0].RecipientName)
	require.NotNil(t, list[0].RequestID)
	assert.Equal(t, requestID.String(), *list[0].RequestID)

	unread, err := svc.UnreadCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	require.NoError(t, svc.MarkRead(ctx, uuid.MustParse(list[0].ID)))
	unread, err = svc.UnreadCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, unread)

	assert.ErrorIs(t, svc.MarkRead(ctx, uuid.New()), ErrNotFound)
}

func TestDeliverReportsPublishFailureAfterSaving(t *testing.T) {
	f := newFixture(t, june10)
	ctx := context.Background()
	svc := NewNotificationService(f.notifications, &recordingPublisher{err: errors.New("hub closed")}, nil, zap.NewNop())
	w := f.worker(t, "Ali", 30, 0)

	err := svc.Deliver(ctx, w.ID, uuid.Nil, "hello")
	assert.Error(t, err)

	_, total, err := svc.List(ctx, true, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestPurgeReadKeepsUnreadAndRecent(t *testing.T) {
	f := newFixture(t, june10)
	ctx := context.Background()
	svc := NewNotificationService(f.notifications, nil, nil, zap.NewNop())
	w := f.worker(t, "Ali", 30, 0)

	require.NoError(t, svc.Deliver(ctx, w.ID, uuid.Nil, "read"))
	require.NoError(t, svc.Deliver(ctx, w.ID, uuid.Nil, "unread"))
	list, _, err := svc.List(ctx, false, 1, 10)
	require.NoError(t, err)
	for _, n := range list {
		if n.Message == "read" {
			require.NoError(t, svc.MarkRead(ctx, uuid.MustParse(n.ID)))
		}
	}

	purged, err := svc.PurgeRead(ctx, time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 0, purged)

	// A negative retention moves the cutoff into the future.
	purged, err = svc.PurgeRead(ctx, -time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	list, total, err := svc.List(ctx, false, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "unread", list[0].Message)
}

func TestDecisionsLandInNotificationFeed(t *testing.T) {
	f := newFixture(t, june10)
	ctx := context.Background()
	feed := NewNotificationService(f.notifications, nil, nil, zap.NewNop())
	tr := f.tr
	engine := workflow.NewEngine(workflow.NewMessageComposer(tr))
	approvals := NewApprovalService(f.tx, f.requests, f.workers, f.users, f.audit, engine, feed, zap.NewNop())

	w := f.worker(t, "Ali", 30, 0)
	id := createLeave(t, f, w, "2025-06-20", "2025-06-21")

	_, err := approvals.Decide(ctx, workflow.KindLeave, id, f.hr.ID, DecisionInput{Approved: true})
	require.NoError(t, err)

	list, total, err := feed.List(ctx, true, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Contains(t, list[0].Message, "validated by HR (Sonia)")
	assert.Equal(t, w.ID.String(), list[0].RecipientID)
}
