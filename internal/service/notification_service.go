package service

import (
	"context"
	"fmt"
	"time"

	"hrbackend/internal/model"
	"hrbackend/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier delivers a transition message to a worker.
type Notifier interface {
	Deliver(ctx context.Context, recipientWorkerID, requestID uuid.UUID, message string) error
}

// EventPublisher pushes realtime events to connected dashboards.
type EventPublisher interface {
	Publish(eventType string, payload interface{}) error
}

const EventNotification = "notification"

type NotificationResponse struct {
	ID            string  `json:"id"`
	RecipientID   string  `json:"recipient_id"`
	RecipientName string  `json:"recipient_name"`
	RequestID     *string `json:"request_id"`
	Message       string  `json:"message"`
	Read          bool    `json:"read"`
	CreatedAt     string  `json:"created_at"`
}

type NotificationService interface {
	Notifier
	List(ctx context.Context, unreadOnly bool, page, limit int) ([]NotificationResponse, int64, error)
	UnreadCount(ctx context.Context) (int64, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	// PurgeRead removes read notifications older than retention.
	PurgeRead(ctx context.Context, retention time.Duration) (int64, error)
}

type notificationService struct {
	repo      repository.NotificationRepository
	publisher EventPublisher
	now       Clock
	log       *zap.Logger
}

// NewNotificationService persists notifications and, when publisher is not nil,
// pushes each one as a realtime event.
func NewNotificationService(repo repository.NotificationRepository, publisher EventPublisher, now Clock, log *zap.Logger) NotificationService {
	if now == nil {
		now = time.Now
	}
	return &notificationService{repo: repo, publisher: publisher, now: now, log: log}
}

func (s *notificationService) Deliver(ctx context.Context, recipientWorkerID, requestID uuid.UUID, message string) error {
	n := &model.Notification{
		RecipientWorkerID: recipientWorkerID,
		Message:           message,
	}
	if requestID != uuid.Nil {
		n.RequestID = &requestID
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}

	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Publish(EventNotification, toNotificationResponse(n)); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

func (s *notificationService) List(ctx context.Context, unreadOnly bool, page, limit int) ([]NotificationResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	notifications, total, err := s.repo.List(ctx, unreadOnly, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	res := make([]NotificationResponse, 0, len(notifications))
	for i := range notifications {
		res = append(res, toNotificationResponse(&notifications[i]))
	}
	return res, total, nil
}

func (s *notificationService) UnreadCount(ctx context.Context) (int64, error) {
	count, err := s.repo.CountUnread(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, id, s.now()); err != nil {
		return notFoundOr(err, "notification")
	}
	return nil
}

func (s *notificationService) PurgeRead(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().Add(-retention)
	purged, err := s.repo.PurgeRead(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge notifications: %w", err)
	}
	if purged > 0 {
		s.log.Info("purged read notifications", zap.Int64("count", purged), zap.Time("cutoff", cutoff))
	}
	return purged, nil
}

func toNotificationResponse(n *model.Notification) NotificationResponse {
	res := NotificationResponse{
		ID:          n.ID.String(),
		RecipientID: n.RecipientWorkerID.String(),
		Message:     n.Message,
		Read:        n.Read,
		CreatedAt:   n.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if n.Recipient != nil {
		res.RecipientName = n.Recipient.Name
	}
	if n.RequestID != nil {
		id := n.RequestID.String()
		res.RequestID = &id
	}
	return res
}
