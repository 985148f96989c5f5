package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// NotificationRepository captures the persistence interactions for notifications.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification Notification) error
	ListNotificationsByRecipient(ctx context.Context, recipientID string) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id, recipientID string, readAt time.Time) error
}

// RepositoryNotifier implements Notifier by persisting notification rows.
// Emission happens after the triggering transaction has committed, so a
// failure here leaves the domain change intact.
type RepositoryNotifier struct {
	notifications NotificationRepository
	idGenerator   func() string
	now           func() time.Time
}

// NewRepositoryNotifier constructs a notifier backed by the notification store.
func NewRepositoryNotifier(notifications NotificationRepository, idGenerator func() string, now func() time.Time) *RepositoryNotifier {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RepositoryNotifier{notifications: notifications, idGenerator: idGenerator, now: now}
}

// Emit stores one notification row for the recipient.
func (n *RepositoryNotifier) Emit(ctx context.Context, recipientID, notificationType, title, body, relatedID, actionURL string) error {
	if n == nil || n.notifications == nil {
		return fmt.Errorf("notification repository not configured")
	}
	return n.notifications.CreateNotification(ctx, Notification{
		ID:          n.idGenerator(),
		RecipientID: recipientID,
		Type:        notificationType,
		Title:       title,
		Body:        body,
		RelatedID:   relatedID,
		ActionURL:   actionURL,
		CreatedAt:   n.now(),
	})
}

// NotificationService serves the recipient-facing notification feed.
type NotificationService struct {
	notifications NotificationRepository
	now           func() time.Time
	logger        *slog.Logger
}

// NewNotificationService wires dependencies for notification reads.
func NewNotificationService(notifications NotificationRepository, now func() time.Time, logger *slog.Logger) *NotificationService {
	if now == nil {
		now = time.Now
	}
	return &NotificationService{
		notifications: notifications,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

// ListForPrincipal returns the caller's notifications, newest first.
func (s *NotificationService) ListForPrincipal(ctx context.Context, principal Principal) ([]Notification, error) {
	if s == nil || s.notifications == nil {
		return nil, fmt.Errorf("notification repository not configured")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}

	notifications, err := s.notifications.ListNotificationsByRecipient(ctx, principal.UserID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return notifications, nil
}

// MarkRead records the read timestamp on one of the caller's notifications.
func (s *NotificationService) MarkRead(ctx context.Context, principal Principal, notificationID string) error {
	if s == nil || s.notifications == nil {
		return fmt.Errorf("notification repository not configured")
	}
	if principal.UserID == "" {
		return ErrUnauthorized
	}

	logger := serviceLogger(ctx, s.logger, "NotificationService", "MarkRead", "notification_id", notificationID)

	if err := s.notifications.MarkNotificationRead(ctx, notificationID, principal.UserID, s.now()); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to mark notification read", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	return nil
}
