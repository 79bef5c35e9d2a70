package services

import (
	"context"
	"log/slog"

	"github.com/anonto42/bazaar/backend/internal/apperr"
	"github.com/anonto42/bazaar/backend/internal/auth"
	"github.com/anonto42/bazaar/backend/internal/models"
	"github.com/anonto42/bazaar/backend/internal/notify"
	"github.com/anonto42/bazaar/backend/internal/repositories"
)

const (
	DefaultNotificationLimit = 50
	MaxNotificationLimit     = 100

	notificationNotFound = "Notification not found"
)

// InboxService is the per-user view over notification records.
type InboxService struct {
	notifications repositories.NotificationRepository
	notifier      Notifier
	log           *slog.Logger
}

func NewInboxService(notifications repositories.NotificationRepository, notifier Notifier, log *slog.Logger) *InboxService {
	return &InboxService{
		notifications: notifications,
		notifier:      notifier,
		log:           log.With("component", "inbox"),
	}
}

// ClampLimit applies the default and the upper bound to a requested page size.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultNotificationLimit
	case limit > MaxNotificationLimit:
		return MaxNotificationLimit
	default:
		return limit
	}
}

// List returns the newest notifications of userID first.
func (s *InboxService) List(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	notifications, err := s.notifications.GetByUserID(ctx, userID, int64(ClampLimit(limit)))
	if err != nil {
		return nil, apperr.Wrap(err, "list notifications")
	}
	return notifications, nil
}

func (s *InboxService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	count, err := s.notifications.GetUnreadCount(ctx, userID)
	if err != nil {
		return 0, apperr.Wrap(err, "count unread notifications")
	}
	return count, nil
}

// MarkRead sets the read flag of one of userID's notifications.
func (s *InboxService) MarkRead(ctx context.Context, id, userID string, isRead bool) (*models.Notification, error) {
	notification, err := s.notifications.SetRead(ctx, id, userID, isRead)
	if err != nil {
		return nil, storageErr(err, notificationNotFound)
	}
	return notification, nil
}

// MarkAllRead marks every unread notification of userID read and returns how many changed.
func (s *InboxService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	updated, err := s.notifications.MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, apperr.Wrap(err, "mark all notifications read")
	}
	return updated, nil
}

// Remove hard-deletes one of userID's notifications.
func (s *InboxService) Remove(ctx context.Context, id, userID string) error {
	if err := s.notifications.DeleteNotification(ctx, id, userID); err != nil {
		return storageErr(err, notificationNotFound)
	}
	return nil
}

// SendSystem queues a system notification from an administrator.
func (s *InboxService) SendSystem(admin auth.Identity, req models.SystemNotificationRequest) error {
	if !admin.IsAdmin() {
		return apperr.NewForbidden("Admin role required")
	}
	s.notifier.Emit(notify.Event{
		Actor:   admin.UserID,
		Target:  req.UserID,
		Type:    models.NotificationSystem,
		Title:   req.Title,
		Message: req.Message,
		Data: models.NotificationData{System: &models.SystemPayload{
			Link:     req.Link,
			Severity: req.Severity,
		}},
	})
	s.log.Info("system notification queued", "admin_id", admin.UserID, "user_id", req.UserID)
	return nil
}
