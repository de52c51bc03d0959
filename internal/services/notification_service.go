package services

import (
	"errors"
	"fmt"
	"log"

	apperrors "squad-management-api/internal/errors"
	"squad-management-api/internal/models"
	"squad-management-api/internal/repository"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = apperrors.NotFound("notification not found")

// NotificationService is the notification sink. Workflow services call
// Notify after their transaction commits; delivery is best-effort and a
// failure never propagates to the triggering operation.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(notificationRepo repository.NotificationRepository) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
	}
}

// NotificationInput carries a notification payload with optional
// back-references for deep-linking.
type NotificationInput struct {
	UserID        uint64
	Type          models.NotificationType
	Title         string
	Message       string
	SquadID       *uint64
	PositionID    *uint64
	ApplicationID *uint64
}

// Notify persists a notification, logging instead of failing when the sink
// is unavailable.
func (s *NotificationService) Notify(input NotificationInput) {
	notification := &models.Notification{
		UserID:        input.UserID,
		Type:          input.Type,
		Title:         input.Title,
		Message:       input.Message,
		SquadID:       input.SquadID,
		PositionID:    input.PositionID,
		ApplicationID: input.ApplicationID,
	}

	if err := s.notificationRepo.Create(notification); err != nil {
		log.Printf("failed to emit %s notification for user %d: %v", input.Type, input.UserID, err)
	}
}

// ListNotifications returns a page of the user's notifications.
func (s *NotificationService) ListNotifications(userID uint64, page, pageSize int) ([]models.Notification, int64, error) {
	notifications, total, err := s.notificationRepo.ListByUser(userID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

// MarkRead flags a notification as read. The read flag is the only mutable
// field of a notification.
func (s *NotificationService) MarkRead(id, userID uint64) error {
	if err := s.notificationRepo.MarkRead(id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// CountUnread counts the user's unread notifications.
func (s *NotificationService) CountUnread(userID uint64) (int64, error) {
	count, err := s.notificationRepo.CountUnread(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}
