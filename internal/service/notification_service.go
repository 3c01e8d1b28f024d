package service

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/uslugi_go_server/internal/model"
	"github.com/qs3c/uslugi_go_server/internal/model/dto"
	"github.com/qs3c/uslugi_go_server/internal/pkg/pubsub"
	"github.com/qs3c/uslugi_go_server/internal/repository"
)

// NotificationService persists notifications and publishes them for live
// delivery. The publisher is optional; without one notifications are only
// stored.
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	publisher        *pubsub.Publisher
}

func NewNotificationService(
	notificationRepo *repository.NotificationRepository,
	publisher *pubsub.Publisher,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		publisher:        publisher,
	}
}

// Notify stores a notification and publishes it best-effort. A publish
// failure is logged, not returned: the stored record is the source of truth.
func (s *NotificationService) Notify(userID int64, message string) error {
	notification := &model.Notification{
		UserID:  userID,
		Message: message,
	}
	if err := s.notificationRepo.Create(notification); err != nil {
		return err
	}

	if s.publisher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		event := &pubsub.Event{
			Type:           pubsub.EventPaymentConfirmed,
			UserID:         userID,
			NotificationID: notification.ID,
			Message:        message,
			CreatedAt:      notification.CreatedAt.Format(time.RFC3339),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Printf("notification: publish failed for user %d: %v", userID, err)
		}
	}

	return nil
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(userID int64) ([]*dto.NotificationInfo, error) {
	notifications, err := s.notificationRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	infos := make([]*dto.NotificationInfo, 0, len(notifications))
	for i := range notifications {
		n := &notifications[i]
		infos = append(infos, &dto.NotificationInfo{
			ID:        n.ID,
			Message:   n.Message,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		})
	}
	return infos, nil
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationService) MarkRead(userID, notificationID int64) error {
	ok, err := s.notificationRepo.MarkRead(notificationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}
