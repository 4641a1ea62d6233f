package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/greengate/backoffice/internal/domain"
	"github.com/greengate/backoffice/internal/repositories"
)

var (
	// ErrNotificationInvalidInput signals the caller provided invalid data.
	ErrNotificationInvalidInput = errors.New("notification: invalid input")
	// ErrNotificationNotFound indicates the notification could not be located.
	ErrNotificationNotFound = errors.New("notification: not found")
)

// NotificationServiceDeps bundles collaborators required to construct the notification service.
type NotificationServiceDeps struct {
	Notifications repositories.NotificationRepository
	Clock         func() time.Time
	IDGenerator   func() string
}

type notificationService struct {
	notifications repositories.NotificationRepository
	clock         func() time.Time
	newID         func() string
}

// NewNotificationService wires dependencies into a concrete NotificationService implementation.
func NewNotificationService(deps NotificationServiceDeps) (NotificationService, error) {
	if deps.Notifications == nil {
		return nil, errors.New("notification service: repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}

	return &notificationService{
		notifications: deps.Notifications,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: idGen,
	}, nil
}

func (s *notificationService) Create(ctx context.Context, cmd CreateNotificationCommand) (domain.Notification, error) {
	recipientID := strings.TrimSpace(cmd.RecipientID)
	if recipientID == "" {
		return domain.Notification{}, fmt.Errorf("%w: recipient is required", ErrNotificationInvalidInput)
	}
	title := strings.TrimSpace(cmd.Title)
	if title == "" {
		return domain.Notification{}, fmt.Errorf("%w: title is required", ErrNotificationInvalidInput)
	}

	notification := domain.Notification{
		ID:          "ntf_" + s.newID(),
		RecipientID: recipientID,
		Title:       title,
		Body:        strings.TrimSpace(cmd.Body),
		Read:        false,
		CreatedAt:   s.clock(),
	}

	if err := s.notifications.Insert(ctx, notification); err != nil {
		return domain.Notification{}, s.mapRepositoryError(err)
	}
	return notification, nil
}

func (s *notificationService) List(ctx context.Context, filter repositories.NotificationListFilter) (domain.Page[domain.Notification], error) {
	if strings.TrimSpace(filter.RecipientID) == "" {
		return domain.Page[domain.Notification]{}, fmt.Errorf("%w: recipient is required", ErrNotificationInvalidInput)
	}
	page, err := s.notifications.List(ctx, filter)
	if err != nil {
		return domain.Page[domain.Notification]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

// MarkRead is idempotent: marking an already-read notification keeps its
// original readAt timestamp.
func (s *notificationService) MarkRead(ctx context.Context, notificationID string) (domain.Notification, error) {
	notificationID = strings.TrimSpace(notificationID)
	if notificationID == "" {
		return domain.Notification{}, fmt.Errorf("%w: notification id is required", ErrNotificationInvalidInput)
	}

	current, err := s.notifications.FindByID(ctx, notificationID)
	if err != nil {
		return domain.Notification{}, s.mapRepositoryError(err)
	}
	if current.Read {
		return current, nil
	}

	updated, err := s.notifications.MarkRead(ctx, notificationID, s.clock())
	if err != nil {
		return domain.Notification{}, s.mapRepositoryError(err)
	}
	return updated, nil
}

func (s *notificationService) Delete(ctx context.Context, notificationID string) error {
	notificationID = strings.TrimSpace(notificationID)
	if notificationID == "" {
		return fmt.Errorf("%w: notification id is required", ErrNotificationInvalidInput)
	}
	if err := s.notifications.Delete(ctx, notificationID); err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

func (s *notificationService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %v", ErrNotificationNotFound, err)
	}
	return err
}
