package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domain "github.com/greengate/backoffice/internal/domain"
	"github.com/greengate/backoffice/internal/repositories"
)

type stubNotificationRepository struct {
	mu         sync.Mutex
	insertFn   func(context.Context, domain.Notification) error
	findFn     func(context.Context, string) (domain.Notification, error)
	listFn     func(context.Context, repositories.NotificationListFilter) (domain.Page[domain.Notification], error)
	markReadFn func(context.Context, string, time.Time) (domain.Notification, error)
	deleteFn   func(context.Context, string) error
	markCalls  []string
}

func (s *stubNotificationRepository) Insert(ctx context.Context, notification domain.Notification) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, notification)
	}
	return nil
}

func (s *stubNotificationRepository) FindByID(ctx context.Context, notificationID string) (domain.Notification, error) {
	if s.findFn != nil {
		return s.findFn(ctx, notificationID)
	}
	return domain.Notification{}, &stubRepoError{notFound: true}
}

func (s *stubNotificationRepository) List(ctx context.Context, filter repositories.NotificationListFilter) (domain.Page[domain.Notification], error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return domain.Page[domain.Notification]{}, nil
}

func (s *stubNotificationRepository) MarkRead(ctx context.Context, notificationID string, readAt time.Time) (domain.Notification, error) {
	s.mu.Lock()
	s.markCalls = append(s.markCalls, notificationID)
	s.mu.Unlock()
	if s.markReadFn != nil {
		return s.markReadFn(ctx, notificationID, readAt)
	}
	return domain.Notification{ID: notificationID, Read: true, ReadAt: &readAt}, nil
}

func (s *stubNotificationRepository) Delete(ctx context.Context, notificationID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, notificationID)
	}
	return nil
}

func TestNotificationServiceCreate(t *testing.T) {
	repo := &stubNotificationRepository{}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	svc, err := NewNotificationService(NotificationServiceDeps{
		Notifications: repo,
		Clock:         func() time.Time { return now },
		IDGenerator:   func() string { return "TEST" },
	})
	if err != nil {
		t.Fatalf("new notification service: %v", err)
	}

	notification, err := svc.Create(context.Background(), CreateNotificationCommand{
		RecipientID: "user-1",
		Title:       "Pre-order confirmed",
		Body:        "PO-00042 was converted to an order.",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if notification.ID != "ntf_TEST" {
		t.Fatalf("expected id ntf_TEST, got %s", notification.ID)
	}
	if notification.Read {
		t.Fatalf("new notifications must be unread")
	}
	if !notification.CreatedAt.Equal(now) {
		t.Fatalf("expected createdAt %v, got %v", now, notification.CreatedAt)
	}
}

func TestNotificationServiceCreateValidation(t *testing.T) {
	repo := &stubNotificationRepository{}
	svc, err := NewNotificationService(NotificationServiceDeps{Notifications: repo})
	if err != nil {
		t.Fatalf("new notification service: %v", err)
	}

	if _, err := svc.Create(context.Background(), CreateNotificationCommand{Title: "hi"}); !errors.Is(err, ErrNotificationInvalidInput) {
		t.Fatalf("expected invalid input for missing recipient, got %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateNotificationCommand{RecipientID: "user-1"}); !errors.Is(err, ErrNotificationInvalidInput) {
		t.Fatalf("expected invalid input for missing title, got %v", err)
	}
}

func TestNotificationServiceListRequiresRecipient(t *testing.T) {
	repo := &stubNotificationRepository{}
	svc, err := NewNotificationService(NotificationServiceDeps{Notifications: repo})
	if err != nil {
		t.Fatalf("new notification service: %v", err)
	}

	if _, err := svc.List(context.Background(), repositories.NotificationListFilter{}); !errors.Is(err, ErrNotificationInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestNotificationServiceMarkReadIdempotent(t *testing.T) {
	readAt := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	repo := &stubNotificationRepository{}
	repo.findFn = func(context.Context, string) (domain.Notification, error) {
		return domain.Notification{ID: "ntf_1", Read: true, ReadAt: &readAt}, nil
	}

	svc, err := NewNotificationService(NotificationServiceDeps{Notifications: repo})
	if err != nil {
		t.Fatalf("new notification service: %v", err)
	}

	notification, err := svc.MarkRead(context.Background(), "ntf_1")
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if notification.ReadAt == nil || !notification.ReadAt.Equal(readAt) {
		t.Fatalf("expected original readAt preserved, got %v", notification.ReadAt)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.markCalls) != 0 {
		t.Fatalf("already-read notification must not be rewritten")
	}
}

func TestNotificationServiceMarkReadWritesTimestamp(t *testing.T) {
	repo := &stubNotificationRepository{}
	repo.findFn = func(context.Context, string) (domain.Notification, error) {
		return domain.Notification{ID: "ntf_1", Read: false}, nil
	}

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewNotificationService(NotificationServiceDeps{
		Notifications: repo,
		Clock:         func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new notification service: %v", err)
	}

	notification, err := svc.MarkRead(context.Background(), "ntf_1")
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if !notification.Read {
		t.Fatalf("expected read notification")
	}
	if notification.ReadAt == nil || !notification.ReadAt.Equal(now) {
		t.Fatalf("expected readAt %v, got %v", now, notification.ReadAt)
	}
}

func TestNotificationServiceMarkReadNotFound(t *testing.T) {
	repo := &stubNotificationRepository{}
	svc, err := NewNotificationService(NotificationServiceDeps{Notifications: repo})
	if err != nil {
		t.Fatalf("new notification service: %v", err)
	}

	if _, err := svc.MarkRead(context.Background(), "ntf_missing"); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}
}
