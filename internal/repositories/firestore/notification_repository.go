package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/greengate/backoffice/internal/domain"
	pfirestore "github.com/greengate/backoffice/internal/platform/firestore"
	"github.com/greengate/backoffice/internal/repositories"
)

const notificationsCollection = "notifications"

// NotificationRepository implements repositories.NotificationRepository backed by Firestore.
type NotificationRepository struct {
	notifications *pfirestore.BaseRepository[domain.Notification]
}

// NewNotificationRepository constructs a Firestore-backed notification repository.
func NewNotificationRepository(provider *pfirestore.Provider) (*NotificationRepository, error) {
	if provider == nil {
		return nil, errors.New("notification repository requires firestore provider")
	}
	return &NotificationRepository{
		notifications: pfirestore.NewBaseRepository[domain.Notification](provider, notificationsCollection),
	}, nil
}

// Insert creates the notification document.
func (r *NotificationRepository) Insert(ctx context.Context, notification domain.Notification) error {
	if strings.TrimSpace(notification.ID) == "" {
		return errors.New("notification insert: id is required")
	}
	_, err := r.notifications.Create(ctx, notification.ID, notification)
	return err
}

// FindByID fetches a notification by document id.
func (r *NotificationRepository) FindByID(ctx context.Context, notificationID string) (domain.Notification, error) {
	doc, err := r.notifications.Get(ctx, notificationID)
	if err != nil {
		return domain.Notification{}, err
	}
	notification := doc.Data
	notification.ID = doc.ID
	return notification, nil
}

// List returns notifications for the recipient, newest first.
func (r *NotificationRepository) List(ctx context.Context, filter repositories.NotificationListFilter) (domain.Page[domain.Notification], error) {
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	docs, err := r.notifications.Query(ctx, func(query firestore.Query) firestore.Query {
		if recipientID := strings.TrimSpace(filter.RecipientID); recipientID != "" {
			query = query.Where("recipientId", "==", recipientID)
		}
		if filter.UnreadOnly {
			query = query.Where("read", "==", false)
		}
		query = query.OrderBy("createdAt", firestore.Desc)
		if offset := filter.Offset(); offset > 0 {
			query = query.Offset(offset)
		}
		return query.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.Page[domain.Notification]{}, err
	}

	page := domain.Page[domain.Notification]{Items: make([]domain.Notification, 0, len(docs))}
	for i, doc := range docs {
		if i == pageSize {
			next := filter.Page + 1
			if filter.Page <= 0 {
				next = 2
			}
			page.NextPage = &next
			break
		}
		notification := doc.Data
		notification.ID = doc.ID
		page.Items = append(page.Items, notification)
	}
	return page, nil
}

// MarkRead flags the notification as read and returns the updated record.
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID string, readAt time.Time) (domain.Notification, error) {
	_, err := r.notifications.Update(ctx, notificationID, []firestore.Update{
		{Path: "read", Value: true},
		{Path: "readAt", Value: readAt.UTC()},
	})
	if err != nil {
		return domain.Notification{}, err
	}
	return r.FindByID(ctx, notificationID)
}

// Delete removes the notification document.
func (r *NotificationRepository) Delete(ctx context.Context, notificationID string) error {
	return r.notifications.Delete(ctx, notificationID)
}
