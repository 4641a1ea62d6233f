package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"

	domain "github.com/greengate/backoffice/internal/domain"
	pfirestore "github.com/greengate/backoffice/internal/platform/firestore"
	"github.com/greengate/backoffice/internal/repositories"
)

const preOrdersCollection = "preOrders"

// PreOrderRepository implements repositories.PreOrderRepository backed by Firestore.
type PreOrderRepository struct {
	provider  *pfirestore.Provider
	preOrders *pfirestore.BaseRepository[domain.PreOrder]
}

// NewPreOrderRepository constructs a Firestore-backed pre-order repository.
func NewPreOrderRepository(provider *pfirestore.Provider) (*PreOrderRepository, error) {
	if provider == nil {
		return nil, errors.New("preorder repository requires firestore provider")
	}
	return &PreOrderRepository{
		provider:  provider,
		preOrders: pfirestore.NewBaseRepository[domain.PreOrder](provider, preOrdersCollection),
	}, nil
}

// Insert creates the pre-order document, failing on duplicate ids.
func (r *PreOrderRepository) Insert(ctx context.Context, preOrder domain.PreOrder) error {
	if strings.TrimSpace(preOrder.ID) == "" {
		return errors.New("preorder insert: id is required")
	}
	_, err := r.preOrders.Create(ctx, preOrder.ID, preOrder)
	return err
}

// Update overwrites the pre-order document.
func (r *PreOrderRepository) Update(ctx context.Context, preOrder domain.PreOrder) error {
	if strings.TrimSpace(preOrder.ID) == "" {
		return errors.New("preorder update: id is required")
	}
	_, err := r.preOrders.Set(ctx, preOrder.ID, preOrder)
	return err
}

// FindByID fetches a pre-order by document id.
func (r *PreOrderRepository) FindByID(ctx context.Context, preOrderID string) (domain.PreOrder, error) {
	doc, err := r.preOrders.Get(ctx, preOrderID)
	if err != nil {
		return domain.PreOrder{}, err
	}
	preOrder := doc.Data
	preOrder.ID = doc.ID
	return preOrder, nil
}

// List returns pre-orders matching the filter, newest first.
func (r *PreOrderRepository) List(ctx context.Context, filter repositories.PreOrderListFilter) (domain.Page[domain.PreOrder], error) {
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	docs, err := r.preOrders.Query(ctx, func(query firestore.Query) firestore.Query {
		if storeID := strings.TrimSpace(filter.StoreID); storeID != "" {
			query = query.Where("storeId", "==", storeID)
		}
		if status := strings.TrimSpace(filter.Status); status != "" {
			query = query.Where("status", "==", status)
		}
		if filter.Confirmed != nil {
			query = query.Where("confirmed", "==", *filter.Confirmed)
		}
		query = query.OrderBy("createdAt", firestore.Desc)
		if offset := filter.Offset(); offset > 0 {
			query = query.Offset(offset)
		}
		// Fetch one extra row to detect whether another page exists.
		return query.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.Page[domain.PreOrder]{}, err
	}

	page := domain.Page[domain.PreOrder]{Items: make([]domain.PreOrder, 0, len(docs))}
	for i, doc := range docs {
		if i == pageSize {
			next := filter.Page + 1
			if filter.Page <= 0 {
				next = 2
			}
			page.NextPage = &next
			break
		}
		preOrder := doc.Data
		preOrder.ID = doc.ID
		page.Items = append(page.Items, preOrder)
	}
	return page, nil
}
