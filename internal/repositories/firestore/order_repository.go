package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/greengate/backoffice/internal/domain"
	pfirestore "github.com/greengate/backoffice/internal/platform/firestore"
	"github.com/greengate/backoffice/internal/repositories"
)

const (
	ordersCollection   = "orders"
	productsCollection = "products"
)

// OrderRepository implements repositories.OrderRepository backed by Firestore.
//
// Insert runs one transaction covering the stock check and decrement for every
// line item, the order creation, and - when converting a pre-order - the
// conditional confirmation write keyed on confirmed == false. Losing a
// concurrent confirmation race therefore surfaces as ErrAlreadyConfirmed and
// never produces a second order document.
type OrderRepository struct {
	provider *pfirestore.Provider
	orders   *pfirestore.BaseRepository[domain.Order]
	products *pfirestore.BaseRepository[domain.Product]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{
		provider: provider,
		orders:   pfirestore.NewBaseRepository[domain.Order](provider, ordersCollection),
		products: pfirestore.NewBaseRepository[domain.Product](provider, productsCollection),
	}, nil
}

// Insert creates the order after verifying stock, decrementing it in the same
// transaction. See the type comment for conversion semantics.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order, opts repositories.OrderInsertOptions) (domain.Order, error) {
	if r == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	if strings.TrimSpace(order.ID) == "" {
		return domain.Order{}, errors.New("order insert: id is required")
	}

	now := time.Now().UTC()
	link := opts.Conversion

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// All transaction reads must complete before the first write.
		var preOrderRef *firestore.DocumentRef
		var preOrder domain.PreOrder
		if link != nil {
			ref, err := r.preOrderRef(ctx, link.PreOrderID)
			if err != nil {
				return err
			}
			snapshot, err := tx.Get(ref)
			if err != nil {
				return err
			}
			if err := snapshot.DataTo(&preOrder); err != nil {
				return fmt.Errorf("decode pre-order %s: %w", link.PreOrderID, err)
			}
			if preOrder.Confirmed {
				return repositories.ErrAlreadyConfirmed
			}
			preOrderRef = ref
		}

		type stockUpdate struct {
			ref     *firestore.DocumentRef
			product domain.Product
		}

		requested := mergeQuantities(order.Items)
		updates := make([]stockUpdate, 0, len(requested.order))
		var shortages []repositories.StockShortage

		for _, productID := range requested.order {
			quantity := requested.quantities[productID]
			ref, err := r.products.DocumentRef(ctx, productID)
			if err != nil {
				return err
			}
			snapshot, err := tx.Get(ref)
			if status.Code(err) == codes.NotFound {
				shortages = append(shortages, repositories.StockShortage{
					ProductID: productID,
					Requested: quantity,
					Available: 0,
				})
				continue
			}
			if err != nil {
				return err
			}
			var product domain.Product
			if err := snapshot.DataTo(&product); err != nil {
				return fmt.Errorf("decode product %s: %w", productID, err)
			}
			if product.Stock < quantity {
				shortages = append(shortages, repositories.StockShortage{
					ProductID: productID,
					Requested: quantity,
					Available: product.Stock,
				})
				continue
			}
			product.Stock -= quantity
			updates = append(updates, stockUpdate{ref: ref, product: product})
		}

		if len(shortages) > 0 {
			return &repositories.StockError{Shortages: shortages}
		}

		for _, update := range updates {
			if err := tx.Set(update.ref, update.product); err != nil {
				return err
			}
		}

		orderRef, err := r.orders.DocumentRef(ctx, order.ID)
		if err != nil {
			return err
		}
		if err := tx.Create(orderRef, order); err != nil {
			return err
		}

		if preOrderRef != nil {
			return tx.Update(preOrderRef, []firestore.Update{
				{Path: "confirmed", Value: true},
				{Path: "orderId", Value: order.ID},
				{Path: "palletData", Value: link.PalletData},
				{Path: "plateCount", Value: link.PlateCount},
				{Path: "updatedAt", Value: now},
			})
		}
		return nil
	})
	if err != nil {
		var stockErr *repositories.StockError
		if errors.As(err, &stockErr) {
			return domain.Order{}, stockErr
		}
		if errors.Is(err, repositories.ErrAlreadyConfirmed) {
			return domain.Order{}, repositories.ErrAlreadyConfirmed
		}
		return domain.Order{}, pfirestore.WrapError("orders.insert", err)
	}
	return order, nil
}

// FindByID fetches an order by document id.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	doc, err := r.orders.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	order := doc.Data
	order.ID = doc.ID
	return order, nil
}

// List returns orders matching the filter, newest first.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.Page[domain.Order], error) {
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	docs, err := r.orders.Query(ctx, func(query firestore.Query) firestore.Query {
		if storeID := strings.TrimSpace(filter.StoreID); storeID != "" {
			query = query.Where("storeId", "==", storeID)
		}
		if orderType := strings.TrimSpace(filter.OrderType); orderType != "" {
			query = query.Where("orderType", "==", orderType)
		}
		query = query.OrderBy("createdAt", firestore.Desc)
		if offset := filter.Offset(); offset > 0 {
			query = query.Offset(offset)
		}
		return query.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.Page[domain.Order]{}, err
	}

	page := domain.Page[domain.Order]{Items: make([]domain.Order, 0, len(docs))}
	for i, doc := range docs {
		if i == pageSize {
			next := filter.Page + 1
			if filter.Page <= 0 {
				next = 2
			}
			page.NextPage = &next
			break
		}
		order := doc.Data
		order.ID = doc.ID
		page.Items = append(page.Items, order)
	}
	return page, nil
}

func (r *OrderRepository) preOrderRef(ctx context.Context, preOrderID string) (*firestore.DocumentRef, error) {
	if strings.TrimSpace(preOrderID) == "" {
		return nil, errors.New("order insert: pre-order id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(preOrdersCollection).Doc(preOrderID), nil
}

type mergedQuantities struct {
	order      []string
	quantities map[string]int
}

// mergeQuantities sums requested quantities per product id, preserving first
// occurrence order for deterministic shortage reporting.
func mergeQuantities(items []domain.LineItem) mergedQuantities {
	merged := mergedQuantities{quantities: make(map[string]int, len(items))}
	for _, item := range items {
		productID := item.Product()
		if productID == "" || item.Quantity <= 0 {
			continue
		}
		if _, seen := merged.quantities[productID]; !seen {
			merged.order = append(merged.order, productID)
		}
		merged.quantities[productID] += item.Quantity
	}
	return merged
}
