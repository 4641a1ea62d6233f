package repositories

import (
	"context"
	"time"

	domain "github.com/greengate/backoffice/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// Pagination bundles the size/offset paging values shared by list filters.
type Pagination struct {
	Page     int
	PageSize int
}

// Offset converts the page number into a query offset.
func (p Pagination) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// PreOrderListFilter narrows pre-order list queries.
type PreOrderListFilter struct {
	StoreID   string
	Status    string
	Confirmed *bool
	Pagination
}

// OrderListFilter narrows order list queries.
type OrderListFilter struct {
	StoreID   string
	OrderType string
	Pagination
}

// ExpenseListFilter narrows expense list queries.
type ExpenseListFilter struct {
	StoreID  string
	Category string
	From     *time.Time
	To       *time.Time
	Pagination
}

// NotificationListFilter narrows notification list queries.
type NotificationListFilter struct {
	RecipientID string
	UnreadOnly  bool
	Pagination
}

// TemplateListFilter narrows price-list template queries.
type TemplateListFilter struct {
	StoreID string
	Pagination
}

// CounterRepository issues monotonically increasing sequence values. The
// increment-and-read must be a single atomic operation against the store.
type CounterRepository interface {
	Next(ctx context.Context, counterID string) (int64, error)
}

// ConversionLink ties an order insert to the pre-order it converts. When
// present, the insert must atomically verify the pre-order is unconfirmed,
// record the confirmation fields, and create the order in one transaction.
type ConversionLink struct {
	PreOrderID string
	PalletData domain.PalletData
	PlateCount int
}

// OrderInsertOptions customises order creation.
type OrderInsertOptions struct {
	Conversion *ConversionLink
}

// OrderRepository persists committed orders. Insert verifies and decrements
// product stock for every line item; shortage is reported as *StockError.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order, opts OrderInsertOptions) (domain.Order, error)
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.Page[domain.Order], error)
}

// PreOrderRepository persists pre-orders.
type PreOrderRepository interface {
	Insert(ctx context.Context, preOrder domain.PreOrder) error
	Update(ctx context.Context, preOrder domain.PreOrder) error
	FindByID(ctx context.Context, preOrderID string) (domain.PreOrder, error)
	List(ctx context.Context, filter PreOrderListFilter) (domain.Page[domain.PreOrder], error)
}

// ProductRepository reads product capacity and stock data.
type ProductRepository interface {
	GetByIDs(ctx context.Context, productIDs []string) (map[string]domain.Product, error)
}

// ExpenseRepository persists expense records.
type ExpenseRepository interface {
	Insert(ctx context.Context, expense domain.Expense) error
	Update(ctx context.Context, expense domain.Expense) error
	Delete(ctx context.Context, expenseID string) error
	FindByID(ctx context.Context, expenseID string) (domain.Expense, error)
	List(ctx context.Context, filter ExpenseListFilter) (domain.Page[domain.Expense], error)
	ListInRange(ctx context.Context, storeID string, from, to *time.Time) ([]domain.Expense, error)
}

// NotificationRepository persists user notifications.
type NotificationRepository interface {
	Insert(ctx context.Context, notification domain.Notification) error
	FindByID(ctx context.Context, notificationID string) (domain.Notification, error)
	List(ctx context.Context, filter NotificationListFilter) (domain.Page[domain.Notification], error)
	MarkRead(ctx context.Context, notificationID string, readAt time.Time) (domain.Notification, error)
	Delete(ctx context.Context, notificationID string) error
}

// TemplateRepository persists price-list templates.
type TemplateRepository interface {
	Insert(ctx context.Context, template domain.PriceListTemplate) error
	Update(ctx context.Context, template domain.PriceListTemplate) error
	Delete(ctx context.Context, templateID string) error
	FindByID(ctx context.Context, templateID string) (domain.PriceListTemplate, error)
	List(ctx context.Context, filter TemplateListFilter) (domain.Page[domain.PriceListTemplate], error)
}

// Registry exposes every repository implementation plus lifecycle management.
type Registry interface {
	PreOrders() PreOrderRepository
	Orders() OrderRepository
	Products() ProductRepository
	Counters() CounterRepository
	Expenses() ExpenseRepository
	Notifications() NotificationRepository
	Templates() TemplateRepository
	Close(ctx context.Context) error
}
