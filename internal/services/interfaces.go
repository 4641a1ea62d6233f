package services

import (
	"context"
	"time"

	domain "github.com/greengate/backoffice/internal/domain"
	"github.com/greengate/backoffice/internal/repositories"
)

// CounterService issues formatted sequence numbers backed by atomic counters.
type CounterService interface {
	NextPreOrderNumber(ctx context.Context) (string, error)
	NextOrderNumber(ctx context.Context) (string, error)
}

// CreateOrderCommand describes an order to commit. Both the direct order
// endpoint and the pre-order conversion step build one of these and call
// OrderService.Create; there is no second creation path.
type CreateOrderCommand struct {
	StoreID         string
	Items           []domain.LineItem
	BillingAddress  *domain.Address
	ShippingAddress *domain.Address
	Subtotal        float64
	Total           float64
	OrderType       string
	// PlacedAt preserves the original pre-order creation timestamp on
	// conversions; zero means "now".
	PlacedAt   time.Time
	PreOrderID string
	PalletData *domain.PalletData
}

// OrderService owns committed order creation and reads.
type OrderService interface {
	Create(ctx context.Context, cmd CreateOrderCommand) (domain.Order, error)
	Get(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context, filter repositories.OrderListFilter) (domain.Page[domain.Order], error)
}

// CreatePreOrderCommand describes a new pre-order submission.
type CreatePreOrderCommand struct {
	Store           domain.StoreRef
	Items           []domain.LineItem
	BillingAddress  *domain.Address
	ShippingAddress *domain.Address
	Subtotal        float64
	Total           float64
	Status          string
	OrderType       string
	PriceListRef    string
}

// UpdatePreOrderCommand mutates an unconfirmed pre-order.
type UpdatePreOrderCommand struct {
	PreOrderID      string
	Items           []domain.LineItem
	BillingAddress  *domain.Address
	ShippingAddress *domain.Address
	Subtotal        *float64
	Total           *float64
	Status          string
}

// PalletInfo is the confirmation response summary.
type PalletInfo struct {
	TotalPallets int                                    `json:"totalPallets"`
	TotalBoxes   int                                    `json:"totalBoxes"`
	Breakdown    map[string]domain.PalletBreakdownEntry `json:"breakdown"`
}

// ConfirmResult bundles everything produced by a successful confirmation.
type ConfirmResult struct {
	Order      domain.Order
	PreOrder   domain.PreOrder
	PalletInfo PalletInfo
}

// PreOrderService owns the pre-order lifecycle including confirmation.
type PreOrderService interface {
	Create(ctx context.Context, cmd CreatePreOrderCommand) (domain.PreOrder, error)
	Update(ctx context.Context, cmd UpdatePreOrderCommand) (domain.PreOrder, error)
	Get(ctx context.Context, preOrderID string) (domain.PreOrder, error)
	List(ctx context.Context, filter repositories.PreOrderListFilter) (domain.Page[domain.PreOrder], error)
	Confirm(ctx context.Context, preOrderID string) (ConfirmResult, error)
}

// CreateExpenseCommand describes a new expense record.
type CreateExpenseCommand struct {
	Store      domain.StoreRef
	Category   string
	Amount     float64
	Note       string
	IncurredAt time.Time
}

// UpdateExpenseCommand mutates an expense record.
type UpdateExpenseCommand struct {
	ExpenseID  string
	Category   string
	Amount     *float64
	Note       *string
	IncurredAt *time.Time
}

// ExpenseCategorySummary is one row of the expense report.
type ExpenseCategorySummary struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Total    float64 `json:"total"`
}

// ExpenseSummary is the grouped expense report for a store and date range.
type ExpenseSummary struct {
	StoreID    string                   `json:"storeId,omitempty"`
	From       *time.Time               `json:"from,omitempty"`
	To         *time.Time               `json:"to,omitempty"`
	Count      int                      `json:"count"`
	GrandTotal float64                  `json:"grandTotal"`
	Categories []ExpenseCategorySummary `json:"categories"`
}

// ExpenseService owns expense tracking and reporting.
type ExpenseService interface {
	Create(ctx context.Context, cmd CreateExpenseCommand) (domain.Expense, error)
	Update(ctx context.Context, cmd UpdateExpenseCommand) (domain.Expense, error)
	Delete(ctx context.Context, expenseID string) error
	Get(ctx context.Context, expenseID string) (domain.Expense, error)
	List(ctx context.Context, filter repositories.ExpenseListFilter) (domain.Page[domain.Expense], error)
	Summary(ctx context.Context, storeID string, from, to *time.Time) (ExpenseSummary, error)
}

// CreateNotificationCommand describes a new user notification.
type CreateNotificationCommand struct {
	RecipientID string
	Title       string
	Body        string
}

// NotificationService owns user notifications.
type NotificationService interface {
	Create(ctx context.Context, cmd CreateNotificationCommand) (domain.Notification, error)
	List(ctx context.Context, filter repositories.NotificationListFilter) (domain.Page[domain.Notification], error)
	MarkRead(ctx context.Context, notificationID string) (domain.Notification, error)
	Delete(ctx context.Context, notificationID string) error
}

// MailMessage is the payload handed to the mail dispatch channel.
type MailMessage struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	HTMLBody  string `json:"htmlBody"`
}

// MailPublisher dispatches mail messages for asynchronous delivery. The
// returned id identifies the dispatched message.
type MailPublisher interface {
	PublishMail(ctx context.Context, message MailMessage) (string, error)
}

// CreateTemplateCommand describes a new price-list template.
type CreateTemplateCommand struct {
	Store domain.StoreRef
	Name  string
	Rows  []domain.PriceListRow
}

// UpdateTemplateCommand mutates a price-list template.
type UpdateTemplateCommand struct {
	TemplateID string
	Name       string
	Rows       []domain.PriceListRow
}

// DistributionResult reports the dispatch outcome for one recipient.
type DistributionResult struct {
	Recipient string `json:"recipient"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// TemplateService owns price-list templates and their distribution.
type TemplateService interface {
	Create(ctx context.Context, cmd CreateTemplateCommand) (domain.PriceListTemplate, error)
	Update(ctx context.Context, cmd UpdateTemplateCommand) (domain.PriceListTemplate, error)
	Delete(ctx context.Context, templateID string) error
	Get(ctx context.Context, templateID string) (domain.PriceListTemplate, error)
	List(ctx context.Context, filter repositories.TemplateListFilter) (domain.Page[domain.PriceListTemplate], error)
	Distribute(ctx context.Context, templateID string, recipients []string) ([]DistributionResult, error)
}
