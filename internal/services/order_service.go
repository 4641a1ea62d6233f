package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/greengate/backoffice/internal/domain"
	"github.com/greengate/backoffice/internal/repositories"
)

const orderIDPrefix = "ord_"

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderConflict indicates duplicate creation or a concurrent conflicting update.
	ErrOrderConflict = errors.New("order: conflict")
	// ErrOrderInsufficientStock indicates on-hand inventory cannot cover the requested quantities.
	ErrOrderInsufficientStock = errors.New("order: insufficient stock")
)

// InsufficientStockError carries the item-level shortage detail alongside the
// ErrOrderInsufficientStock sentinel.
type InsufficientStockError struct {
	Shortages []repositories.StockShortage
}

func (e *InsufficientStockError) Error() string {
	return (&repositories.StockError{Shortages: e.Shortages}).Error()
}

// Unwrap ties the detail error to the sentinel for errors.Is matching.
func (e *InsufficientStockError) Unwrap() error {
	return ErrOrderInsufficientStock
}

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders      repositories.OrderRepository
	Counters    CounterService
	Clock       func() time.Time
	IDGenerator func() string
}

type orderService struct {
	orders   repositories.OrderRepository
	counters CounterService
	clock    func() time.Time
	newID    func() string
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("order service: counter service is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	return &orderService{
		orders:   deps.Orders,
		counters: deps.Counters,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: idGen,
	}, nil
}

// Create commits an order. A non-nil error is the only failure signal; on
// success the returned order always carries its generated id.
func (s *orderService) Create(ctx context.Context, cmd CreateOrderCommand) (domain.Order, error) {
	storeID := strings.TrimSpace(cmd.StoreID)
	if storeID == "" {
		return domain.Order{}, fmt.Errorf("%w: store id is required", ErrOrderInvalidInput)
	}
	if len(cmd.Items) == 0 {
		return domain.Order{}, fmt.Errorf("%w: at least one item is required", ErrOrderInvalidInput)
	}
	if cmd.BillingAddress == nil {
		return domain.Order{}, fmt.Errorf("%w: billing address is required", ErrOrderInvalidInput)
	}
	if cmd.ShippingAddress == nil {
		return domain.Order{}, fmt.Errorf("%w: shipping address is required", ErrOrderInvalidInput)
	}
	for i, item := range cmd.Items {
		if item.Product() == "" {
			return domain.Order{}, fmt.Errorf("%w: item %d has no product reference", ErrOrderInvalidInput, i)
		}
		if item.Quantity <= 0 {
			return domain.Order{}, fmt.Errorf("%w: item %d quantity must be positive", ErrOrderInvalidInput, i)
		}
	}

	now := s.clock()

	orderType := strings.TrimSpace(cmd.OrderType)
	if orderType == "" {
		orderType = domain.OrderTypeStandard
	}

	placedAt := cmd.PlacedAt.UTC()
	if cmd.PlacedAt.IsZero() {
		placedAt = now
	}

	number, err := s.counters.NextOrderNumber(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	order := domain.Order{
		ID:             orderIDPrefix + s.newID(),
		OrderNumber:    number,
		StoreID:        storeID,
		Items:          cloneItems(cmd.Items),
		BillingAddress: cloneAddress(cmd.BillingAddress),
		ShippingAddr:   cloneAddress(cmd.ShippingAddress),
		Subtotal:       cmd.Subtotal,
		Total:          cmd.Total,
		Status:         domain.PreOrderStatusProcessing,
		OrderType:      orderType,
		PreOrderID:     strings.TrimSpace(cmd.PreOrderID),
		PlacedAt:       placedAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var opts repositories.OrderInsertOptions
	if order.PreOrderID != "" && cmd.PalletData != nil {
		palletData := *cmd.PalletData
		order.PalletData = &palletData
		opts.Conversion = &repositories.ConversionLink{
			PreOrderID: order.PreOrderID,
			PalletData: palletData,
			PlateCount: palletData.PalletCount,
		}
	}

	created, err := s.orders.Insert(ctx, order, opts)
	if err != nil {
		return domain.Order{}, s.mapRepositoryError(err)
	}
	return created, nil
}

func (s *orderService) Get(ctx context.Context, orderID string) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, s.mapRepositoryError(err)
	}
	return order, nil
}

func (s *orderService) List(ctx context.Context, filter repositories.OrderListFilter) (domain.Page[domain.Order], error) {
	page, err := s.orders.List(ctx, filter)
	if err != nil {
		return domain.Page[domain.Order]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var stockErr *repositories.StockError
	if errors.As(err, &stockErr) {
		return &InsufficientStockError{Shortages: stockErr.Shortages}
	}
	if errors.Is(err, repositories.ErrAlreadyConfirmed) {
		return err
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		}
	}

	return err
}

func cloneItems(items []domain.LineItem) []domain.LineItem {
	if items == nil {
		return nil
	}
	cloned := make([]domain.LineItem, len(items))
	copy(cloned, items)
	return cloned
}

func cloneAddress(addr *domain.Address) *domain.Address {
	if addr == nil {
		return nil
	}
	cloned := *addr
	return &cloned
}
