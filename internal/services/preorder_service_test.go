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

type stubPreOrderRepository struct {
	mu       sync.Mutex
	insertFn func(context.Context, domain.PreOrder) error
	updateFn func(context.Context, domain.PreOrder) error
	findFn   func(context.Context, string) (domain.PreOrder, error)
	listFn   func(context.Context, repositories.PreOrderListFilter) (domain.Page[domain.PreOrder], error)
	inserted []domain.PreOrder
	updated  []domain.PreOrder
}

func (s *stubPreOrderRepository) Insert(ctx context.Context, preOrder domain.PreOrder) error {
	s.mu.Lock()
	s.inserted = append(s.inserted, preOrder)
	s.mu.Unlock()
	if s.insertFn != nil {
		return s.insertFn(ctx, preOrder)
	}
	return nil
}

func (s *stubPreOrderRepository) Update(ctx context.Context, preOrder domain.PreOrder) error {
	s.mu.Lock()
	s.updated = append(s.updated, preOrder)
	s.mu.Unlock()
	if s.updateFn != nil {
		return s.updateFn(ctx, preOrder)
	}
	return nil
}

func (s *stubPreOrderRepository) FindByID(ctx context.Context, preOrderID string) (domain.PreOrder, error) {
	if s.findFn != nil {
		return s.findFn(ctx, preOrderID)
	}
	return domain.PreOrder{}, &stubRepoError{notFound: true}
}

func (s *stubPreOrderRepository) List(ctx context.Context, filter repositories.PreOrderListFilter) (domain.Page[domain.PreOrder], error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return domain.Page[domain.PreOrder]{}, nil
}

type stubProductRepository struct {
	getFn func(context.Context, []string) (map[string]domain.Product, error)
}

func (s *stubProductRepository) GetByIDs(ctx context.Context, productIDs []string) (map[string]domain.Product, error) {
	if s.getFn != nil {
		return s.getFn(ctx, productIDs)
	}
	return map[string]domain.Product{}, nil
}

type stubOrderService struct {
	mu       sync.Mutex
	createFn func(context.Context, CreateOrderCommand) (domain.Order, error)
	commands []CreateOrderCommand
}

func (s *stubOrderService) Create(ctx context.Context, cmd CreateOrderCommand) (domain.Order, error) {
	s.mu.Lock()
	s.commands = append(s.commands, cmd)
	s.mu.Unlock()
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return domain.Order{ID: "ord_STUB"}, nil
}

func (s *stubOrderService) Get(ctx context.Context, orderID string) (domain.Order, error) {
	return domain.Order{}, nil
}

func (s *stubOrderService) List(ctx context.Context, filter repositories.OrderListFilter) (domain.Page[domain.Order], error) {
	return domain.Page[domain.Order]{}, nil
}

func unconfirmedPreOrder() domain.PreOrder {
	createdAt := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
	return domain.PreOrder{
		ID:             "po_1",
		PreOrderNumber: "PO-00001",
		StoreID:        "store-1",
		Items: []domain.LineItem{
			{ProductID: "prod-a", Quantity: 12, UnitPrice: 4, PricingType: domain.PricingTypeBox},
			{ProductID: "prod-b", Quantity: 5, UnitPrice: 2, PricingType: domain.PricingTypeBox},
		},
		BillingAddress:  &domain.Address{Line1: "1 Main St", City: "Springfield", Country: "US"},
		ShippingAddr:    &domain.Address{Line1: "1 Main St", City: "Springfield", Country: "US"},
		Subtotal:        58,
		Total:           63,
		Status:          domain.PreOrderStatusProcessing,
		Confirmed:       false,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
}

func newPreOrderServiceForTest(t *testing.T, preOrders *stubPreOrderRepository, products *stubProductRepository, orders *stubOrderService, now time.Time) PreOrderService {
	t.Helper()
	svc, err := NewPreOrderService(PreOrderServiceDeps{
		PreOrders:   preOrders,
		Products:    products,
		Orders:      orders,
		Counters:    fixedCounterService("PO-00002", "ORD-000001"),
		Clock:       func() time.Time { return now },
		IDGenerator: func() string { return "TEST" },
	})
	if err != nil {
		t.Fatalf("new preorder service: %v", err)
	}
	return svc
}

func TestPreOrderServiceCreateAllocatesNumberAndDefaults(t *testing.T) {
	preOrders := &stubPreOrderRepository{}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newPreOrderServiceForTest(t, preOrders, &stubProductRepository{}, &stubOrderService{}, now)

	preOrder, err := svc.Create(context.Background(), CreatePreOrderCommand{
		Store: domain.StoreRef{ID: "store-1"},
		Items: []domain.LineItem{
			{ProductID: "prod-a", Quantity: 3, UnitPrice: 4, PricingType: domain.PricingTypeBox},
		},
		BillingAddress:  &domain.Address{Line1: "1 Main St", City: "Springfield", Country: "US"},
		ShippingAddress: &domain.Address{Line1: "1 Main St", City: "Springfield", Country: "US"},
		Subtotal:        12,
		Total:           13,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if preOrder.ID != "po_TEST" {
		t.Fatalf("expected id po_TEST, got %s", preOrder.ID)
	}
	if preOrder.PreOrderNumber != "PO-00002" {
		t.Fatalf("expected number PO-00002, got %s", preOrder.PreOrderNumber)
	}
	if preOrder.Status != domain.PreOrderStatusProcessing {
		t.Fatalf("expected Processing status, got %s", preOrder.Status)
	}
	if preOrder.Confirmed {
		t.Fatalf("new pre-orders must be unconfirmed")
	}
}

func TestPreOrderServiceCreateAbortsWhenCounterFails(t *testing.T) {
	preOrders := &stubPreOrderRepository{}
	svc, err := NewPreOrderService(PreOrderServiceDeps{
		PreOrders: preOrders,
		Products:  &stubProductRepository{},
		Orders:    &stubOrderService{},
		Counters:  &staticCounterService{err: ErrCounterUnavailable},
	})
	if err != nil {
		t.Fatalf("new preorder service: %v", err)
	}

	_, err = svc.Create(context.Background(), CreatePreOrderCommand{
		Store: domain.StoreRef{ID: "store-1"},
		Items: []domain.LineItem{
			{ProductID: "prod-a", Quantity: 3},
		},
		BillingAddress:  &domain.Address{Line1: "1 Main St", City: "Springfield", Country: "US"},
		ShippingAddress: &domain.Address{Line1: "1 Main St", City: "Springfield", Country: "US"},
	})
	if !errors.Is(err, ErrCounterUnavailable) {
		t.Fatalf("expected counter error, got %v", err)
	}

	preOrders.mu.Lock()
	defer preOrders.mu.Unlock()
	if len(preOrders.inserted) != 0 {
		t.Fatalf("no pre-order may be created when number allocation fails")
	}
}

func TestPreOrderServiceUpdateRejectsConfirmed(t *testing.T) {
	confirmed := unconfirmedPreOrder()
	confirmed.Confirmed = true

	preOrders := &stubPreOrderRepository{}
	preOrders.findFn = func(context.Context, string) (domain.PreOrder, error) {
		return confirmed, nil
	}
	svc := newPreOrderServiceForTest(t, preOrders, &stubProductRepository{}, &stubOrderService{}, time.Now())

	_, err := svc.Update(context.Background(), UpdatePreOrderCommand{PreOrderID: "po_1", Status: "Packed"})
	if !errors.Is(err, ErrPreOrderAlreadyConfirmed) {
		t.Fatalf("expected ErrPreOrderAlreadyConfirmed, got %v", err)
	}

	preOrders.mu.Lock()
	defer preOrders.mu.Unlock()
	if len(preOrders.updated) != 0 {
		t.Fatalf("confirmed pre-orders must not be written")
	}
}

func TestPreOrderServiceConfirmSuccess(t *testing.T) {
	preOrder := unconfirmedPreOrder()
	preOrders := &stubPreOrderRepository{}
	preOrders.findFn = func(context.Context, string) (domain.PreOrder, error) {
		return preOrder, nil
	}

	products := &stubProductRepository{}
	products.getFn = func(_ context.Context, ids []string) (map[string]domain.Product, error) {
		if len(ids) != 2 {
			t.Fatalf("expected 2 product lookups, got %v", ids)
		}
		return map[string]domain.Product{
			"prod-a": {ID: "prod-a", PalletCapacity: &domain.PalletCapacity{TotalCasesPerPallet: 10}},
			"prod-b": {ID: "prod-b"},
		}, nil
	}

	orders := &stubOrderService{}
	orders.createFn = func(_ context.Context, cmd CreateOrderCommand) (domain.Order, error) {
		return domain.Order{
			ID:          "ord_NEW",
			OrderNumber: "ORD-000001",
			StoreID:     cmd.StoreID,
			Items:       cmd.Items,
			OrderType:   cmd.OrderType,
			PreOrderID:  cmd.PreOrderID,
			PalletData:  cmd.PalletData,
			PlacedAt:    cmd.PlacedAt,
		}, nil
	}

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newPreOrderServiceForTest(t, preOrders, products, orders, now)

	result, err := svc.Confirm(context.Background(), "po_1")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if result.Order.ID != "ord_NEW" {
		t.Fatalf("expected order ord_NEW, got %s", result.Order.ID)
	}
	if !result.PreOrder.Confirmed {
		t.Fatalf("result pre-order must be confirmed")
	}
	if result.PreOrder.OrderID != "ord_NEW" {
		t.Fatalf("expected linked order id ord_NEW, got %s", result.PreOrder.OrderID)
	}
	if result.PreOrder.PlateCount != 2 {
		t.Fatalf("expected plate count 2, got %d", result.PreOrder.PlateCount)
	}

	if result.PalletInfo.TotalPallets != 2 {
		t.Fatalf("expected 2 pallets, got %d", result.PalletInfo.TotalPallets)
	}
	if result.PalletInfo.TotalBoxes != 17 {
		t.Fatalf("expected 17 boxes, got %d", result.PalletInfo.TotalBoxes)
	}
	entry, ok := result.PalletInfo.Breakdown["prod-a"]
	if !ok {
		t.Fatalf("expected breakdown entry for prod-a")
	}
	if entry.PalletsNeeded != 2 || entry.FullPallets != 1 || entry.PartialCases != 2 {
		t.Fatalf("unexpected breakdown %+v", entry)
	}

	orders.mu.Lock()
	if len(orders.commands) != 1 {
		t.Fatalf("expected one order creation, got %d", len(orders.commands))
	}
	cmd := orders.commands[0]
	orders.mu.Unlock()

	if cmd.OrderType != domain.OrderTypePreOrderConversion {
		t.Fatalf("expected conversion order type, got %s", cmd.OrderType)
	}
	if cmd.PreOrderID != "po_1" {
		t.Fatalf("expected pre-order link po_1, got %s", cmd.PreOrderID)
	}
	if !cmd.PlacedAt.Equal(preOrder.CreatedAt) {
		t.Fatalf("expected placedAt preserved from pre-order, got %v", cmd.PlacedAt)
	}
	if cmd.PalletData == nil || cmd.PalletData.PalletCount != 2 {
		t.Fatalf("expected pallet data on command, got %+v", cmd.PalletData)
	}

	// Confirmation fields travel with the order transaction, not through a
	// separate pre-order write.
	preOrders.mu.Lock()
	defer preOrders.mu.Unlock()
	if len(preOrders.updated) != 0 {
		t.Fatalf("confirm must not issue a separate pre-order update")
	}
}

func TestPreOrderServiceConfirmAlreadyConfirmedFastPath(t *testing.T) {
	confirmed := unconfirmedPreOrder()
	confirmed.Confirmed = true

	preOrders := &stubPreOrderRepository{}
	preOrders.findFn = func(context.Context, string) (domain.PreOrder, error) {
		return confirmed, nil
	}
	orders := &stubOrderService{}
	svc := newPreOrderServiceForTest(t, preOrders, &stubProductRepository{}, orders, time.Now())

	_, err := svc.Confirm(context.Background(), "po_1")
	if !errors.Is(err, ErrPreOrderAlreadyConfirmed) {
		t.Fatalf("expected ErrPreOrderAlreadyConfirmed, got %v", err)
	}

	orders.mu.Lock()
	defer orders.mu.Unlock()
	if len(orders.commands) != 0 {
		t.Fatalf("already-confirmed pre-orders must not reach order creation")
	}
}

func TestPreOrderServiceConfirmLosesRace(t *testing.T) {
	preOrders := &stubPreOrderRepository{}
	preOrders.findFn = func(context.Context, string) (domain.PreOrder, error) {
		return unconfirmedPreOrder(), nil
	}
	orders := &stubOrderService{}
	orders.createFn = func(context.Context, CreateOrderCommand) (domain.Order, error) {
		return domain.Order{}, repositories.ErrAlreadyConfirmed
	}
	svc := newPreOrderServiceForTest(t, preOrders, &stubProductRepository{}, orders, time.Now())

	_, err := svc.Confirm(context.Background(), "po_1")
	if !errors.Is(err, ErrPreOrderAlreadyConfirmed) {
		t.Fatalf("expected ErrPreOrderAlreadyConfirmed, got %v", err)
	}
}

func TestPreOrderServiceConfirmConcurrentSingleWinner(t *testing.T) {
	preOrders := &stubPreOrderRepository{}
	preOrders.findFn = func(context.Context, string) (domain.PreOrder, error) {
		return unconfirmedPreOrder(), nil
	}

	var once sync.Once
	orders := &stubOrderService{}
	orders.createFn = func(context.Context, CreateOrderCommand) (domain.Order, error) {
		won := false
		once.Do(func() { won = true })
		if won {
			return domain.Order{ID: "ord_WINNER"}, nil
		}
		return domain.Order{}, repositories.ErrAlreadyConfirmed
	}

	svc := newPreOrderServiceForTest(t, preOrders, &stubProductRepository{}, orders, time.Now())

	const attempts = 8
	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Confirm(context.Background(), "po_1")
		}(i)
	}
	wg.Wait()

	var successes, rejections int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrPreOrderAlreadyConfirmed):
			rejections++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one winner, got %d", successes)
	}
	if rejections != attempts-1 {
		t.Fatalf("expected %d rejections, got %d", attempts-1, rejections)
	}
}

func TestPreOrderServiceConfirmInsufficientStockLeavesStateUntouched(t *testing.T) {
	preOrders := &stubPreOrderRepository{}
	preOrders.findFn = func(context.Context, string) (domain.PreOrder, error) {
		return unconfirmedPreOrder(), nil
	}
	orders := &stubOrderService{}
	orders.createFn = func(context.Context, CreateOrderCommand) (domain.Order, error) {
		return domain.Order{}, &InsufficientStockError{Shortages: []repositories.StockShortage{
			{ProductID: "prod-a", Requested: 12, Available: 4},
		}}
	}
	svc := newPreOrderServiceForTest(t, preOrders, &stubProductRepository{}, orders, time.Now())

	_, err := svc.Confirm(context.Background(), "po_1")
	if !errors.Is(err, ErrOrderInsufficientStock) {
		t.Fatalf("expected insufficient stock error surfaced unchanged, got %v", err)
	}

	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) || len(stockErr.Shortages) != 1 {
		t.Fatalf("expected shortage detail preserved, got %v", err)
	}

	preOrders.mu.Lock()
	defer preOrders.mu.Unlock()
	if len(preOrders.updated) != 0 {
		t.Fatalf("failed conversion must leave the pre-order untouched")
	}
}

func TestPreOrderServiceConfirmRejectsOrderWithoutID(t *testing.T) {
	preOrders := &stubPreOrderRepository{}
	preOrders.findFn = func(context.Context, string) (domain.PreOrder, error) {
		return unconfirmedPreOrder(), nil
	}
	orders := &stubOrderService{}
	orders.createFn = func(context.Context, CreateOrderCommand) (domain.Order, error) {
		return domain.Order{}, nil
	}
	svc := newPreOrderServiceForTest(t, preOrders, &stubProductRepository{}, orders, time.Now())

	_, err := svc.Confirm(context.Background(), "po_1")
	if !errors.Is(err, ErrPreOrderConversionFailed) {
		t.Fatalf("expected ErrPreOrderConversionFailed, got %v", err)
	}

	preOrders.mu.Lock()
	defer preOrders.mu.Unlock()
	if len(preOrders.updated) != 0 {
		t.Fatalf("a success without an order id must not advance pre-order state")
	}
}

func TestPreOrderServiceConfirmNotFound(t *testing.T) {
	preOrders := &stubPreOrderRepository{}
	svc := newPreOrderServiceForTest(t, preOrders, &stubProductRepository{}, &stubOrderService{}, time.Now())

	_, err := svc.Confirm(context.Background(), "po_missing")
	if !errors.Is(err, ErrPreOrderNotFound) {
		t.Fatalf("expected ErrPreOrderNotFound, got %v", err)
	}
}
