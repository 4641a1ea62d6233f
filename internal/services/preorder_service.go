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

const preOrderIDPrefix = "po_"

var (
	// ErrPreOrderInvalidInput signals the caller provided invalid data.
	ErrPreOrderInvalidInput = errors.New("preorder: invalid input")
	// ErrPreOrderNotFound indicates the pre-order could not be located.
	ErrPreOrderNotFound = errors.New("preorder: not found")
	// ErrPreOrderAlreadyConfirmed rejects a second confirmation attempt.
	ErrPreOrderAlreadyConfirmed = errors.New("preorder: already confirmed")
	// ErrPreOrderConversionFailed indicates order creation reported success
	// without a usable order; the pre-order state is left unchanged.
	ErrPreOrderConversionFailed = errors.New("preorder: conversion failed")
)

// PreOrderServiceDeps bundles collaborators required to construct the pre-order service.
type PreOrderServiceDeps struct {
	PreOrders   repositories.PreOrderRepository
	Products    repositories.ProductRepository
	Orders      OrderService
	Counters    CounterService
	Clock       func() time.Time
	IDGenerator func() string
}

type preOrderService struct {
	preOrders repositories.PreOrderRepository
	products  repositories.ProductRepository
	orders    OrderService
	counters  CounterService
	clock     func() time.Time
	newID     func() string
}

// NewPreOrderService wires dependencies into a concrete PreOrderService implementation.
func NewPreOrderService(deps PreOrderServiceDeps) (PreOrderService, error) {
	if deps.PreOrders == nil {
		return nil, errors.New("preorder service: preorder repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("preorder service: product repository is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("preorder service: order service is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("preorder service: counter service is required")
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

	return &preOrderService{
		preOrders: deps.PreOrders,
		products:  deps.Products,
		orders:    deps.Orders,
		counters:  deps.Counters,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: idGen,
	}, nil
}

func (s *preOrderService) Create(ctx context.Context, cmd CreatePreOrderCommand) (domain.PreOrder, error) {
	storeID := strings.TrimSpace(cmd.Store.ID)
	if storeID == "" {
		return domain.PreOrder{}, fmt.Errorf("%w: store is required", ErrPreOrderInvalidInput)
	}
	if err := validateItems(cmd.Items); err != nil {
		return domain.PreOrder{}, err
	}
	if cmd.BillingAddress == nil {
		return domain.PreOrder{}, fmt.Errorf("%w: billing address is required", ErrPreOrderInvalidInput)
	}
	if cmd.ShippingAddress == nil {
		return domain.PreOrder{}, fmt.Errorf("%w: shipping address is required", ErrPreOrderInvalidInput)
	}

	// The number must be allocated before the record exists; a failed
	// allocation aborts creation entirely.
	number, err := s.counters.NextPreOrderNumber(ctx)
	if err != nil {
		return domain.PreOrder{}, err
	}

	now := s.clock()
	status := strings.TrimSpace(cmd.Status)
	if status == "" {
		status = domain.PreOrderStatusProcessing
	}

	preOrder := domain.PreOrder{
		ID:             preOrderIDPrefix + s.newID(),
		PreOrderNumber: number,
		StoreID:        storeID,
		Items:          cloneItems(cmd.Items),
		BillingAddress: cloneAddress(cmd.BillingAddress),
		ShippingAddr:   cloneAddress(cmd.ShippingAddress),
		Subtotal:       cmd.Subtotal,
		Total:          cmd.Total,
		Status:         status,
		OrderType:      strings.TrimSpace(cmd.OrderType),
		PriceListRef:   strings.TrimSpace(cmd.PriceListRef),
		Confirmed:      false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.preOrders.Insert(ctx, preOrder); err != nil {
		return domain.PreOrder{}, s.mapRepositoryError(err)
	}
	return preOrder, nil
}

func (s *preOrderService) Update(ctx context.Context, cmd UpdatePreOrderCommand) (domain.PreOrder, error) {
	preOrderID := strings.TrimSpace(cmd.PreOrderID)
	if preOrderID == "" {
		return domain.PreOrder{}, fmt.Errorf("%w: pre-order id is required", ErrPreOrderInvalidInput)
	}

	preOrder, err := s.preOrders.FindByID(ctx, preOrderID)
	if err != nil {
		return domain.PreOrder{}, s.mapRepositoryError(err)
	}
	if preOrder.Confirmed {
		return domain.PreOrder{}, fmt.Errorf("%w: confirmed pre-orders cannot be updated", ErrPreOrderAlreadyConfirmed)
	}

	if cmd.Items != nil {
		if err := validateItems(cmd.Items); err != nil {
			return domain.PreOrder{}, err
		}
		preOrder.Items = cloneItems(cmd.Items)
	}
	if cmd.BillingAddress != nil {
		preOrder.BillingAddress = cloneAddress(cmd.BillingAddress)
	}
	if cmd.ShippingAddress != nil {
		preOrder.ShippingAddr = cloneAddress(cmd.ShippingAddress)
	}
	if cmd.Subtotal != nil {
		preOrder.Subtotal = *cmd.Subtotal
	}
	if cmd.Total != nil {
		preOrder.Total = *cmd.Total
	}
	if status := strings.TrimSpace(cmd.Status); status != "" {
		preOrder.Status = status
	}
	preOrder.UpdatedAt = s.clock()

	if err := s.preOrders.Update(ctx, preOrder); err != nil {
		return domain.PreOrder{}, s.mapRepositoryError(err)
	}
	return preOrder, nil
}

func (s *preOrderService) Get(ctx context.Context, preOrderID string) (domain.PreOrder, error) {
	preOrderID = strings.TrimSpace(preOrderID)
	if preOrderID == "" {
		return domain.PreOrder{}, fmt.Errorf("%w: pre-order id is required", ErrPreOrderInvalidInput)
	}
	preOrder, err := s.preOrders.FindByID(ctx, preOrderID)
	if err != nil {
		return domain.PreOrder{}, s.mapRepositoryError(err)
	}
	return preOrder, nil
}

func (s *preOrderService) List(ctx context.Context, filter repositories.PreOrderListFilter) (domain.Page[domain.PreOrder], error) {
	page, err := s.preOrders.List(ctx, filter)
	if err != nil {
		return domain.Page[domain.PreOrder]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

// Confirm converts an unconfirmed pre-order into a committed order. The
// pallet summary is computed from current product capacity data, the order is
// created through the shared order-creation path, and the confirmation fields
// are persisted in the same transaction that creates the order. Any
// conversion failure leaves the pre-order untouched.
func (s *preOrderService) Confirm(ctx context.Context, preOrderID string) (ConfirmResult, error) {
	preOrderID = strings.TrimSpace(preOrderID)
	if preOrderID == "" {
		return ConfirmResult{}, fmt.Errorf("%w: pre-order id is required", ErrPreOrderInvalidInput)
	}

	preOrder, err := s.preOrders.FindByID(ctx, preOrderID)
	if err != nil {
		return ConfirmResult{}, s.mapRepositoryError(err)
	}
	if preOrder.Confirmed {
		return ConfirmResult{}, ErrPreOrderAlreadyConfirmed
	}

	capacities, err := s.lookupCapacities(ctx, preOrder.Items)
	if err != nil {
		return ConfirmResult{}, err
	}

	now := s.clock()
	summary := BuildPalletSummary(preOrder.Items, capacities, now)

	order, err := s.orders.Create(ctx, CreateOrderCommand{
		StoreID:         preOrder.StoreID,
		Items:           preOrder.Items,
		BillingAddress:  preOrder.BillingAddress,
		ShippingAddress: preOrder.ShippingAddr,
		Subtotal:        preOrder.Subtotal,
		Total:           preOrder.Total,
		OrderType:       domain.OrderTypePreOrderConversion,
		PlacedAt:        preOrder.CreatedAt,
		PreOrderID:      preOrder.ID,
		PalletData:      &summary,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrAlreadyConfirmed) {
			// Lost the race against a concurrent confirmation.
			return ConfirmResult{}, ErrPreOrderAlreadyConfirmed
		}
		return ConfirmResult{}, err
	}
	if strings.TrimSpace(order.ID) == "" {
		// A success signal without an order identifier is not a success.
		return ConfirmResult{}, fmt.Errorf("%w: order creation returned no identifier", ErrPreOrderConversionFailed)
	}

	preOrder.Confirmed = true
	preOrder.OrderID = order.ID
	preOrder.PalletData = &summary
	preOrder.PlateCount = summary.PalletCount
	preOrder.UpdatedAt = now

	return ConfirmResult{
		Order:    order,
		PreOrder: preOrder,
		PalletInfo: PalletInfo{
			TotalPallets: summary.PalletCount,
			TotalBoxes:   summary.TotalBoxes,
			Breakdown:    summary.Breakdown,
		},
	}, nil
}

func (s *preOrderService) lookupCapacities(ctx context.Context, items []domain.LineItem) (map[string]int, error) {
	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.PricingType != domain.PricingTypeBox || item.Quantity <= 0 {
			continue
		}
		productID := item.Product()
		if productID == "" {
			continue
		}
		if _, ok := seen[productID]; ok {
			continue
		}
		seen[productID] = struct{}{}
		ids = append(ids, productID)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	capacities := make(map[string]int, len(products))
	for id, product := range products {
		if capacity := product.CasesPerPallet(); capacity > 0 {
			capacities[id] = capacity
		}
	}
	return capacities, nil
}

func (s *preOrderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %v", ErrPreOrderNotFound, err)
	}
	return err
}

func validateItems(items []domain.LineItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrPreOrderInvalidInput)
	}
	for i, item := range items {
		if item.Product() == "" {
			return fmt.Errorf("%w: item %d has no product reference", ErrPreOrderInvalidInput, i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %d quantity must be positive", ErrPreOrderInvalidInput, i)
		}
	}
	return nil
}
