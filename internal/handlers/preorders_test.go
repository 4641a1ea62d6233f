package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/greengate/backoffice/internal/domain"
	"github.com/greengate/backoffice/internal/repositories"
	"github.com/greengate/backoffice/internal/services"
)

type stubPreOrderService struct {
	createFn  func(context.Context, services.CreatePreOrderCommand) (domain.PreOrder, error)
	updateFn  func(context.Context, services.UpdatePreOrderCommand) (domain.PreOrder, error)
	getFn     func(context.Context, string) (domain.PreOrder, error)
	listFn    func(context.Context, repositories.PreOrderListFilter) (domain.Page[domain.PreOrder], error)
	confirmFn func(context.Context, string) (services.ConfirmResult, error)
}

func (s *stubPreOrderService) Create(ctx context.Context, cmd services.CreatePreOrderCommand) (domain.PreOrder, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return domain.PreOrder{}, nil
}

func (s *stubPreOrderService) Update(ctx context.Context, cmd services.UpdatePreOrderCommand) (domain.PreOrder, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, cmd)
	}
	return domain.PreOrder{}, nil
}

func (s *stubPreOrderService) Get(ctx context.Context, preOrderID string) (domain.PreOrder, error) {
	if s.getFn != nil {
		return s.getFn(ctx, preOrderID)
	}
	return domain.PreOrder{}, nil
}

func (s *stubPreOrderService) List(ctx context.Context, filter repositories.PreOrderListFilter) (domain.Page[domain.PreOrder], error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return domain.Page[domain.PreOrder]{}, nil
}

func (s *stubPreOrderService) Confirm(ctx context.Context, preOrderID string) (services.ConfirmResult, error) {
	if s.confirmFn != nil {
		return s.confirmFn(ctx, preOrderID)
	}
	return services.ConfirmResult{}, nil
}

func newPreOrderRouter(svc services.PreOrderService) chi.Router {
	r := chi.NewRouter()
	r.Route("/preorders", NewPreOrderHandlers(svc).Routes)
	return r
}

func TestCreatePreOrderAcceptsStoreObjectShape(t *testing.T) {
	svc := &stubPreOrderService{}
	var captured services.CreatePreOrderCommand
	svc.createFn = func(_ context.Context, cmd services.CreatePreOrderCommand) (domain.PreOrder, error) {
		captured = cmd
		return domain.PreOrder{ID: "po_1", PreOrderNumber: "PO-00001", StoreID: cmd.Store.ID}, nil
	}

	body := `{
		"store": {"value": "store-1"},
		"items": [{"productId": "prod-a", "quantity": 2, "unitPrice": 4, "pricingType": "box"}],
		"billingAddress": {"line1": "1 Main St", "city": "Springfield", "country": "US"},
		"shippingAddress": {"line1": "1 Main St", "city": "Springfield", "country": "US"},
		"subtotal": 8,
		"total": 9
	}`

	req := httptest.NewRequest(http.MethodPost, "/preorders/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	newPreOrderRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Store.ID != "store-1" {
		t.Fatalf("expected normalised store id, got %q", captured.Store.ID)
	}
	if len(captured.Items) != 1 || captured.Items[0].Product() != "prod-a" {
		t.Fatalf("unexpected items: %+v", captured.Items)
	}
}

func TestCreatePreOrderRejectsInvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/preorders/", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	newPreOrderRouter(&stubPreOrderService{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestConfirmPreOrderSuccessPayload(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := &stubPreOrderService{}
	svc.confirmFn = func(_ context.Context, preOrderID string) (services.ConfirmResult, error) {
		if preOrderID != "po_1" {
			t.Fatalf("expected po_1, got %s", preOrderID)
		}
		return services.ConfirmResult{
			Order: domain.Order{ID: "ord_1", OrderNumber: "ORD-000001", OrderType: domain.OrderTypePreOrderConversion},
			PreOrder: domain.PreOrder{
				ID: "po_1", Confirmed: true, OrderID: "ord_1", PlateCount: 2, UpdatedAt: now,
			},
			PalletInfo: services.PalletInfo{
				TotalPallets: 2,
				TotalBoxes:   17,
				Breakdown: map[string]domain.PalletBreakdownEntry{
					"prod-a": {Boxes: 12, PalletsNeeded: 2, FullPallets: 1, PartialCases: 2},
				},
			},
		}, nil
	}

	req := httptest.NewRequest(http.MethodPost, "/preorders/po_1:confirm", nil)
	rec := httptest.NewRecorder()
	newPreOrderRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Order struct {
			ID string `json:"id"`
		} `json:"order"`
		PreOrder struct {
			Confirmed bool   `json:"confirmed"`
			OrderID   string `json:"orderId"`
		} `json:"preOrder"`
		PalletInfo struct {
			TotalPallets int `json:"totalPallets"`
			TotalBoxes   int `json:"totalBoxes"`
		} `json:"palletInfo"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Order.ID != "ord_1" {
		t.Fatalf("expected order ord_1, got %s", payload.Order.ID)
	}
	if !payload.PreOrder.Confirmed || payload.PreOrder.OrderID != "ord_1" {
		t.Fatalf("unexpected pre-order payload: %+v", payload.PreOrder)
	}
	if payload.PalletInfo.TotalPallets != 2 || payload.PalletInfo.TotalBoxes != 17 {
		t.Fatalf("unexpected pallet info: %+v", payload.PalletInfo)
	}
}

func TestConfirmPreOrderNotFound(t *testing.T) {
	svc := &stubPreOrderService{}
	svc.confirmFn = func(context.Context, string) (services.ConfirmResult, error) {
		return services.ConfirmResult{}, services.ErrPreOrderNotFound
	}

	req := httptest.NewRequest(http.MethodPost, "/preorders/po_missing:confirm", nil)
	rec := httptest.NewRecorder()
	newPreOrderRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestConfirmPreOrderAlreadyConfirmed(t *testing.T) {
	svc := &stubPreOrderService{}
	svc.confirmFn = func(context.Context, string) (services.ConfirmResult, error) {
		return services.ConfirmResult{}, services.ErrPreOrderAlreadyConfirmed
	}

	req := httptest.NewRequest(http.MethodPost, "/preorders/po_1:confirm", nil)
	rec := httptest.NewRecorder()
	newPreOrderRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["error"] != "already_confirmed" {
		t.Fatalf("expected already_confirmed code, got %v", payload["error"])
	}
}

func TestConfirmPreOrderInsufficientStockDetails(t *testing.T) {
	svc := &stubPreOrderService{}
	svc.confirmFn = func(context.Context, string) (services.ConfirmResult, error) {
		return services.ConfirmResult{}, &services.InsufficientStockError{Shortages: []repositories.StockShortage{
			{ProductID: "prod-a", Requested: 12, Available: 4},
		}}
	}

	req := httptest.NewRequest(http.MethodPost, "/preorders/po_1:confirm", nil)
	rec := httptest.NewRecorder()
	newPreOrderRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	var payload struct {
		Error     string `json:"error"`
		Shortages []struct {
			ProductID string `json:"productId"`
			Requested int    `json:"requested"`
			Available int    `json:"available"`
		} `json:"shortages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Error != "insufficient_stock" {
		t.Fatalf("expected insufficient_stock code, got %s", payload.Error)
	}
	if len(payload.Shortages) != 1 || payload.Shortages[0].ProductID != "prod-a" || payload.Shortages[0].Available != 4 {
		t.Fatalf("unexpected shortages: %+v", payload.Shortages)
	}
}

func TestListPreOrdersParsesFilters(t *testing.T) {
	svc := &stubPreOrderService{}
	var captured repositories.PreOrderListFilter
	svc.listFn = func(_ context.Context, filter repositories.PreOrderListFilter) (domain.Page[domain.PreOrder], error) {
		captured = filter
		return domain.Page[domain.PreOrder]{Items: []domain.PreOrder{}}, nil
	}

	req := httptest.NewRequest(http.MethodGet, "/preorders/?storeId=store-1&confirmed=false&page=2&pageSize=10", nil)
	rec := httptest.NewRecorder()
	newPreOrderRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.StoreID != "store-1" {
		t.Fatalf("expected storeId filter, got %q", captured.StoreID)
	}
	if captured.Confirmed == nil || *captured.Confirmed {
		t.Fatalf("expected confirmed=false filter, got %v", captured.Confirmed)
	}
	if captured.Page != 2 || captured.PageSize != 10 {
		t.Fatalf("unexpected pagination: %+v", captured.Pagination)
	}
}

func TestListPreOrdersRejectsBadConfirmedValue(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/preorders/?confirmed=maybe", nil)
	rec := httptest.NewRecorder()
	newPreOrderRouter(&stubPreOrderService{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
