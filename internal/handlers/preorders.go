package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/greengate/backoffice/internal/domain"
	"github.com/greengate/backoffice/internal/platform/httpx"
	"github.com/greengate/backoffice/internal/repositories"
	"github.com/greengate/backoffice/internal/services"
)

const (
	defaultPageSize    = 20
	maxPageSize        = 100
	maxRequestBodySize = 256 * 1024
)

var (
	errBodyTooLarge = errors.New("request body too large")
	errEmptyBody    = errors.New("request body is empty")
)

type createPreOrderRequest struct {
	Store           domain.StoreRef   `json:"store"`
	Items           []domain.LineItem `json:"items"`
	BillingAddress  *domain.Address   `json:"billingAddress"`
	ShippingAddress *domain.Address   `json:"shippingAddress"`
	Subtotal        float64           `json:"subtotal"`
	Total           float64           `json:"total"`
	Status          string            `json:"status"`
	OrderType       string            `json:"orderType"`
	PriceListRef    string            `json:"priceListTemplateId"`
}

type updatePreOrderRequest struct {
	Items           []domain.LineItem `json:"items"`
	BillingAddress  *domain.Address   `json:"billingAddress"`
	ShippingAddress *domain.Address   `json:"shippingAddress"`
	Subtotal        *float64          `json:"subtotal"`
	Total           *float64          `json:"total"`
	Status          string            `json:"status"`
}

type confirmPreOrderResponse struct {
	Order      domain.Order        `json:"order"`
	PreOrder   domain.PreOrder     `json:"preOrder"`
	PalletInfo services.PalletInfo `json:"palletInfo"`
}

// PreOrderHandlers exposes the pre-order lifecycle endpoints.
type PreOrderHandlers struct {
	preOrders services.PreOrderService
}

// NewPreOrderHandlers constructs a new PreOrderHandlers instance.
func NewPreOrderHandlers(preOrders services.PreOrderService) *PreOrderHandlers {
	return &PreOrderHandlers{preOrders: preOrders}
}

// Routes registers the /preorders endpoints.
func (h *PreOrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.createPreOrder)
	r.Get("/", h.listPreOrders)
	r.Get("/{preOrderID}", h.getPreOrder)
	r.Patch("/{preOrderID}", h.updatePreOrder)
	r.Post("/{preOrderID}:confirm", h.confirmPreOrder)
}

func (h *PreOrderHandlers) createPreOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.preOrders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("preorder_service_unavailable", "pre-order service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req createPreOrderRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}

	preOrder, err := h.preOrders.Create(ctx, services.CreatePreOrderCommand{
		Store:           req.Store,
		Items:           req.Items,
		BillingAddress:  req.BillingAddress,
		ShippingAddress: req.ShippingAddress,
		Subtotal:        req.Subtotal,
		Total:           req.Total,
		Status:          req.Status,
		OrderType:       req.OrderType,
		PriceListRef:    req.PriceListRef,
	})
	if err != nil {
		writePreOrderError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, preOrder)
}

func (h *PreOrderHandlers) listPreOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.preOrders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("preorder_service_unavailable", "pre-order service unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	filter := repositories.PreOrderListFilter{
		StoreID:    strings.TrimSpace(query.Get("storeId")),
		Status:     strings.TrimSpace(query.Get("status")),
		Pagination: parsePagination(query.Get("page"), query.Get("pageSize")),
	}
	if raw := strings.TrimSpace(query.Get("confirmed")); raw != "" {
		confirmed, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "confirmed must be true or false", http.StatusBadRequest))
			return
		}
		filter.Confirmed = &confirmed
	}

	page, err := h.preOrders.List(ctx, filter)
	if err != nil {
		writePreOrderError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

func (h *PreOrderHandlers) getPreOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.preOrders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("preorder_service_unavailable", "pre-order service unavailable", http.StatusServiceUnavailable))
		return
	}

	preOrderID := strings.TrimSpace(chi.URLParam(r, "preOrderID"))
	if preOrderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "pre-order id is required", http.StatusBadRequest))
		return
	}

	preOrder, err := h.preOrders.Get(ctx, preOrderID)
	if err != nil {
		writePreOrderError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, preOrder)
}

func (h *PreOrderHandlers) updatePreOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.preOrders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("preorder_service_unavailable", "pre-order service unavailable", http.StatusServiceUnavailable))
		return
	}

	preOrderID := strings.TrimSpace(chi.URLParam(r, "preOrderID"))
	if preOrderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "pre-order id is required", http.StatusBadRequest))
		return
	}

	var req updatePreOrderRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}

	preOrder, err := h.preOrders.Update(ctx, services.UpdatePreOrderCommand{
		PreOrderID:      preOrderID,
		Items:           req.Items,
		BillingAddress:  req.BillingAddress,
		ShippingAddress: req.ShippingAddress,
		Subtotal:        req.Subtotal,
		Total:           req.Total,
		Status:          req.Status,
	})
	if err != nil {
		writePreOrderError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, preOrder)
}

func (h *PreOrderHandlers) confirmPreOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.preOrders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("preorder_service_unavailable", "pre-order service unavailable", http.StatusServiceUnavailable))
		return
	}

	preOrderID := strings.TrimSpace(chi.URLParam(r, "preOrderID"))
	if preOrderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "pre-order id is required", http.StatusBadRequest))
		return
	}

	result, err := h.preOrders.Confirm(ctx, preOrderID)
	if err != nil {
		writePreOrderError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, confirmPreOrderResponse{
		Order:      result.Order,
		PreOrder:   result.PreOrder,
		PalletInfo: result.PalletInfo,
	})
}

func writePreOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	var stockErr *services.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_stock", "insufficient stock for one or more items", http.StatusConflict).
			WithDetails(map[string]any{"shortages": stockErr.Shortages}))
	case errors.Is(err, services.ErrPreOrderInvalidInput), errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrPreOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("preorder_not_found", "pre-order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrPreOrderAlreadyConfirmed):
		httpx.WriteError(ctx, w, httpx.NewError("already_confirmed", "pre-order is already confirmed", http.StatusBadRequest))
	case errors.Is(err, services.ErrCounterUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("sequence_unavailable", "sequence allocation failed; please retry", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("preorder_error", "failed to process pre-order request", http.StatusInternalServerError))
	}
}

func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, target any) bool {
	body, err := readLimitedBody(r, maxRequestBodySize)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		case errors.Is(err, errEmptyBody):
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is required", http.StatusBadRequest))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return false
	}
	if err := json.Unmarshal(body, target); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return false
	}
	return true
}

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	reader := io.LimitReader(r.Body, limit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func parsePagination(pageRaw, sizeRaw string) repositories.Pagination {
	p := repositories.Pagination{Page: 1, PageSize: defaultPageSize}
	if raw := strings.TrimSpace(pageRaw); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page > 0 {
			p.Page = page
		}
	}
	if raw := strings.TrimSpace(sizeRaw); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil {
			switch {
			case size <= 0:
			case size > maxPageSize:
				p.PageSize = maxPageSize
			default:
				p.PageSize = size
			}
		}
	}
	return p
}

func parseTimeParam(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC(), nil
	}
	if ts, err := time.Parse("2006-01-02", raw); err == nil {
		return ts.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
}
