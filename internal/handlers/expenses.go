package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/greengate/backoffice/internal/domain"
	"github.com/greengate/backoffice/internal/platform/httpx"
	"github.com/greengate/backoffice/internal/repositories"
	"github.com/greengate/backoffice/internal/services"
)

type createExpenseRequest struct {
	Store      domain.StoreRef `json:"store"`
	Category   string          `json:"category"`
	Amount     float64         `json:"amount"`
	Note       string          `json:"note"`
	IncurredAt *time.Time      `json:"incurredAt"`
}

type updateExpenseRequest struct {
	Category   string     `json:"category"`
	Amount     *float64   `json:"amount"`
	Note       *string    `json:"note"`
	IncurredAt *time.Time `json:"incurredAt"`
}

// ExpenseHandlers exposes the expense tracking endpoints.
type ExpenseHandlers struct {
	expenses services.ExpenseService
}

// NewExpenseHandlers constructs a new ExpenseHandlers instance.
func NewExpenseHandlers(expenses services.ExpenseService) *ExpenseHandlers {
	return &ExpenseHandlers{expenses: expenses}
}

// Routes registers the /expenses endpoints.
func (h *ExpenseHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.createExpense)
	r.Get("/", h.listExpenses)
	r.Get("/summary", h.expenseSummary)
	r.Get("/{expenseID}", h.getExpense)
	r.Patch("/{expenseID}", h.updateExpense)
	r.Delete("/{expenseID}", h.deleteExpense)
}

func (h *ExpenseHandlers) createExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.expenses == nil {
		httpx.WriteError(ctx, w, httpx.NewError("expense_service_unavailable", "expense service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req createExpenseRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}

	cmd := services.CreateExpenseCommand{
		Store:    req.Store,
		Category: req.Category,
		Amount:   req.Amount,
		Note:     req.Note,
	}
	if req.IncurredAt != nil {
		cmd.IncurredAt = *req.IncurredAt
	}

	expense, err := h.expenses.Create(ctx, cmd)
	if err != nil {
		writeExpenseError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, expense)
}

func (h *ExpenseHandlers) listExpenses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.expenses == nil {
		httpx.WriteError(ctx, w, httpx.NewError("expense_service_unavailable", "expense service unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	filter := repositories.ExpenseListFilter{
		StoreID:    strings.TrimSpace(query.Get("storeId")),
		Category:   strings.TrimSpace(query.Get("category")),
		Pagination: parsePagination(query.Get("page"), query.Get("pageSize")),
	}

	var ok bool
	if filter.From, ok = parseOptionalTime(ctx, w, query.Get("from"), "from"); !ok {
		return
	}
	if filter.To, ok = parseOptionalTime(ctx, w, query.Get("to"), "to"); !ok {
		return
	}

	page, err := h.expenses.List(ctx, filter)
	if err != nil {
		writeExpenseError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

func (h *ExpenseHandlers) expenseSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.expenses == nil {
		httpx.WriteError(ctx, w, httpx.NewError("expense_service_unavailable", "expense service unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	storeID := strings.TrimSpace(query.Get("storeId"))

	from, ok := parseOptionalTime(ctx, w, query.Get("from"), "from")
	if !ok {
		return
	}
	to, ok := parseOptionalTime(ctx, w, query.Get("to"), "to")
	if !ok {
		return
	}

	summary, err := h.expenses.Summary(ctx, storeID, from, to)
	if err != nil {
		writeExpenseError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, summary)
}

func (h *ExpenseHandlers) getExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.expenses == nil {
		httpx.WriteError(ctx, w, httpx.NewError("expense_service_unavailable", "expense service unavailable", http.StatusServiceUnavailable))
		return
	}

	expenseID := strings.TrimSpace(chi.URLParam(r, "expenseID"))
	if expenseID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "expense id is required", http.StatusBadRequest))
		return
	}

	expense, err := h.expenses.Get(ctx, expenseID)
	if err != nil {
		writeExpenseError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, expense)
}

func (h *ExpenseHandlers) updateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.expenses == nil {
		httpx.WriteError(ctx, w, httpx.NewError("expense_service_unavailable", "expense service unavailable", http.StatusServiceUnavailable))
		return
	}

	expenseID := strings.TrimSpace(chi.URLParam(r, "expenseID"))
	if expenseID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "expense id is required", http.StatusBadRequest))
		return
	}

	var req updateExpenseRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}

	expense, err := h.expenses.Update(ctx, services.UpdateExpenseCommand{
		ExpenseID:  expenseID,
		Category:   req.Category,
		Amount:     req.Amount,
		Note:       req.Note,
		IncurredAt: req.IncurredAt,
	})
	if err != nil {
		writeExpenseError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, expense)
}

func (h *ExpenseHandlers) deleteExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.expenses == nil {
		httpx.WriteError(ctx, w, httpx.NewError("expense_service_unavailable", "expense service unavailable", http.StatusServiceUnavailable))
		return
	}

	expenseID := strings.TrimSpace(chi.URLParam(r, "expenseID"))
	if expenseID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "expense id is required", http.StatusBadRequest))
		return
	}

	if err := h.expenses.Delete(ctx, expenseID); err != nil {
		writeExpenseError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeExpenseError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrExpenseInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrExpenseNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("expense_not_found", "expense not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("expense_error", "failed to process expense request", http.StatusInternalServerError))
	}
}

func parseOptionalTime(ctx context.Context, w http.ResponseWriter, raw, name string) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	ts, err := parseTimeParam(raw)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", name+" must be an RFC3339 timestamp or YYYY-MM-DD date", http.StatusBadRequest))
		return nil, false
	}
	return &ts, true
}
