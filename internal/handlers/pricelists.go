package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/greengate/backoffice/internal/domain"
	"github.com/greengate/backoffice/internal/platform/httpx"
	"github.com/greengate/backoffice/internal/repositories"
	"github.com/greengate/backoffice/internal/services"
)

type createTemplateRequest struct {
	Store domain.StoreRef       `json:"store"`
	Name  string                `json:"name"`
	Rows  []domain.PriceListRow `json:"rows"`
}

type updateTemplateRequest struct {
	Name string                `json:"name"`
	Rows []domain.PriceListRow `json:"rows"`
}

type distributeTemplateRequest struct {
	Recipients []string `json:"recipients"`
}

type distributeTemplateResponse struct {
	Results []services.DistributionResult `json:"results"`
}

// PriceListHandlers exposes the price-list template endpoints.
type PriceListHandlers struct {
	templates services.TemplateService
}

// NewPriceListHandlers constructs a new PriceListHandlers instance.
func NewPriceListHandlers(templates services.TemplateService) *PriceListHandlers {
	return &PriceListHandlers{templates: templates}
}

// Routes registers the /pricelists endpoints.
func (h *PriceListHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.createTemplate)
	r.Get("/", h.listTemplates)
	r.Get("/{templateID}", h.getTemplate)
	r.Patch("/{templateID}", h.updateTemplate)
	r.Delete("/{templateID}", h.deleteTemplate)
	r.Post("/{templateID}:distribute", h.distributeTemplate)
}

func (h *PriceListHandlers) createTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.templates == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricelist_service_unavailable", "price-list service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req createTemplateRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}

	tpl, err := h.templates.Create(ctx, services.CreateTemplateCommand{
		Store: req.Store,
		Name:  req.Name,
		Rows:  req.Rows,
	})
	if err != nil {
		writeTemplateError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, tpl)
}

func (h *PriceListHandlers) listTemplates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.templates == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricelist_service_unavailable", "price-list service unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	filter := repositories.TemplateListFilter{
		StoreID:    strings.TrimSpace(query.Get("storeId")),
		Pagination: parsePagination(query.Get("page"), query.Get("pageSize")),
	}

	page, err := h.templates.List(ctx, filter)
	if err != nil {
		writeTemplateError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

func (h *PriceListHandlers) getTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.templates == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricelist_service_unavailable", "price-list service unavailable", http.StatusServiceUnavailable))
		return
	}

	templateID := strings.TrimSpace(chi.URLParam(r, "templateID"))
	if templateID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "template id is required", http.StatusBadRequest))
		return
	}

	tpl, err := h.templates.Get(ctx, templateID)
	if err != nil {
		writeTemplateError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tpl)
}

func (h *PriceListHandlers) updateTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.templates == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricelist_service_unavailable", "price-list service unavailable", http.StatusServiceUnavailable))
		return
	}

	templateID := strings.TrimSpace(chi.URLParam(r, "templateID"))
	if templateID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "template id is required", http.StatusBadRequest))
		return
	}

	var req updateTemplateRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}

	tpl, err := h.templates.Update(ctx, services.UpdateTemplateCommand{
		TemplateID: templateID,
		Name:       req.Name,
		Rows:       req.Rows,
	})
	if err != nil {
		writeTemplateError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tpl)
}

func (h *PriceListHandlers) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.templates == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricelist_service_unavailable", "price-list service unavailable", http.StatusServiceUnavailable))
		return
	}

	templateID := strings.TrimSpace(chi.URLParam(r, "templateID"))
	if templateID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "template id is required", http.StatusBadRequest))
		return
	}

	if err := h.templates.Delete(ctx, templateID); err != nil {
		writeTemplateError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PriceListHandlers) distributeTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.templates == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricelist_service_unavailable", "price-list service unavailable", http.StatusServiceUnavailable))
		return
	}

	templateID := strings.TrimSpace(chi.URLParam(r, "templateID"))
	if templateID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "template id is required", http.StatusBadRequest))
		return
	}

	var req distributeTemplateRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}

	results, err := h.templates.Distribute(ctx, templateID, req.Recipients)
	if err != nil {
		writeTemplateError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, distributeTemplateResponse{Results: results})
}

func writeTemplateError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrTemplateInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrTemplateNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("pricelist_not_found", "price-list template not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("pricelist_error", "failed to process price-list request", http.StatusInternalServerError))
	}
}
