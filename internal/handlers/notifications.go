package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/greengate/backoffice/internal/platform/httpx"
	"github.com/greengate/backoffice/internal/repositories"
	"github.com/greengate/backoffice/internal/services"
)

type createNotificationRequest struct {
	RecipientID string `json:"recipientId"`
	Title       string `json:"title"`
	Body        string `json:"body"`
}

// NotificationHandlers exposes the user-notification endpoints.
type NotificationHandlers struct {
	notifications services.NotificationService
}

// NewNotificationHandlers constructs a new NotificationHandlers instance.
func NewNotificationHandlers(notifications services.NotificationService) *NotificationHandlers {
	return &NotificationHandlers{notifications: notifications}
}

// Routes registers the /notifications endpoints.
func (h *NotificationHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.createNotification)
	r.Get("/", h.listNotifications)
	r.Post("/{notificationID}:read", h.markRead)
	r.Delete("/{notificationID}", h.deleteNotification)
}

func (h *NotificationHandlers) createNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.notifications == nil {
		httpx.WriteError(ctx, w, httpx.NewError("notification_service_unavailable", "notification service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req createNotificationRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}

	notification, err := h.notifications.Create(ctx, services.CreateNotificationCommand{
		RecipientID: req.RecipientID,
		Title:       req.Title,
		Body:        req.Body,
	})
	if err != nil {
		writeNotificationError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, notification)
}

func (h *NotificationHandlers) listNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.notifications == nil {
		httpx.WriteError(ctx, w, httpx.NewError("notification_service_unavailable", "notification service unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	filter := repositories.NotificationListFilter{
		RecipientID: strings.TrimSpace(query.Get("recipientId")),
		Pagination:  parsePagination(query.Get("page"), query.Get("pageSize")),
	}
	if raw := strings.TrimSpace(query.Get("unreadOnly")); raw != "" {
		unreadOnly, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unreadOnly must be true or false", http.StatusBadRequest))
			return
		}
		filter.UnreadOnly = unreadOnly
	}

	page, err := h.notifications.List(ctx, filter)
	if err != nil {
		writeNotificationError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

func (h *NotificationHandlers) markRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.notifications == nil {
		httpx.WriteError(ctx, w, httpx.NewError("notification_service_unavailable", "notification service unavailable", http.StatusServiceUnavailable))
		return
	}

	notificationID := strings.TrimSpace(chi.URLParam(r, "notificationID"))
	if notificationID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "notification id is required", http.StatusBadRequest))
		return
	}

	notification, err := h.notifications.MarkRead(ctx, notificationID)
	if err != nil {
		writeNotificationError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, notification)
}

func (h *NotificationHandlers) deleteNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.notifications == nil {
		httpx.WriteError(ctx, w, httpx.NewError("notification_service_unavailable", "notification service unavailable", http.StatusServiceUnavailable))
		return
	}

	notificationID := strings.TrimSpace(chi.URLParam(r, "notificationID"))
	if notificationID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "notification id is required", http.StatusBadRequest))
		return
	}

	if err := h.notifications.Delete(ctx, notificationID); err != nil {
		writeNotificationError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeNotificationError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrNotificationInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrNotificationNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("notification_not_found", "notification not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("notification_error", "failed to process notification request", http.StatusInternalServerError))
	}
}
