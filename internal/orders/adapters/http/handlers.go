package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	authhttp "github.com/dejobratic/bookstore/internal/auth/adapters/http"
	catalogports "github.com/dejobratic/bookstore/internal/catalog/ports"
	"github.com/dejobratic/bookstore/internal/inventory"
	"github.com/dejobratic/bookstore/internal/orders/app"
	"github.com/dejobratic/bookstore/internal/orders/app/commands"
	"github.com/dejobratic/bookstore/internal/orders/domain"
	"github.com/dejobratic/bookstore/internal/orders/ports"
	"github.com/dejobratic/bookstore/internal/validation"
	"github.com/go-chi/chi/v5"
)

// Handler exposes HTTP endpoints for order operations.
type Handler struct {
	service *app.Service
	logger  *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *app.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register binds the order handlers to the provided router. The caller is
// expected to have applied authentication middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/orders", h.createOrder)
	r.Get("/v1/orders", h.listOrders)
	r.Get("/v1/orders/{id}", h.getOrder)
	r.Put("/v1/orders/{id}", h.updateOrder)
	r.Delete("/v1/orders/{id}", h.deleteOrder)
}

type orderItemRequest struct {
	BookID   string `json:"bookId" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gte=1"`
}

type createOrderRequest struct {
	Items []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

func itemInputs(items []orderItemRequest) []commands.ItemInput {
	inputs := make([]commands.ItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, commands.ItemInput{
			BookID:   item.BookID,
			Quantity: item.Quantity,
		})
	}
	return inputs
}

// createOrder claims the Idempotency-Key (when present) before any side
// effect runs: exactly one of two concurrent requests carrying the same key
// wins the claim, the other replays the stored response or gets a conflict.
// Every failure after the claim releases it so the key stays retryable.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customerID, ok := authhttp.CustomerIDFromContext(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	claimed := false
	if idemKey != "" {
		stored, reserved, err := h.service.ReserveIdempotentKey(ctx, idemKey)
		if err != nil {
			h.writeInternalError(ctx, w, err)
			return
		}
		if !reserved {
			if stored == nil {
				writeError(w, http.StatusConflict, "a request with this idempotency key is in progress")
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(stored.StatusCode)
			_, _ = w.Write(stored.Body)
			return
		}
		claimed = true
	}

	releaseClaim := func() {
		if !claimed {
			return
		}
		if err := h.service.ReleaseIdempotentKey(ctx, idemKey); err != nil {
			h.logger.WarnContext(ctx, "failed to release idempotency key", "key", idemKey, "error", err)
		}
	}

	var payload createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		releaseClaim()
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if err := validation.Struct(payload); err != nil {
		releaseClaim()
		writeValidationError(w, err)
		return
	}

	order, err := h.service.CreateOrder(ctx, commands.CreateOrderCommand{
		CustomerID: customerID,
		Items:      itemInputs(payload.Items),
	})
	if err != nil {
		releaseClaim()
		h.writeDomainError(ctx, w, err)
		return
	}

	body, err := json.Marshal(map[string]any{"order": order})
	if err != nil {
		releaseClaim()
		h.writeInternalError(ctx, w, err)
		return
	}

	if claimed {
		stored := ports.StoredResponse{
			StatusCode: http.StatusCreated,
			Body:       body,
			OrderID:    order.ID,
		}
		if err := h.service.SaveIdempotentResponse(ctx, idemKey, stored); err != nil {
			// The order is committed; a lost replay record must not fail
			// the call.
			h.logger.WarnContext(ctx, "failed to save idempotent response", "key", idemKey, "error", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	filter := ports.ListFilter{}
	query := r.URL.Query()

	if customerID := query.Get("customer_id"); customerID != "" {
		filter.CustomerID = &customerID
	}
	if statusParam := query.Get("status"); statusParam != "" {
		status := domain.OrderStatus(statusParam)
		if !status.IsValid() {
			writeError(w, http.StatusBadRequest, app.ErrInvalidStatus.Error())
			return
		}
		filter.Status = &status
	}
	if fromParam := query.Get("from"); fromParam != "" {
		from, err := time.Parse(time.RFC3339, fromParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, "from must be an RFC 3339 timestamp")
			return
		}
		filter.From = &from
	}
	if toParam := query.Get("to"); toParam != "" {
		to, err := time.Parse(time.RFC3339, toParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, "to must be an RFC 3339 timestamp")
			return
		}
		filter.To = &to
	}
	if pageParam := query.Get("page"); pageParam != "" {
		if page, err := strconv.Atoi(pageParam); err == nil {
			filter.Page = page
		}
	}
	if pageSizeParam := query.Get("page_size"); pageSizeParam != "" {
		if pageSize, err := strconv.Atoi(pageSizeParam); err == nil {
			filter.PageSize = pageSize
		}
	}

	page, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		h.writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"orders": page.Orders,
		"pagination": map[string]any{
			"total": page.Total,
			"page":  page.Page,
			"pages": page.Pages,
		},
	})
}

type updateOrderRequest struct {
	Items  []orderItemRequest `json:"items" validate:"omitempty,min=1,dive"`
	Status *string            `json:"status"`
}

// updateOrder applies items before status as two separate writes. The status
// value is validated up front, so an invalid status never follows a committed
// revision; a storage failure on the status write after a successful revision
// leaves the revised items committed.
func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var payload updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if payload.Items == nil && payload.Status == nil {
		writeError(w, http.StatusBadRequest, "at least one of items or status is required")
		return
	}

	if err := validation.Struct(payload); err != nil {
		writeValidationError(w, err)
		return
	}

	var status *domain.OrderStatus
	if payload.Status != nil {
		parsed := domain.OrderStatus(*payload.Status)
		if !parsed.IsValid() {
			writeError(w, http.StatusBadRequest, app.ErrInvalidStatus.Error())
			return
		}
		status = &parsed
	}

	var order *domain.Order

	if payload.Items != nil {
		revised, err := h.service.ReviseItems(ctx, commands.ReviseItemsCommand{
			OrderID: id,
			Items:   itemInputs(payload.Items),
		})
		if err != nil {
			h.writeDomainError(ctx, w, err)
			return
		}
		order = revised
	}

	if status != nil {
		updated, err := h.service.UpdateStatus(ctx, id, *status)
		if err != nil {
			h.writeDomainError(ctx, w, err)
			return
		}
		order = updated
	}

	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteOrder(r.Context(), id); err != nil {
		h.writeDomainError(r.Context(), w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verrs *validation.Errors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": verrs.Fields,
		})
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

// writeDomainError maps application errors onto HTTP statuses. Anything
// unrecognized is logged with full context and answered with a generic body.
func (h *Handler) writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	var unknownBook *catalogports.UnknownBookError
	var insufficient *catalogports.InsufficientStockError

	switch {
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, app.ErrInvalidStatus),
		errors.Is(err, inventory.ErrNoItems),
		errors.Is(err, inventory.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &unknownBook):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &insufficient):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.writeInternalError(ctx, w, err)
	}
}

func (h *Handler) writeInternalError(ctx context.Context, w http.ResponseWriter, err error) {
	h.logger.ErrorContext(ctx, "order request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
