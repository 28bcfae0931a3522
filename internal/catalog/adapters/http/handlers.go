package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dejobratic/bookstore/internal/catalog/app"
	"github.com/dejobratic/bookstore/internal/catalog/domain"
	"github.com/dejobratic/bookstore/internal/catalog/ports"
	"github.com/dejobratic/bookstore/internal/validation"
	"github.com/go-chi/chi/v5"
)

// Handler exposes HTTP endpoints for managing the book catalog.
type Handler struct {
	service *app.Service
	logger  *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *app.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic binds the read-only catalog endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/v1/books", h.listBooks)
	r.Get("/v1/books/{id}", h.getBook)
}

// RegisterProtected binds the catalog mutation endpoints. The caller is
// expected to have applied authentication middleware.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/v1/books", h.createBook)
	r.Put("/v1/books/{id}", h.updateBook)
	r.Delete("/v1/books/{id}", h.deleteBook)
}

type createBookRequest struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author" validate:"required"`
	Genre       string `json:"genre" validate:"required,oneof=Fiction Non-Fiction Science Technology History Biography"`
	ISBN        string `json:"isbn" validate:"required"`
	PriceCents  int64  `json:"priceCents" validate:"gte=0"`
	Description string `json:"description"`
	Stock       int    `json:"stock" validate:"gte=0"`
}

func (h *Handler) createBook(w http.ResponseWriter, r *http.Request) {
	var payload createBookRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if err := validation.Struct(payload); err != nil {
		writeValidationError(w, err)
		return
	}

	book, err := h.service.CreateBook(r.Context(), app.CreateBookInput{
		Title:       payload.Title,
		Author:      payload.Author,
		Genre:       payload.Genre,
		ISBN:        payload.ISBN,
		PriceCents:  payload.PriceCents,
		Description: payload.Description,
		Stock:       payload.Stock,
	})
	if err != nil {
		h.writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"book": book})
}

func (h *Handler) getBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		h.writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"book": book})
}

func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	filter := ports.ListFilter{}
	query := r.URL.Query()

	if genreParam := query.Get("genre"); genreParam != "" {
		genre := domain.Genre(genreParam)
		if !genre.IsValid() {
			writeError(w, http.StatusBadRequest, "unknown genre")
			return
		}
		filter.Genre = &genre
	}
	if author := query.Get("author"); author != "" {
		filter.Author = &author
	}
	if minParam := query.Get("min_price_cents"); minParam != "" {
		if min, err := strconv.ParseInt(minParam, 10, 64); err == nil {
			filter.MinPriceCents = &min
		}
	}
	if maxParam := query.Get("max_price_cents"); maxParam != "" {
		if max, err := strconv.ParseInt(maxParam, 10, 64); err == nil {
			filter.MaxPriceCents = &max
		}
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

	page, err := h.service.ListBooks(r.Context(), filter)
	if err != nil {
		h.writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"books": page.Books,
		"pagination": map[string]any{
			"total": page.Total,
			"page":  page.Page,
			"pages": page.Pages,
		},
	})
}

type updateBookRequest struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	Genre       *string `json:"genre" validate:"omitempty,oneof=Fiction Non-Fiction Science Technology History Biography"`
	ISBN        *string `json:"isbn"`
	PriceCents  *int64  `json:"priceCents" validate:"omitempty,gte=0"`
	Description *string `json:"description"`
}

func (h *Handler) updateBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var payload updateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if err := validation.Struct(payload); err != nil {
		writeValidationError(w, err)
		return
	}

	book, err := h.service.UpdateBook(r.Context(), id, app.UpdateBookInput{
		Title:       payload.Title,
		Author:      payload.Author,
		Genre:       payload.Genre,
		ISBN:        payload.ISBN,
		PriceCents:  payload.PriceCents,
		Description: payload.Description,
	})
	if err != nil {
		h.writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"book": book})
}

func (h *Handler) deleteBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteBook(r.Context(), id); err != nil {
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
	switch {
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, http.StatusNotFound, "book not found")
	case errors.Is(err, ports.ErrDuplicateTitle), errors.Is(err, ports.ErrDuplicateISBN):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.ErrorContext(ctx, "catalog request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
