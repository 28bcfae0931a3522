package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dejobratic/bookstore/internal/auth/app"
	"github.com/dejobratic/bookstore/internal/auth/ports"
	"github.com/dejobratic/bookstore/internal/validation"
	"github.com/go-chi/chi/v5"
)

// Handler exposes HTTP endpoints for account registration and login.
type Handler struct {
	service *app.Service
	logger  *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *app.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register binds the auth handlers to the provided router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/auth/signup", h.signup)
	r.Post("/v1/auth/login", h.login)
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var payload app.SignupInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if err := validation.Struct(payload); err != nil {
		writeValidationError(w, err)
		return
	}

	customer, token, err := h.service.Signup(r.Context(), payload)
	if err != nil {
		if errors.Is(err, ports.ErrEmailTaken) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.writeInternalError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"customer": customer,
		"token":    token,
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if err := validation.Struct(payload); err != nil {
		writeValidationError(w, err)
		return
	}

	customer, token, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, app.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		h.writeInternalError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"customer": customer,
		"token":    token,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

// writeInternalError logs the full failure and answers with a generic body.
func (h *Handler) writeInternalError(ctx context.Context, w http.ResponseWriter, err error) {
	h.logger.ErrorContext(ctx, "auth request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
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
