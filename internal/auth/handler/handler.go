package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"keepsafe/internal/auth/models"
	"keepsafe/internal/http/shared"
	dErrors "keepsafe/pkg/domain-errors"
	"keepsafe/pkg/requestcontext"
)

// Service defines the interface for account operations.
type Service interface {
	CreateAccount(ctx context.Context, req models.CreateAccountRequest) (*models.User, string, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.User, string, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error
	CurrentUser(ctx context.Context) (*models.User, error)
	UpdatePassword(ctx context.Context, req models.UpdatePasswordRequest) error
	Renew(ctx context.Context, req models.RenewRequest) (*models.User, error)
}

// Handler handles account endpoints.
type Handler struct {
	auth   Service
	logger *slog.Logger
}

func New(auth Service, logger *slog.Logger) *Handler {
	return &Handler{auth: auth, logger: logger}
}

// RegisterPublic wires the endpoints reachable without a token.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/create-account", h.handleCreateAccount)
	r.Post("/login", h.handleLogin)
	r.Post("/forgot-password", h.handleForgotPassword)
	r.Post("/reset-password", h.handleResetPassword)
}

// RegisterProtected wires the endpoints behind the auth gate.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Get("/user/current", h.handleCurrentUser)
	r.Put("/user/update-password", h.handleUpdatePassword)
	r.Post("/renew", h.handleRenew)
}

func (h *Handler) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	user, accessToken, err := h.auth.CreateAccount(r.Context(), req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteMessage(w, http.StatusCreated, "account created", map[string]any{
		"user":  user,
		"token": accessToken,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	user, accessToken, err := h.auth.Login(r.Context(), req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteMessage(w, http.StatusOK, "login successful", map[string]any{
		"user":  user,
		"token": accessToken,
	})
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		shared.WriteError(w, err)
		return
	}

	// Same response whether or not the email has an account.
	shared.WriteMessage(w, http.StatusOK, "if the account exists, a reset email has been sent", nil)
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req); err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteMessage(w, http.StatusOK, "password updated", nil)
}

func (h *Handler) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.CurrentUser(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteMessage(w, http.StatusOK, "profile fetched", map[string]any{
		"user": user,
	})
}

func (h *Handler) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req models.UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.auth.UpdatePassword(r.Context(), req); err != nil {
		h.logger.WarnContext(r.Context(), "password update rejected",
			"user_id", requestcontext.UserID(r.Context()),
			"request_id", requestcontext.RequestID(r.Context()),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteMessage(w, http.StatusOK, "password updated", nil)
}

func (h *Handler) handleRenew(w http.ResponseWriter, r *http.Request) {
	var req models.RenewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	user, err := h.auth.Renew(r.Context(), req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteMessage(w, http.StatusOK, "plan renewed", map[string]any{
		"user": user,
	})
}
