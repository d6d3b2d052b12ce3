// Package admin exposes the user-management surface. Every route except
// login sits behind the auth gate plus an admin role check, so a valid
// non-admin token gets 403 where a missing one gets 401.
package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"keepsafe/internal/audit"
	"keepsafe/internal/auth/models"
	"keepsafe/internal/http/shared"
	dErrors "keepsafe/pkg/domain-errors"
	"keepsafe/pkg/requestcontext"
)

// UserDirectory is the slice of the user store the admin surface needs.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Delete(ctx context.Context, id string) error
}

// VaultCascade removes a deleted user's records across all domains.
type VaultCascade interface {
	DeleteAllForOwner(ctx context.Context, ownerID string) error
}

// AuthService is the admin login seam.
type AuthService interface {
	AdminLogin(ctx context.Context, req models.LoginRequest) (*models.User, string, error)
}

// AuditLog reads back recent audit events.
type AuditLog interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

// AuditPublisher records admin actions.
type AuditPublisher interface {
	Publish(ctx context.Context, event audit.Event)
}

type Handler struct {
	users    UserDirectory
	vault    VaultCascade
	auth     AuthService
	auditLog AuditLog
	audit    AuditPublisher
	logger   *slog.Logger
}

func New(users UserDirectory, vault VaultCascade, auth AuthService, auditLog AuditLog, publisher AuditPublisher, logger *slog.Logger) *Handler {
	return &Handler{
		users:    users,
		vault:    vault,
		auth:     auth,
		auditLog: auditLog,
		audit:    publisher,
		logger:   logger,
	}
}

// RegisterPublic wires the admin login endpoint.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/admin/login", h.handleLogin)
}

// RegisterProtected wires the role-gated endpoints; the router applies
// RequireAuth and RequireRole(admin) ahead of these.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Get("/admin/users", h.handleListUsers)
	r.Delete("/admin/user/{id}", h.handleDeleteUser)
	r.Get("/admin/audit", h.handleListAudit)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	user, accessToken, err := h.auth.AdminLogin(r.Context(), req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteMessage(w, http.StatusOK, "login successful", map[string]any{
		"user":  user,
		"token": accessToken,
	})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "failed to list users", err))
		return
	}

	shared.WriteMessage(w, http.StatusOK, "users fetched", map[string]any{
		"users": users,
	})
}

// handleDeleteUser removes the account and cascades over the user's vault
// records. The vault cascade runs first: a half-deleted account must never
// retain orphaned records that no login can reach.
func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "id")

	if _, err := h.users.FindByID(ctx, userID); err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.vault.DeleteAllForOwner(ctx, userID); err != nil {
		h.logger.ErrorContext(ctx, "vault cascade failed",
			"target_user_id", userID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}

	if err := h.users.Delete(ctx, userID); err != nil {
		shared.WriteError(w, err)
		return
	}

	if h.audit != nil {
		event := audit.NewEvent(ctx, requestcontext.UserID(ctx), audit.ActionAdminDeleteUser)
		event.ItemID = userID
		h.audit.Publish(ctx, event)
	}

	shared.WriteMessage(w, http.StatusOK, "user deleted", nil)
}

func (h *Handler) handleListAudit(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	events, err := h.auditLog.ListRecent(r.Context(), limit)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "failed to list audit events", err))
		return
	}

	shared.WriteMessage(w, http.StatusOK, "audit events fetched", map[string]any{
		"events": events,
	})
}
