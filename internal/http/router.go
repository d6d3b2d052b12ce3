// Package httpapi wires every handler onto the top-level router. Routes are
// grouped by gate: public, authenticated, and admin-role.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminhandler "keepsafe/internal/admin"
	authhandler "keepsafe/internal/auth/handler"
	"keepsafe/internal/auth/models"
	"keepsafe/internal/platform/metrics"
	"keepsafe/internal/platform/middleware"
	vaulthandler "keepsafe/internal/vault/handler"
)

type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	JWTValidator   middleware.JWTValidator
	CORSOrigins    []string
	RequestTimeout time.Duration

	Auth  *authhandler.Handler
	Vault *vaulthandler.Handler
	Admin *adminhandler.Handler
}

// NewRouter builds the full route tree.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Timeout(d.RequestTimeout))
	r.Use(middleware.Latency(d.Metrics))
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Public: account creation, logins, password recovery.
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		d.Auth.RegisterPublic(r)
		d.Admin.RegisterPublic(r)
	})

	// Authenticated: profile and every vault domain.
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(d.JWTValidator, d.Logger))
		d.Auth.RegisterProtected(r)
		d.Vault.Register(r)
	})

	// Admin-role gated.
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(d.JWTValidator, d.Logger))
		r.Use(middleware.RequireRole(models.RoleAdmin, d.Logger))
		d.Admin.RegisterProtected(r)
	})

	return r
}
