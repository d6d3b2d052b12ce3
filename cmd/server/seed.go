package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"keepsafe/internal/auth/models"
	authservice "keepsafe/internal/auth/service"
	authstore "keepsafe/internal/auth/store"
	"keepsafe/internal/platform/config"
)

// seedAdmin ensures the configured admin account exists. Seeding is
// idempotent: an existing account is left untouched, password included.
func seedAdmin(ctx context.Context, cfg config.Config, users authstore.UserStore, log *slog.Logger) error {
	if cfg.AdminSeedEmail == "" {
		return nil
	}
	if cfg.AdminSeedPassword == "" {
		return errors.New("ADMIN_SEED_EMAIL set without ADMIN_SEED_PASSWORD")
	}

	if _, err := users.FindByEmail(ctx, cfg.AdminSeedEmail); err == nil {
		return nil
	} else if !errors.Is(err, authstore.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminSeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &models.User{
		ID:            uuid.NewString(),
		Email:         cfg.AdminSeedEmail,
		FirstName:     "Admin",
		PasswordHash:  string(hash),
		Role:          models.RoleAdmin,
		Status:        models.StatusActive,
		PlanExpiresAt: time.Now().Add(10 * authservice.PlanDuration),
	}
	if err := users.Create(ctx, admin); err != nil {
		if errors.Is(err, authstore.ErrDuplicateEmail) {
			return nil
		}
		return err
	}

	log.Info("seeded admin account", "email", cfg.AdminSeedEmail)
	return nil
}
