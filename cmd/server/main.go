// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"keepsafe/internal/admin"
	"keepsafe/internal/audit"
	authhandler "keepsafe/internal/auth/handler"
	"keepsafe/internal/auth/lockout"
	"keepsafe/internal/auth/reset"
	authservice "keepsafe/internal/auth/service"
	authstore "keepsafe/internal/auth/store"
	httpapi "keepsafe/internal/http"
	"keepsafe/internal/mailer"
	"keepsafe/internal/payment"
	"keepsafe/internal/platform/config"
	"keepsafe/internal/platform/httpserver"
	"keepsafe/internal/platform/logger"
	"keepsafe/internal/platform/metrics"
	"keepsafe/internal/platform/postgres"
	"keepsafe/internal/platform/redis"
	"keepsafe/internal/token"
	"keepsafe/internal/upload"
	vaulthandler "keepsafe/internal/vault/handler"
	vaultservice "keepsafe/internal/vault/service"
	vaultstore "keepsafe/internal/vault/store"
)

const (
	auditBuffer     = 256
	shutdownTimeout = 10 * time.Second
	tokenIssuer     = "keepsafe"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres is optional; without it every store runs in memory, which is
	// enough for local development.
	var (
		userStore  authstore.UserStore
		recStore   vaultstore.Store
		auditStore audit.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		users := authstore.NewPostgres(db)
		records := vaultstore.NewPostgres(db)
		audits := audit.NewPostgres(db)
		for _, ensure := range []func(context.Context) error{
			users.EnsureSchema, records.EnsureSchema, audits.EnsureSchema,
		} {
			if err := ensure(ctx); err != nil {
				log.Error("schema migration failed", "error", err)
				os.Exit(1)
			}
		}
		userStore, recStore, auditStore = users, records, audits
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		userStore = authstore.NewInMemoryStore()
		recStore = vaultstore.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
	}

	// Redis backs login lockouts and reset tokens; absent, both fall back to
	// single-process memory implementations.
	var (
		lockouts lockout.Store
		resets   reset.Store
	)
	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		lockouts = lockout.NewRedisStore(redisClient.Client)
		resets = reset.NewRedisStore(redisClient.Client)
	} else {
		log.Warn("REDIS_URL not set, using in-memory lockout and reset stores")
		lockouts = lockout.NewMemoryStore()
		resets = reset.NewMemoryStore()
	}

	publisher := audit.NewPublisher(auditBuffer, log, m)
	worker := audit.NewWorker(auditStore, publisher.Inbox(), log)
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	jwtService := token.NewJWTService(cfg.JWTSigningKey, tokenIssuer, cfg.TokenTTL)

	var mail authservice.Mailer
	if cfg.SMTPAddr != "" {
		mail = mailer.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPassword)
	} else {
		log.Warn("SMTP_ADDR not set, reset emails will only be logged")
		mail = mailer.NewLogMailer(log)
	}

	authSvc, err := authservice.New(userStore, jwtService,
		payment.NewHMACGateway(cfg.PaymentKeyID, cfg.PaymentKeySecret),
		lockouts, resets,
		authservice.WithLogger(log),
		authservice.WithMetrics(m),
		authservice.WithAuditPublisher(publisher),
		authservice.WithMailer(mail),
	)
	if err != nil {
		log.Error("auth service init failed", "error", err)
		os.Exit(1)
	}

	vaultSvc, err := vaultservice.New(recStore,
		vaultservice.WithLogger(log),
		vaultservice.WithMetrics(m),
		vaultservice.WithAuditPublisher(publisher),
	)
	if err != nil {
		log.Error("vault service init failed", "error", err)
		os.Exit(1)
	}

	var resolve func(http.Handler) http.Handler
	if cfg.ObjectStoreURL != "" {
		uploader := upload.NewHTTPUploader(cfg.ObjectStoreURL, cfg.ObjectStorePublicKey)
		resolve = upload.NewResolver(uploader, log, m).Middleware
	} else {
		log.Warn("OBJECT_STORE_URL not set, file attachments are disabled")
	}

	if err := seedAdmin(ctx, cfg, userStore, log); err != nil {
		log.Error("admin seed failed", "error", err)
		os.Exit(1)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:         log,
		Metrics:        m,
		JWTValidator:   token.NewMiddlewareAdapter(jwtService),
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Auth:           authhandler.New(authSvc, log),
		Vault:          vaulthandler.New(vaultSvc, log, resolve),
		Admin:          admin.New(userStore, vaultSvc, authSvc, auditStore, publisher, log),
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting keepsafe", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
