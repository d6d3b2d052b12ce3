package config

import (
	"os"
	"strings"
	"time"
)

// Config captures everything the server reads from the environment so main
// stays lean and no package reaches for os.Getenv on its own.
type Config struct {
	Addr        string
	DatabaseURL string
	RedisURL    string

	JWTSigningKey  string
	TokenTTL       time.Duration
	CORSOrigins    []string
	RequestTimeout time.Duration

	ObjectStoreURL       string
	ObjectStorePublicKey string

	SMTPAddr     string
	SMTPFrom     string
	SMTPUser     string
	SMTPPassword string

	PaymentKeyID     string
	PaymentKeySecret string

	AdminSeedEmail    string
	AdminSeedPassword string
}

// FromEnv builds a Config from environment variables, applying development
// defaults where a value is safe to default.
func FromEnv() Config {
	cfg := Config{
		Addr:                 envOr("KEEPSAFE_ADDR", ":8080"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RedisURL:             os.Getenv("REDIS_URL"),
		JWTSigningKey:        envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenTTL:             15 * time.Minute,
		RequestTimeout:       30 * time.Second,
		ObjectStoreURL:       os.Getenv("OBJECT_STORE_URL"),
		ObjectStorePublicKey: os.Getenv("OBJECT_STORE_PUBLIC_KEY"),
		SMTPAddr:             os.Getenv("SMTP_ADDR"),
		SMTPFrom:             os.Getenv("SMTP_FROM"),
		SMTPUser:             os.Getenv("SMTP_USER"),
		SMTPPassword:         os.Getenv("SMTP_PASSWORD"),
		PaymentKeyID:         os.Getenv("PAYMENT_KEY_ID"),
		PaymentKeySecret:     os.Getenv("PAYMENT_KEY_SECRET"),
		AdminSeedEmail:       os.Getenv("ADMIN_SEED_EMAIL"),
		AdminSeedPassword:    os.Getenv("ADMIN_SEED_PASSWORD"),
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
