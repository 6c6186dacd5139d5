// Package config loads backend configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting. Defaults are suitable for local
// development only; production deployments set the secrets explicitly.
type Config struct {
	Addr   string `env:"DAMAREEN_ADDR" envDefault:":7621"`
	DBPath string `env:"DAMAREEN_DB_PATH" envDefault:"damareen.db"`

	JWTSecret   string        `env:"DAMAREEN_JWT_SECRET" envDefault:"dev-secret-key"`
	TokenExpiry time.Duration `env:"DAMAREEN_TOKEN_EXPIRY" envDefault:"24h"`

	RateWindow time.Duration `env:"DAMAREEN_RATE_WINDOW" envDefault:"10s"`
	RateLimit  int           `env:"DAMAREEN_RATE_LIMIT" envDefault:"5"`

	RequireEmailVerification bool          `env:"DAMAREEN_REQUIRE_EMAIL_VERIFICATION" envDefault:"false"`
	VerificationExpiry       time.Duration `env:"DAMAREEN_VERIFICATION_EXPIRY" envDefault:"24h"`

	SMTPHost     string `env:"DAMAREEN_SMTP_HOST"`
	SMTPPort     int    `env:"DAMAREEN_SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"DAMAREEN_SMTP_USERNAME"`
	SMTPPassword string `env:"DAMAREEN_SMTP_PASSWORD"`
	SenderEmail  string `env:"DAMAREEN_SENDER_EMAIL" envDefault:"damareen@deakteri.cloud"`
	SenderName   string `env:"DAMAREEN_SENDER_NAME" envDefault:"Damareen"`
	FrontendURL  string `env:"DAMAREEN_FRONTEND_URL" envDefault:"http://localhost:3000"`
}

// Load parses the configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
