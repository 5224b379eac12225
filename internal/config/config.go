package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	defaultDSN         = "host=localhost user=postgres password=postgres dbname=safeflame port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:5173"
)

type Config struct {
	HTTPPort     string `envconfig:"HTTP_PORT" default:"5000"`
	DatabaseDSN  string `envconfig:"DATABASE_DSN" default:"host=localhost user=postgres password=postgres dbname=safeflame port=5432 sslmode=disable"`
	JWTSecret    string `envconfig:"JWT_SECRET"`
	CORSOrigins  string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
	ClientURL    string `envconfig:"CLIENT_URL" default:"http://localhost:5173"`
	CookieSecure bool   `envconfig:"COOKIE_SECURE" default:"false"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`

	// Outbound mail. Empty host disables delivery.
	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser     string `envconfig:"SMTP_USER"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	EmailFrom    string `envconfig:"EMAIL_FROM"`

	// Seed admin, created on startup when no admin exists.
	AdminName     string `envconfig:"ADMIN_NAME" default:"Administrator"`
	AdminEmail    string `envconfig:"ADMIN_EMAIL"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`
	AdminPhone    string `envconfig:"ADMIN_PHONE"`
	AdminAddress  string `envconfig:"ADMIN_ADDRESS"`

	DefaultAllocation int    `envconfig:"DEFAULT_ALLOCATION" default:"12"`
	CylinderPrice     string `envconfig:"CYLINDER_PRICE" default:"800"`
	PhoneRegion       string `envconfig:"PHONE_REGION" default:"IN"`

	// Payment proofs: "local" keeps files under ProofLocalPath, "gcs" uploads to GCSBucket.
	ProofStorage       string `envconfig:"PROOF_STORAGE" default:"local"`
	ProofLocalPath     string `envconfig:"PROOF_LOCAL_PATH" default:"./payment-proofs"`
	ProofPublicBaseURL string `envconfig:"PROOF_PUBLIC_BASE_URL" default:"http://localhost:5000/uploads"`
	GCSBucket          string `envconfig:"GCS_BUCKET"`
	GCSCredentialsJSON string `envconfig:"GCS_CREDENTIALS_JSON"`

	// Optional. Without it notifications are read straight from the database
	// and booking creation relies on the row lock alone.
	RedisAddress string `envconfig:"REDIS_ADDRESS"`
}

func Load() (*Config, error) {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("config could not be read: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	if _, err := c.UnitPrice(); err != nil {
		return fmt.Errorf("CYLINDER_PRICE is not a valid amount: %w", err)
	}
	if c.DefaultAllocation <= 0 {
		return errors.New("DEFAULT_ALLOCATION must be positive")
	}
	if c.ProofStorage == "gcs" && c.GCSBucket == "" {
		return errors.New("PROOF_STORAGE=gcs requires GCS_BUCKET")
	}
	return nil
}

// LogWarnings flags development defaults left in place.
func (c *Config) LogWarnings(logger logrus.FieldLogger) {
	if c.DatabaseDSN == defaultDSN {
		logger.Warn("DATABASE_DSN uses the default value, set your own Postgres connection for production.")
	}
	if c.CORSOrigins == defaultCORSOrigins {
		logger.Warn("CORS_ALLOWED_ORIGINS uses the default value, set your own domain for production.")
	}
	if c.SMTPHost == "" {
		logger.Warn("SMTP_HOST is not set, emails will not be delivered.")
	}
}

func (c *Config) UnitPrice() (decimal.Decimal, error) {
	return decimal.NewFromString(c.CylinderPrice)
}

// AllowedOrigins normalizes the comma separated CORS list.
func (c *Config) AllowedOrigins() string {
	origins := strings.Split(c.CORSOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return strings.Join(origins, ",")
}

func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.EmailFrom != ""
}
