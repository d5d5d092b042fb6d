package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dimitrije/adme-site/internal/apperr"
	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	SupabaseURL       string
	SupabaseAnonKey   string
	SupabaseJWTSecret string

	// DatabaseURL switches storage from the REST table API to a direct
	// Postgres connection.
	DatabaseURL string

	SiteURL        string
	FallbackDBPath string

	ContactRatePerMinute int
	RequestTimeout       time.Duration

	ContactNotifyEmail string
	SMTP               SMTPConfig
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Load reads the environment (and .env when present). A missing required
// variable yields a KindConfigurationMissing error listing every absent key.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var missing []string
	required := func(key string) string {
		value, ok := os.LookupEnv(key)
		if !ok || strings.TrimSpace(value) == "" {
			missing = append(missing, key)
			return ""
		}
		return value
	}

	timeout, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "0s"))
	if err != nil {
		timeout = 0
	}

	ratePerMinute, err := strconv.Atoi(getEnv("CONTACT_RATE_PER_MINUTE", "5"))
	if err != nil || ratePerMinute <= 0 {
		ratePerMinute = 5
	}

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		SupabaseURL:       strings.TrimRight(required("SUPABASE_URL"), "/"),
		SupabaseAnonKey:   required("SUPABASE_ANON_KEY"),
		SupabaseJWTSecret: getEnv("SUPABASE_JWT_SECRET", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		SiteURL:        strings.TrimRight(getEnv("SITE_URL", "http://localhost:8080"), "/"),
		FallbackDBPath: getEnv("FALLBACK_DB_PATH", "adme-fallback.db"),

		ContactRatePerMinute: ratePerMinute,
		RequestTimeout:       timeout,

		ContactNotifyEmail: getEnv("CONTACT_NOTIFY_EMAIL", ""),
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
	}

	// Direct Postgres access bypasses row-level security, so identities must
	// be checked locally.
	if cfg.UsesDirectDatabase() && strings.TrimSpace(cfg.SupabaseJWTSecret) == "" {
		missing = append(missing, "SUPABASE_JWT_SECRET (required with DATABASE_URL)")
	}

	if len(missing) > 0 {
		return nil, apperr.New(apperr.KindConfigurationMissing, "config.load",
			"required environment variables not set: "+strings.Join(missing, ", "))
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// UsesDirectDatabase reports whether storage talks to Postgres directly.
func (c *Config) UsesDirectDatabase() bool {
	return c.DatabaseURL != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
