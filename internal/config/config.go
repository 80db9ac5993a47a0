package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go-pos-terminal/pkg/validator"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string `validate:"required"`
	LogLevel string `validate:"oneof=debug info warn error"`

	// Database holds cashiers and the submission journal.
	DatabaseURL string
	DBHost      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBPort      string

	JWTSecret string        `validate:"required,min=8"`
	JWTTTL    time.Duration `validate:"gt=0"`

	// POS backend the terminal sells against
	BackendURL     string        `validate:"required,url"`
	BackendToken   string
	BackendTimeout time.Duration `validate:"gt=0"`

	RoundSubtotal      bool
	Locale             string `validate:"oneof=en ar"`
	Currency           string
	InvoiceBaseURL     string
	SessionIdleTimeout time.Duration `validate:"gt=0"`

	MetricsEnabled   bool
	CORSAllowOrigins []string
}

// Load reads .env when present, then the environment. A missing .env is not an error.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("error loading .env: %w", err)
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	cfg := Config{
		Port:     getenv("PORT", "3000"),
		LogLevel: strings.ToLower(getenv("LOG_LEVEL", "info")),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getenv("DB_HOST", "localhost"),
		DBUser:      getenv("DB_USER", "postgres"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      getenv("DB_NAME", "pos_terminal"),
		DBPort:      getenv("DB_PORT", "5432"),

		JWTSecret: getenv("JWT_SECRET", "your-super-secret-key-change-in-production"),
		JWTTTL:    parseDuration(getenv("JWT_TTL", "24h"), 24*time.Hour),

		BackendURL:     getenv("BACKEND_URL", "http://localhost:5000"),
		BackendToken:   os.Getenv("BACKEND_TOKEN"),
		BackendTimeout: parseDuration(getenv("BACKEND_TIMEOUT", "10s"), 10*time.Second),

		RoundSubtotal:      parseBool(getenv("TOTALS_ROUND_SUBTOTAL", "true"), true),
		Locale:             getenv("LOCALE", "ar"),
		Currency:           getenv("CURRENCY", "ج.م"),
		InvoiceBaseURL:     os.Getenv("INVOICE_BASE_URL"),
		SessionIdleTimeout: parseDuration(getenv("SESSION_IDLE_TIMEOUT", "12h"), 12*time.Hour),

		MetricsEnabled:   parseBool(getenv("METRICS_ENABLED", "true"), true),
		CORSAllowOrigins: splitCSV(getenv("CORS_ALLOW_ORIGINS", "*")),
	}

	if errs := validator.ValidateStruct(cfg); len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid config: field '%s' failed on tag '%s'", errs[0].FailedField, errs[0].Tag)
	}
	return cfg, nil
}

// DSN prefers DATABASE_URL and falls back to the individual DB_* settings.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort,
	)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func parseBool(v string, def bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
