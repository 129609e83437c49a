package app

import (
	"os"
	"strconv"
	"time"

	"github.com/cedarmarket/storefront/internal/storefront/service"
	"github.com/cedarmarket/storefront/pkg/sessiontoken"
)

type Config struct {
	TokenSecret string        // Required: symmetric secret for session token signing (min 32 bytes)
	Issuer      string        // Optional: issuer claim for session tokens (default: cedarmarket)
	TokenTTL    time.Duration // Optional: session token validity (default: 7 days)
	OTPTTL      time.Duration // Optional: one-time code validity (default: 5m)

	DatabaseFile string // Optional: path to SQLite database file (default: ./storefront.db)
	RedisAddr    string // Optional: Redis address for the OTP ledger (default: localhost:6379)
	RedisDB      int    // Optional: Redis logical database (default: 0)
	PepperFile   string // Optional: path to file containing pepper for password hashing (default: ./pepper)

	SMTPAddr string // Optional: SMTP host:port; empty means log-only mail delivery (dev)
	SMTPFrom string // Optional: From address for OTP mail

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
	Port      int    // HTTP server port (default: 8080)

	StreamHeartbeat      time.Duration // Optional: status stream ping cadence (default: 30s)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
	AuditRetention       time.Duration // Audit log retention window (default: 90 days)
}

func LoadConfig() Config {
	return Config{
		TokenSecret: os.Getenv("AUTH_TOKEN_SECRET"),
		Issuer:      getEnvOrDefault("AUTH_ISSUER", "cedarmarket"),
		TokenTTL:    getEnvDurationOrDefault("AUTH_TOKEN_TTL", sessiontoken.DefaultTTL),
		OTPTTL:      getEnvDurationOrDefault("AUTH_OTP_TTL", service.DefaultOTPTTL),

		DatabaseFile: getEnvOrDefault("DATABASE_FILE", "storefront.db"),
		RedisAddr:    getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisDB:      getEnvIntOrDefault("REDIS_DB", 0),
		PepperFile:   getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),

		SMTPAddr: os.Getenv("SMTP_ADDR"),
		SMTPFrom: getEnvOrDefault("SMTP_FROM", "no-reply@cedarmarket.example"),

		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
		Port:      getEnvIntOrDefault("PORT", 8080),

		StreamHeartbeat:      getEnvDurationOrDefault("STREAM_HEARTBEAT", 30*time.Second),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		AuditRetention:       getEnvDurationOrDefault("AUDIT_RETENTION", 90*24*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
