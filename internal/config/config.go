package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration values.
type Config struct {
	Secret            string
	DatabaseDSN       string
	HTTPPort          string
	OwnerPassword     string
	OwnerPasswordHash string
	RateLimit         string
	CORSOrigins       []string
	ReportLocation    *time.Location
	SuppliersCSV      string
	LogLevel          slog.Level
}

const defaultDSN = "file:pharmamind.db?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	port := getEnv("HTTP_PORT", "8080")
	// Validate that port is numeric.
	if _, err := strconv.Atoi(port); err != nil {
		slog.Warn("invalid HTTP_PORT, defaulting to 8080", "value", port)
		port = "8080"
	}

	loc := time.Local
	if tz := os.Getenv("REPORT_TZ"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			slog.Warn("invalid REPORT_TZ, using local time", "value", tz, "error", err)
		} else {
			loc = l
		}
	}

	return Config{
		Secret:            getEnv("SECRET", "dev_secret"),
		DatabaseDSN:       getEnv("DATABASE_DSN", defaultDSN),
		HTTPPort:          port,
		OwnerPassword:     os.Getenv("OWNER_PASSWORD"),
		OwnerPasswordHash: os.Getenv("OWNER_PASSWORD_HASH"),
		RateLimit:         getEnv("RATE_LIMIT", "300-M"),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "*")),
		ReportLocation:    loc,
		SuppliersCSV:      getEnv("SUPPLIERS_CSV", "assets/suppliers.csv"),
		LogLevel:          parseLevel(os.Getenv("LOG_LEVEL")),
	}
}

// AuthEnabled reports whether the API is gated behind the owner passcode.
func (c Config) AuthEnabled() bool {
	return c.OwnerPassword != "" || c.OwnerPasswordHash != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
