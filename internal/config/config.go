package config

import (
	"log/slog"
	"os"
	"strconv"
)

// insecureJWTFallback is the development-only signing secret. Boot refuses
// to proceed with it when ENV=production.
const insecureJWTFallback = "dev-secret-change-in-production"

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// Configured reports whether SMTP delivery is usable. When false the
// server falls back to a logging no-op mailer.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.From != ""
}

type Config struct {
	Port        string
	Env         string
	DatabaseDSN string
	JWTSecret   string
	FrontendURL string
	Google      GoogleConfig
	SMTP        SMTPConfig

	AuthRateRPS   float64
	AuthRateBurst int
}

func Load() Config {
	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseDSN: getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/notely?parseTime=true&multiStatements=true"),
		JWTSecret:   getEnv("JWT_SECRET", insecureJWTFallback),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		Google: GoogleConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			CallbackURL:  getEnv("GOOGLE_CALLBACK_URL", ""),
		},
		SMTP: SMTPConfig{
			Host: getEnv("SMTP_HOST", ""),
			Port: getEnvInt("SMTP_PORT", 587),
			User: getEnv("SMTP_USER", ""),
			Pass: getEnv("SMTP_PASS", ""),
			From: getEnv("SMTP_FROM", ""),
		},
		AuthRateRPS:   getEnvFloat("AUTH_RATE_RPS", 5),
		AuthRateBurst: getEnvInt("AUTH_RATE_BURST", 10),
	}

	if cfg.Env == "production" && cfg.JWTSecret == insecureJWTFallback {
		slog.Error("JWT_SECRET must be set in production environment")
		os.Exit(1)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
