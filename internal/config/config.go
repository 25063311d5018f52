package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

const devSecret = "dev-secret-change-in-production"

type Config struct {
	Port         string
	Env          string
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	SMTP         SMTPConfig
	Registration RegistrationConfig
}

type DatabaseConfig struct {
	DSN string
}

type RedisConfig struct {
	Addr     string
	Password string
}

type JWTConfig struct {
	Secret               string
	RefreshTokenTTL      time.Duration
	AccessTokenTTL       time.Duration
	RegistrationTokenTTL time.Duration
}

type SMTPConfig struct {
	Host       string
	Port       string
	Username   string
	Password   string
	Sender     string
	SenderName string
}

type RegistrationConfig struct {
	VerificationBaseURL   string
	TurnstileSecret       string
	AllowInvalidTurnstile bool
}

func Load() Config {
	cfg := Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),
		Database: DatabaseConfig{
			DSN: getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/concord?parseTime=true"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret:               loadSecret(),
			RefreshTokenTTL:      getDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
			AccessTokenTTL:       getDuration("JWT_ACCESS_TTL", 15*time.Minute),
			RegistrationTokenTTL: getDuration("JWT_REGISTRATION_TTL", 24*time.Hour),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnv("SMTP_PORT", "587"),
			Username:   getEnv("SMTP_USERNAME", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			Sender:     getEnv("SMTP_SENDER", "noreply@concord.chat"),
			SenderName: getEnv("SMTP_SENDER_NAME", "Concord"),
		},
		Registration: RegistrationConfig{
			VerificationBaseURL:   getEnv("VERIFICATION_BASE_URL", "http://localhost:8080/verify_email"),
			TurnstileSecret:       getEnv("TURNSTILE_SECRET", ""),
			AllowInvalidTurnstile: getEnv("ALLOW_INVALID_TURNSTILE", "") == "true",
		},
	}

	if cfg.Env == "production" && cfg.JWT.Secret == devSecret {
		slog.Error("JWT_SECRET must be set in production environment")
		os.Exit(1)
	}

	return cfg
}

// loadSecret prefers a mounted secret file over the environment so the
// signing key never has to live in the process environment in production.
func loadSecret() string {
	if path := os.Getenv("JWT_SECRET_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Error("reading JWT secret file failed", "path", path, "error", err)
			os.Exit(1)
		}
		return strings.TrimSpace(string(data))
	}
	return getEnv("JWT_SECRET", devSecret)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration, using fallback", "key", key, "value", v)
		return fallback
	}
	return d
}
