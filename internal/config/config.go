package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Cache    CacheConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string
	CookieSecure   bool
	CookieDomain   string
}

// AuthConfig carries the account-security policy knobs. The lockout threshold
// and duration are env-tunable because production tuning is expected.
type AuthConfig struct {
	LockoutThreshold   int
	LockoutDuration    time.Duration
	RememberMeDuration time.Duration
	PasswordMaxAge     time.Duration
	SessionIdleTimeout time.Duration
	AttemptRetention   time.Duration
	CleanupInterval    time.Duration
	TOTPIssuer         string
}

type CacheConfig struct {
	RedisAddr     string // empty disables the content cache
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "healthcenter"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: parseList(getEnv("TRUSTED_PROXIES", "")),
			CookieSecure:   env == "production",
			CookieDomain:   getEnv("COOKIE_DOMAIN", ""),
		},
		Auth: AuthConfig{
			LockoutThreshold:   getEnvAsInt("LOCKOUT_THRESHOLD", 5),
			LockoutDuration:    getEnvAsDuration("LOCKOUT_DURATION", 30*time.Minute),
			RememberMeDuration: getEnvAsDuration("REMEMBER_ME_DURATION", 14*24*time.Hour),
			PasswordMaxAge:     getEnvAsDuration("PASSWORD_MAX_AGE", 90*24*time.Hour),
			SessionIdleTimeout: getEnvAsDuration("SESSION_IDLE_TIMEOUT", 30*24*time.Hour),
			AttemptRetention:   getEnvAsDuration("ATTEMPT_RETENTION", 90*24*time.Hour),
			CleanupInterval:    getEnvAsDuration("CLEANUP_INTERVAL", 1*time.Hour),
			TOTPIssuer:         getEnv("TOTP_ISSUER", "HealthCenter"),
		},
		Cache: CacheConfig{
			RedisAddr:     getEnv("REDIS_ADDR", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			TTL:           getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if cfg.Auth.LockoutThreshold < 1 {
		return nil, fmt.Errorf("LOCKOUT_THRESHOLD must be at least 1")
	}
	if cfg.Auth.LockoutDuration <= 0 {
		return nil, fmt.Errorf("LOCKOUT_DURATION must be positive")
	}

	return cfg, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{}
		}
		origins := strings.Split(originsStr, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		return origins
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}
