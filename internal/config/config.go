package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "dev-secret-key-change-me-0123456789abcdef"

type Config struct {
	AppEnv         string
	HTTPPort       string
	DatabaseURL    string // postgres DSN, empty means local SQLite
	SQLitePath     string
	JWTSecret      string
	CORSOrigins    string
	RequestTimeout time.Duration

	RedisAddr     string // empty means in-process idempotency store
	RedisPassword string
	RedisDB       int

	LogLevel    string
	LogEncoding string
	DefaultLang string

	// Shop rules
	TZOffsetHours   int           // fixed local offset for reporting (Asia/Baku = +4)
	PackSize        int           // singles per cigarette pack
	SaleDedupWindow time.Duration // duplicate sale submission guard
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		HTTPPort:       getEnv("HTTP_PORT", "8000"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		SQLitePath:     getEnv("SQLITE_PATH", "smokingshop.db"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		CORSOrigins:    getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:8000"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogEncoding: getEnv("LOG_ENCODING", ""),
		DefaultLang: getEnv("DEFAULT_LANG", "az"),

		TZOffsetHours:   getEnvInt("TZ_OFFSET_HOURS", 4),
		PackSize:        getEnvInt("PACK_SIZE", 20),
		SaleDedupWindow: getEnvDuration("SALE_DEDUP_WINDOW", 30*time.Second),
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			log.Fatal("[FATAL] JWT_SECRET is required in production")
		}
		cfg.JWTSecret = devJWTSecret
		log.Println("[WARN] JWT_SECRET not set, using development default")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET must be at least 32 characters")
	}
	if cfg.PackSize <= 0 {
		log.Fatal("[FATAL] PACK_SIZE must be positive")
	}
	if cfg.DatabaseURL == "" && cfg.IsProduction() {
		log.Println("[WARN] DATABASE_URL not set, production is running on SQLite")
	}

	return cfg
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Location is the fixed reporting zone.
func (c *Config) Location() *time.Location {
	return time.FixedZone("local", c.TZOffsetHours*3600)
}

func (c *Config) CORSOriginList() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
