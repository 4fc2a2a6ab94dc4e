package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port            string
	Env             string
	MongoURI        string
	MongoDatabase   string
	StoreDriver     string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	JWTSecret       string
	TokenTTL        time.Duration
	AllowedOrigins  []string
	UploadDir       string
	MaxUploadBytes  int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Production reports whether cookies should be marked Secure.
func (c Config) Production() bool {
	return c.Env == "production"
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function so tests can supply their own values.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:          getOr(getenv, "PORT", "8080"),
		Env:           getOr(getenv, "APP_ENV", "development"),
		MongoURI:      getOr(getenv, "MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getOr(getenv, "MONGODB_DATABASE", "tandem"),
		StoreDriver:   getOr(getenv, "STORE_DRIVER", StoreMongo),
		RedisAddr:     getOr(getenv, "REDIS_ADDR", "localhost:6379"),
		RedisPassword: getenv("REDIS_PASSWORD"),
		JWTSecret:     getenv("JWT_SECRET"),
		UploadDir:     getOr(getenv, "UPLOAD_DIR", "./uploads"),
		AllowedOrigins: splitList(getOr(getenv, "ALLOWED_ORIGINS",
			"http://localhost:3000,http://localhost:5173")),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	if cfg.StoreDriver != StoreMongo && cfg.StoreDriver != StoreMemory {
		return Config{}, fmt.Errorf("invalid STORE_DRIVER %q", cfg.StoreDriver)
	}

	var err error
	if cfg.RedisDB, err = strconv.Atoi(getOr(getenv, "REDIS_DB", "0")); err != nil {
		return Config{}, fmt.Errorf("invalid REDIS_DB value: %w", err)
	}
	if cfg.MaxUploadBytes, err = strconv.ParseInt(getOr(getenv, "MAX_UPLOAD_BYTES", "5242880"), 10, 64); err != nil {
		return Config{}, fmt.Errorf("invalid MAX_UPLOAD_BYTES value: %w", err)
	}

	durations := []struct {
		key  string
		def  string
		dest *time.Duration
	}{
		{"TOKEN_TTL", "720h", &cfg.TokenTTL},
		{"HTTP_READ_TIMEOUT", "15s", &cfg.ReadTimeout},
		{"HTTP_WRITE_TIMEOUT", "30s", &cfg.WriteTimeout},
		{"SHUTDOWN_TIMEOUT", "10s", &cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getOr(getenv, d.key, d.def))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s value: %w", d.key, err)
		}
		*d.dest = v
	}

	return cfg, nil
}

func getOr(getenv func(string) string, key, def string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
